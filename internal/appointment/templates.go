// internal/appointment/templates.go
package appointment

import (
	"fmt"
	"strings"

	"care-chatbot/internal/models"
)

// serviceDescriptions is the menu copy shown when asking for a service type.
var serviceDescriptions = map[string]string{
	"consultation": "Strategic planning and advisory services",
	"support":      "Technical assistance and troubleshooting",
	"installation": "System setup and implementation",
	"maintenance":  "Regular upkeep and optimization",
	"training":     "User education and skill development",
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// serviceMenu renders the numbered service list for the configured services.
func serviceMenu(services []string) string {
	var b strings.Builder
	for i, svc := range services {
		desc := serviceDescriptions[svc]
		if desc == "" {
			desc = "Professional " + svc + " services"
		}
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, titleCase(svc), desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

// slotQuestion is the first-time prompt for each slot.
func slotQuestion(slot string, services []string) string {
	switch slot {
	case models.SlotServiceType:
		return "**Let's schedule your appointment!**\n\n" +
			"What type of service are you looking for?\n**Available options:**\n" +
			serviceMenu(services) +
			"\n\n**Please indicate your choice by number or name.**"
	case models.SlotDate:
		return "**Great! Now, when would you like your appointment?**\n\n" +
			"Please provide a date:\n" +
			"• **Today/Tomorrow**\n" +
			"• **Next Monday/Tuesday/etc.**\n" +
			"• **Specific date:** December 15, 2026-12-15\n" +
			"• **Day of week:** Friday"
	case models.SlotTime:
		return "**Perfect! What time works best for you?**\n\n" +
			"Examples:\n" +
			"• **Standard time:** 2:00 PM, 3:30 PM\n" +
			"• **24-hour format:** 14:00, 16:30\n" +
			"• **Relative time:** Morning, Afternoon, Evening"
	case models.SlotCustomerName:
		return "**Now I need your name for the booking.**\n\nWhat's your full name? (e.g., John Smith)"
	case models.SlotEmail:
		return "**One last step!**\n\n" +
			"Please provide your email address for confirmation:\n" +
			"• **Example:** name@example.com\n\n" +
			"This is where we'll send your appointment confirmation."
	default:
		return fmt.Sprintf("Please provide the %s information.", slot)
	}
}

// slotRetry is the prompt when extraction failed for the asked slot.
func slotRetry(slot, message string, data map[string]string, services []string) string {
	switch slot {
	case models.SlotServiceType:
		return fmt.Sprintf("I didn't understand '%s' as a service type. Please choose from:\n%s\n\nOr type the service name directly.",
			message, serviceMenu(services))
	case models.SlotDate:
		return fmt.Sprintf("I couldn't parse the date from '%s'. Please provide a date like:\n• Today/Tomorrow\n• Next Tuesday\n• December 15\n• 2026-12-15", message)
	case models.SlotTime:
		return fmt.Sprintf("I couldn't parse the time from '%s'. Please provide a time like:\n• 2:00 PM\n• 3:30 PM\n• Afternoon\n• 14:00", message)
	case models.SlotCustomerName:
		if data[models.SlotServiceType] != "" && data[models.SlotDate] != "" && data[models.SlotTime] != "" {
			return fmt.Sprintf("**Great! Almost done...**\n\nI have your:\n• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n\n"+
				"**Now I need your name and email to complete the booking.**\n\n**What's your full name?** (e.g., John Smith)",
				titleCase(data[models.SlotServiceType]), data[models.SlotDate], data[models.SlotTime])
		}
		return "**I need your full name for the appointment booking.**\n\nPlease provide your name (e.g., John Smith or Jane Doe)."
	case models.SlotEmail:
		return "**Please provide your email address** for confirmation:\n\n• Example: name@example.com\n• Format: user@domain.com"
	default:
		return fmt.Sprintf("Please provide the %s information.", slot)
	}
}

// progressPrompt acknowledges what is collected before asking the next slot.
func progressPrompt(data map[string]string, next string, services []string) string {
	service := titleCase(data[models.SlotServiceType])
	date := data[models.SlotDate]
	timeOfDay := data[models.SlotTime]
	name := data[models.SlotCustomerName]

	switch {
	case next == models.SlotTime && service != "" && date != "":
		return fmt.Sprintf("**Perfect! I have your:**\n• **Service:** %s\n• **Date:** %s\n\n**What time on %s works best for you?**",
			service, date, date)
	case next == models.SlotCustomerName && service != "" && date != "" && timeOfDay != "":
		return fmt.Sprintf("**Excellent! I've captured all your preferences:**\n\n• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n\n"+
			"**Now I just need your name and email to complete the booking.**\nWhat's your full name? (e.g., John Smith)",
			service, date, timeOfDay)
	case next == models.SlotEmail && name != "":
		return fmt.Sprintf("**Almost done, %s!**\n\nI have:\n• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n• **Name:** %s\n\n"+
			"**One last step: Please provide your email address for confirmation.**\nExample: name@example.com",
			name, service, date, timeOfDay, name)
	default:
		return slotQuestion(next, services)
	}
}

// confirmationSummary renders the yes/no booking summary.
func confirmationSummary(data map[string]string) string {
	return fmt.Sprintf("**Please confirm your appointment:**\n\n"+
		"• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n• **Name:** %s\n• **Email:** %s\n\n"+
		"**Is everything correct?** (yes/no)",
		titleCase(data[models.SlotServiceType]), data[models.SlotDate], data[models.SlotTime],
		data[models.SlotCustomerName], data[models.SlotEmail])
}

// bookedMessage renders the final confirmation with the booking reference.
func bookedMessage(appt *models.Appointment) string {
	return fmt.Sprintf("**Appointment Confirmed!**\n\n"+
		"• **Booking Reference:** `%s`\n• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n• **Name:** %s\n\n"+
		"A confirmation email has been sent to **%s**.\n\nIs there anything else I can help you with?",
		appt.ID, titleCase(appt.ServiceType), appt.Date, appt.Time, appt.CustomerName, appt.Email)
}

// changePrompt asks what to change after a "no" at confirmation.
func changePrompt() string {
	return "**No problem! What would you like to change?**\n\n" +
		"• **Service** - the type of appointment\n" +
		"• **Date** - the appointment day\n" +
		"• **Time** - the appointment hour\n" +
		"• **Name** - the booking name\n" +
		"• **Email** - the contact address"
}

// modifyingPrompt opens the edit dialog for an existing booking.
func modifyingPrompt(appt *models.Appointment) string {
	return fmt.Sprintf("**Modifying Appointment** (ID: `%s`)\n\n"+
		"Here are your current appointment details:\n"+
		"• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n• **Name:** %s\n• **Email:** %s\n\n"+
		"**What would you like to change?**\n"+
		"You can change the service, date, time, name or email.\n\n"+
		"Please tell me exactly what you want to change (e.g., \"change the date\" or \"change the service\").",
		appt.ID, titleCase(appt.ServiceType), appt.Date, appt.Time, appt.CustomerName, appt.Email)
}

// updatedMessage confirms an in-place edit of an existing booking.
func updatedMessage(appt *models.Appointment) string {
	return fmt.Sprintf("**Appointment Successfully Updated!**\n\n"+
		"Your appointment (ID: `%s`) has been updated with the new details:\n\n"+
		"• **Service:** %s\n• **Date:** %s\n• **Time:** %s\n• **Name:** %s\n• **Email:** %s\n\n"+
		"A confirmation email has been sent to **%s**.\n\nIs there anything else I can help you with?",
		appt.ID, titleCase(appt.ServiceType), appt.Date, appt.Time, appt.CustomerName, appt.Email, appt.Email)
}

// cancelledMessage confirms the flow was aborted without booking.
func cancelledMessage() string {
	return "**Appointment booking cancelled.**\n\nNo appointment was created. Let me know if you'd like to start over or if there's anything else I can help with."
}
