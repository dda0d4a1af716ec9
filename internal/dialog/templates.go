// internal/dialog/templates.go
package dialog

import "fmt"

func greetingMessage() string {
	return `Hello! Welcome to Customer Care.

I'm here to help you with:
• Product information
• Scheduling appointments
• Technical support
• General inquiries

How can I assist you today?`
}

func goodbyeMessage() string {
	return `Thank you for contacting us! Have a wonderful day!

Feel free to return anytime you need assistance.`
}

func apologyMessage() string {
	return "I'm having trouble processing your request. Please try rephrasing or contact support."
}

func noAppointmentsMessage() string {
	return "I couldn't find any existing appointments for you. Would you like to schedule a new appointment instead?"
}

func noKnowledgeMenu(query string) string {
	return fmt.Sprintf(`I couldn't find specific information about "%s" in our knowledge base.

**Here's what I can help with:**
• Product information
• Appointment scheduling
• Technical support
• Pricing details

Would you like me to:
1. **Connect you with a specialist**
2. **Schedule an appointment**
3. **Try searching with different keywords**

Please reply with 1, 2, or 3.`, query)
}

func productMenu() string {
	return `**What would you like to do next?**
1. **Schedule a product demo**
2. **Get detailed pricing**
3. **Compare different products**
4. **Speak with a specialist**

Reply with 1, 2, 3, or 4.`
}

func supportMenu() string {
	return `**Would you like:**
1. **Connect with a support specialist** immediately
2. **Schedule a support appointment** at your convenience
3. **More information about this issue**

Please reply with 1, 2, or 3, or describe your issue in detail.`
}

func generalMenu() string {
	return `**Would you like to:**
1. **Speak with a specialist**
2. **Schedule an appointment**
3. **Ask a different question**

Please reply with 1, 2, or 3.`
}
