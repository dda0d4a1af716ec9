// internal/appointment/rules.go

// Package appointment implements booking business rules, persistence and the
// guided slot-filling flow.
package appointment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"care-chatbot/internal/common/config"
)

// Rules validates candidate appointment slots against configured business
// hours, weekdays and the half-hour grid.
type Rules struct {
	cfg      config.AppointmentConfig
	weekdays map[string]bool
	minutes  map[int]bool
	now      func() time.Time
}

// NewRules builds the validator from config.
func NewRules(cfg config.AppointmentConfig) *Rules {
	weekdays := make(map[string]bool, len(cfg.Weekdays))
	for _, day := range cfg.Weekdays {
		weekdays[strings.ToLower(day)] = true
	}
	minutes := make(map[int]bool, len(cfg.SlotMinutes))
	for _, m := range cfg.SlotMinutes {
		minutes[m] = true
	}
	return &Rules{cfg: cfg, weekdays: weekdays, minutes: minutes, now: time.Now}
}

var clockRe = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

// ValidateDate checks that an ISO date falls on a business weekday inside the
// booking horizon. The returned reason is user-facing.
func (r *Rules) ValidateDate(dateStr string) (bool, string) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return false, "I couldn't understand the date format. Please use YYYY-MM-DD format."
	}

	if !r.weekdays[strings.ToLower(date.Weekday().String())] {
		return false, fmt.Sprintf(
			"**Weekend Appointment:** We're closed on weekends!\n\nYou selected **%s (%s)**.\n\n**Please choose a weekday (Monday-Friday):**",
			date.Weekday(), dateStr)
	}

	today := r.now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return false, fmt.Sprintf("**%s** is in the past. Please choose an upcoming weekday.", dateStr)
	}
	if r.cfg.MaxDaysAhead > 0 && date.After(today.AddDate(0, 0, r.cfg.MaxDaysAhead)) {
		return false, fmt.Sprintf("We can only schedule up to %d days ahead. Please choose an earlier date.", r.cfg.MaxDaysAhead)
	}

	return true, ""
}

// ValidateSlot checks date plus time: business weekday, configured hours and
// the slot-minute grid.
func (r *Rules) ValidateSlot(dateStr, timeStr string) (bool, string) {
	if ok, reason := r.ValidateDate(dateStr); !ok {
		return false, reason
	}

	hour, minute, ok := parseClock(timeStr)
	if !ok {
		return false, "I couldn't understand the time format. Please use formats like '2:30 PM' or '14:30'."
	}

	if hour < r.cfg.OpenHour {
		return false, fmt.Sprintf(
			"**Outside Business Hours:** Our appointments start at **%s**.\n\nYou selected **%s**.",
			formatHour(r.cfg.OpenHour), timeStr)
	}
	if hour >= r.cfg.CloseHour {
		return false, fmt.Sprintf(
			"**Outside Business Hours:** Our last appointments are at **%s**.\n\nYou selected **%s**.",
			formatHour(r.cfg.CloseHour), timeStr)
	}
	if !r.minutes[minute] {
		return false, "We schedule appointments on the hour or half hour only. Please choose a time like '2:00 PM' or '2:30 PM'."
	}

	return true, ""
}

// AvailableSlots lists every bookable time for a business day.
func (r *Rules) AvailableSlots() []string {
	var slots []string
	for hour := r.cfg.OpenHour; hour < r.cfg.CloseHour; hour++ {
		for _, minute := range r.cfg.SlotMinutes {
			slots = append(slots, formatClock(hour, minute))
		}
	}
	return slots
}

// ServiceTypes returns the configured bookable services in menu order.
func (r *Rules) ServiceTypes() []string {
	return r.cfg.ServiceTypes
}

// ServiceByIndex resolves a 1-based menu digit to a service type.
func (r *Rules) ServiceByIndex(n int) (string, bool) {
	if n < 1 || n > len(r.cfg.ServiceTypes) {
		return "", false
	}
	return r.cfg.ServiceTypes[n-1], true
}

// IsKnownService reports whether the value is a configured service type.
func (r *Rules) IsKnownService(value string) bool {
	lower := strings.ToLower(strings.TrimSpace(value))
	for _, svc := range r.cfg.ServiceTypes {
		if lower == svc {
			return true
		}
	}
	return false
}

func parseClock(timeStr string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(timeStr)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	switch strings.ToUpper(m[3]) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, true
}

func formatHour(hour int) string {
	return formatClock(hour, 0)
}

func formatClock(hour, minute int) string {
	suffix := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		display = hour - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, suffix)
}
