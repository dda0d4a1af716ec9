// internal/nlp/datetime.go
package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateTimeParser resolves natural-language date and time phrases into
// normalized values ("2006-01-02" dates, "3:04 PM" times).
type DateTimeParser struct {
	now func() time.Time
}

// NewDateTimeParser creates a parser anchored to the system clock.
func NewDateTimeParser() *DateTimeParser {
	return &DateTimeParser{now: time.Now}
}

// NewDateTimeParserAt creates a parser with a fixed clock, for tests.
func NewDateTimeParserAt(now func() time.Time) *DateTimeParser {
	return &DateTimeParser{now: now}
}

// Ordered tables so a message naming two days or months always resolves
// to the first entry listed here.
var daysOfWeek = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday}, {"mon", time.Monday},
	{"tuesday", time.Tuesday}, {"tue", time.Tuesday}, {"tues", time.Tuesday},
	{"wednesday", time.Wednesday}, {"wed", time.Wednesday},
	{"thursday", time.Thursday}, {"thu", time.Thursday}, {"thur", time.Thursday}, {"thurs", time.Thursday},
	{"friday", time.Friday}, {"fri", time.Friday},
	{"saturday", time.Saturday}, {"sat", time.Saturday},
	{"sunday", time.Sunday}, {"sun", time.Sunday},
}

var monthNames = []struct {
	name  string
	month time.Month
}{
	{"january", time.January}, {"jan", time.January},
	{"february", time.February}, {"feb", time.February},
	{"march", time.March}, {"mar", time.March},
	{"april", time.April}, {"apr", time.April},
	{"may", time.May},
	{"june", time.June}, {"jun", time.June},
	{"july", time.July}, {"jul", time.July},
	{"august", time.August}, {"aug", time.August},
	{"september", time.September}, {"sep", time.September}, {"sept", time.September},
	{"october", time.October}, {"oct", time.October},
	{"november", time.November}, {"nov", time.November},
	{"december", time.December}, {"dec", time.December},
}

// timePeriods maps descriptive words to canonical slot times.
var timePeriods = []struct {
	word  string
	value string
}{
	{"morning", "9:00 AM"},
	{"afternoon", "2:00 PM"},
	{"evening", "6:00 PM"},
	{"noon", "12:00 PM"},
	{"midnight", "12:00 AM"},
}

var (
	monthDayRe    = regexp.MustCompile(`\b(\d{1,2})(?:\s|st|nd|rd|th)?\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDateRe = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?`)
	inDaysRe      = regexp.MustCompile(`in\s+(\d+)\s+days?`)

	clockAmPmRe  = regexp.MustCompile(`(?i)(\d{1,2})[.:](\d{2})\s*(am|pm|a\.m\.|p\.m\.)`)
	hourAmPmRe   = regexp.MustCompile(`(?i)(\d{1,2})\s*(am|pm|a\.m\.|p\.m\.)`)
	bareClockRe  = regexp.MustCompile(`(\d{1,2})[.:](\d{2})`)
	dayPeriodRe  = regexp.MustCompile(`(next|this|following)\s+(\w+)\s+(morning|afternoon|evening|noon)`)
	wordPeriodRe = regexp.MustCompile(`(\w+)\s+(morning|afternoon|evening)`)
	relPeriodRe  = regexp.MustCompile(`(today|tomorrow)\s+(morning|afternoon|evening)`)
)

// ParseDate resolves a date phrase to an ISO date, or empty when nothing parses.
func (p *DateTimeParser) ParseDate(text string) string {
	today := p.now()
	lower := strings.ToLower(strings.TrimSpace(text))

	if strings.Contains(lower, "today") {
		return today.Format("2006-01-02")
	}
	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1).Format("2006-01-02")
	}

	// Weekday names: "friday", "next tuesday". Always resolves forward.
	for _, entry := range daysOfWeek {
		if !containsWord(lower, entry.name) {
			continue
		}
		daysAhead := int(entry.day) - int(today.Weekday())
		if daysAhead <= 0 {
			daysAhead += 7
		}
		if strings.Contains(lower, "next") {
			daysAhead += 7
		}
		return today.AddDate(0, 0, daysAhead).Format("2006-01-02")
	}

	// Month-day phrases: "December 15", "dec 15th".
	for _, entry := range monthNames {
		if !containsWord(lower, entry.name) {
			continue
		}
		m := monthDayRe.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		candidate := time.Date(today.Year(), entry.month, day, 0, 0, 0, 0, today.Location())
		if candidate.Day() != day {
			return "" // e.g. February 30
		}
		if candidate.Before(today) {
			candidate = time.Date(today.Year()+1, entry.month, day, 0, 0, 0, 0, today.Location())
		}
		return candidate.Format("2006-01-02")
	}

	// ISO dates: 2026-12-15.
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 {
			return ""
		}
		candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
		if candidate.Day() != day || candidate.Month() != time.Month(month) {
			return ""
		}
		return candidate.Format("2006-01-02")
	}

	// Numeric formats: 12/15, 12-15-2024.
	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := today.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if month < 1 || month > 12 {
			return ""
		}
		candidate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, today.Location())
		if candidate.Day() != day || candidate.Month() != time.Month(month) {
			return ""
		}
		if candidate.Before(today) && m[3] == "" {
			candidate = candidate.AddDate(1, 0, 0)
		}
		return candidate.Format("2006-01-02")
	}

	// "in 3 days"
	if m := inDaysRe.FindStringSubmatch(lower); m != nil {
		days, _ := strconv.Atoi(m[1])
		return today.AddDate(0, 0, days).Format("2006-01-02")
	}

	return ""
}

// ParseTime resolves a time phrase to "H:MM AM/PM", or empty when nothing parses.
func (p *DateTimeParser) ParseTime(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, period := range timePeriods {
		if strings.Contains(lower, period.word) {
			return period.value
		}
	}

	// "3:30 pm", "3.30pm"
	if m := clockAmPmRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%d:%s %s", hour, m[2], normalizeAmPm(m[3]))
	}

	// "8pm", "11 am"
	if m := hourAmPmRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%d:00 %s", hour, normalizeAmPm(m[2]))
	}

	// "8:30" without am/pm; hours below 8 are assumed afternoon.
	if m := bareClockRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := m[2]
		switch {
		case hour < 8:
			return fmt.Sprintf("%d:%s PM", hour, minute)
		case hour < 12:
			return fmt.Sprintf("%d:%s AM", hour, minute)
		default:
			display := hour
			if display > 12 {
				display -= 12
			}
			if display == 0 {
				display = 12
			}
			return fmt.Sprintf("%d:%s PM", display, minute)
		}
	}

	return ""
}

// ParseCombined resolves phrases like "next Tuesday afternoon" into a
// (date, time) pair. Returns ok=false when nothing matches.
func (p *DateTimeParser) ParseCombined(text string) (date, timeOfDay string, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	if m := dayPeriodRe.FindStringSubmatch(lower); m != nil {
		date = p.ParseDate("next " + m[2])
		if m[1] == "this" {
			date = p.ParseDate(m[2])
		}
		if date != "" {
			return date, periodTime(m[3]), true
		}
	}

	if m := relPeriodRe.FindStringSubmatch(lower); m != nil {
		date = p.ParseDate(m[1])
		if date != "" {
			return date, periodTime(m[2]), true
		}
	}

	if m := wordPeriodRe.FindStringSubmatch(lower); m != nil {
		date = p.ParseDate(m[1])
		if date != "" {
			return date, periodTime(m[2]), true
		}
	}

	return "", "", false
}

// ParseClock converts a normalized "H:MM AM/PM" string into hour/minute.
func ParseClock(value string) (hour, minute int, err error) {
	t, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return 0, 0, fmt.Errorf("unparseable time %q: %w", value, err)
	}
	return t.Hour(), t.Minute(), nil
}

func normalizeAmPm(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "a") {
		return "AM"
	}
	return "PM"
}

func periodTime(period string) string {
	for _, p := range timePeriods {
		if p.word == period {
			return p.value
		}
	}
	return "2:00 PM"
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
