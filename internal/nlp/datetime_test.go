// internal/nlp/datetime_test.go
package nlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday, June 10 2026.
var fixedNow = time.Date(2026, time.June, 10, 10, 0, 0, 0, time.UTC)

func fixedParser() *DateTimeParser {
	return NewDateTimeParserAt(func() time.Time { return fixedNow })
}

func TestParseDate(t *testing.T) {
	p := fixedParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"today", "can we do today", "2026-06-10"},
		{"tomorrow", "tomorrow please", "2026-06-11"},
		{"weekday resolves forward", "friday", "2026-06-12"},
		{"same weekday goes to next week", "wednesday", "2026-06-17"},
		{"next weekday adds a week", "next friday", "2026-06-19"},
		{"month day", "December 15", "2026-12-15"},
		{"month day ordinal", "june 15th", "2026-06-15"},
		{"past month day rolls to next year", "January 5", "2027-01-05"},
		{"iso date", "2026-06-13", "2026-06-13"},
		{"numeric date", "12/15", "2026-12-15"},
		{"numeric date with year", "12-15-2026", "2026-12-15"},
		{"in n days", "in 3 days", "2026-06-13"},
		{"unparseable", "whenever", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ParseDate(tt.input))
		})
	}
}

func TestParseDate_TwoWeekdaysResolveConsistently(t *testing.T) {
	p := fixedParser()

	// Monday precedes friday in the lookup table, so it must win every time.
	for i := 0; i < 200; i++ {
		assert.Equal(t, "2026-06-15", p.ParseDate("monday or friday works for me"))
	}
}

func TestParseTime(t *testing.T) {
	p := fixedParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clock with am pm", "3:30 pm", "3:30 PM"},
		{"dotted clock", "3.30pm", "3:30 PM"},
		{"bare hour pm", "8pm", "8:00 PM"},
		{"hour with space", "11 am", "11:00 AM"},
		{"dotted abbreviation", "9 a.m.", "9:00 AM"},
		{"twenty four hour", "14:00", "2:00 PM"},
		{"morning", "morning works", "9:00 AM"},
		{"afternoon", "sometime in the afternoon", "2:00 PM"},
		{"noon", "noon", "12:00 PM"},
		{"bare clock assumes pm for early hours", "3:30", "3:30 PM"},
		{"bare clock morning hours", "9:30", "9:30 AM"},
		{"unparseable", "whenever", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.ParseTime(tt.input))
		})
	}
}

func TestParseCombined(t *testing.T) {
	p := fixedParser()

	date, timeOfDay, ok := p.ParseCombined("next tuesday afternoon")
	assert.True(t, ok)
	assert.Equal(t, "2026-06-23", date)
	assert.Equal(t, "2:00 PM", timeOfDay)

	date, timeOfDay, ok = p.ParseCombined("tomorrow morning")
	assert.True(t, ok)
	assert.Equal(t, "2026-06-11", date)
	assert.Equal(t, "9:00 AM", timeOfDay)

	_, _, ok = p.ParseCombined("no schedule here")
	assert.False(t, ok)
}

func TestParseClock(t *testing.T) {
	hour, minute, err := ParseClock("3:30 PM")
	assert.NoError(t, err)
	assert.Equal(t, 15, hour)
	assert.Equal(t, 30, minute)

	_, _, err = ParseClock("not a time")
	assert.Error(t, err)
}
