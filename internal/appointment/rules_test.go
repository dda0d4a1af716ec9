// internal/appointment/rules_test.go
package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care-chatbot/internal/common/config"
)

// 2026-06-10 is a Wednesday.
var fixedNow = time.Date(2026, time.June, 10, 10, 0, 0, 0, time.UTC)

func testRulesConfig() config.AppointmentConfig {
	return config.AppointmentConfig{
		OpenHour:     9,
		CloseHour:    18,
		SlotMinutes:  []int{0, 30},
		Weekdays:     []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		ServiceTypes: []string{"consultation", "support", "installation", "maintenance", "training"},
		MaxDaysAhead: 60,
	}
}

func newTestRules() *Rules {
	rules := NewRules(testRulesConfig())
	rules.now = func() time.Time { return fixedNow }
	return rules
}

func TestValidateDate(t *testing.T) {
	rules := newTestRules()

	tests := []struct {
		name     string
		date     string
		wantOK   bool
		contains string
	}{
		{"weekday ahead", "2026-06-12", true, ""},
		{"same day", "2026-06-10", true, ""},
		{"saturday", "2026-06-13", false, "Weekend"},
		{"sunday", "2026-06-14", false, "Weekend"},
		{"past date", "2026-06-08", false, "in the past"},
		{"too far ahead", "2026-09-15", false, "60 days"},
		{"garbage", "next tuesday", false, "YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := rules.ValidateDate(tt.date)
			assert.Equal(t, tt.wantOK, ok)
			if tt.contains != "" {
				assert.Contains(t, reason, tt.contains)
			}
		})
	}
}

func TestValidateSlot(t *testing.T) {
	rules := newTestRules()

	tests := []struct {
		name      string
		timeOfDay string
		wantOK    bool
		contains  string
	}{
		{"mid-day slot", "3:00 PM", true, ""},
		{"half hour slot", "10:30 AM", true, ""},
		{"opening slot", "9:00 AM", true, ""},
		{"before opening", "8:00 AM", false, "start at"},
		{"after closing", "6:30 PM", false, "last appointments"},
		{"off-grid minutes", "2:15 PM", false, "hour or half hour"},
		{"unparseable", "whenever", false, "time format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := rules.ValidateSlot("2026-06-12", tt.timeOfDay)
			assert.Equal(t, tt.wantOK, ok)
			if tt.contains != "" {
				assert.Contains(t, reason, tt.contains)
			}
		})
	}
}

func TestValidateSlot_WeekendDateRejectedFirst(t *testing.T) {
	rules := newTestRules()

	ok, reason := rules.ValidateSlot("2026-06-13", "3:00 PM")
	assert.False(t, ok)
	assert.Contains(t, reason, "Weekend")
}

func TestAvailableSlots(t *testing.T) {
	rules := newTestRules()

	slots := rules.AvailableSlots()
	require.Len(t, slots, 18)
	assert.Equal(t, "9:00 AM", slots[0])
	assert.Equal(t, "5:30 PM", slots[len(slots)-1])
}

func TestServiceByIndex(t *testing.T) {
	rules := newTestRules()

	svc, ok := rules.ServiceByIndex(1)
	require.True(t, ok)
	assert.Equal(t, "consultation", svc)

	svc, ok = rules.ServiceByIndex(5)
	require.True(t, ok)
	assert.Equal(t, "training", svc)

	_, ok = rules.ServiceByIndex(6)
	assert.False(t, ok)
	_, ok = rules.ServiceByIndex(0)
	assert.False(t, ok)
}

func TestIsKnownService(t *testing.T) {
	rules := newTestRules()

	assert.True(t, rules.IsKnownService("Consultation"))
	assert.True(t, rules.IsKnownService(" support "))
	assert.False(t, rules.IsKnownService("massage"))
}
