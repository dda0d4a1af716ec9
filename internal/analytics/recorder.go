// internal/analytics/recorder.go

// Package analytics keeps an in-memory record of processed turns and derives
// the operational insights the admin API serves: intent distribution,
// response times, escalation rates and activity by hour.
package analytics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

// Recorder implements the orchestrator's EventRecorder. All reads and writes
// go through one mutex; events arrive once per turn, so contention is low.
type Recorder struct {
	mu     sync.Mutex
	events []models.TurnEvent
	byUser map[string][]models.TurnEvent
	log    logger.Logger
	now    func() time.Time
}

// NewRecorder builds an empty recorder.
func NewRecorder(log logger.Logger) *Recorder {
	return &Recorder{
		byUser: make(map[string][]models.TurnEvent),
		log:    log,
		now:    time.Now,
	}
}

// Record stores one turn event.
func (r *Recorder) Record(event models.TurnEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	if event.UserID != "" {
		r.byUser[event.UserID] = append(r.byUser[event.UserID], event)
	}
}

// IntentCount is one entry of a ranked intent distribution.
type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

// HourCount is one entry of an hourly activity breakdown.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// Overview aggregates recent activity across all users.
type Overview struct {
	TotalTurns        int            `json:"totalTurns"`
	TotalUsers        int            `json:"totalUsers"`
	ActiveUsersToday  int            `json:"activeUsersToday"`
	AvgResponseTimeMs float64        `json:"averageResponseTimeMs"`
	EscalationRate    float64        `json:"escalationRate"` // percent
	IntentCounts      map[string]int `json:"intentDistribution"`
	TopIntents        []IntentCount  `json:"topIntents"`
	PeakHours         []HourCount    `json:"peakHours"`
}

// recentWindow bounds the aggregates to the latest activity, matching the
// support team's "what is happening now" question rather than all-time stats.
const recentWindow = 50

// Overview summarizes the most recent turns.
func (r *Recorder) Overview() Overview {
	r.mu.Lock()
	defer r.mu.Unlock()

	recent := r.events
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}

	overview := Overview{
		TotalTurns:   len(r.events),
		TotalUsers:   len(r.byUser),
		IntentCounts: make(map[string]int),
	}

	hourly := make(map[string]int)
	activeToday := make(map[string]bool)
	cutoff := r.now().Add(-24 * time.Hour)

	var totalMs int64
	var timed, escalated int
	for _, event := range recent {
		overview.IntentCounts[string(event.Intent)]++
		hourly[fmt.Sprintf("%02d:00", event.Timestamp.UTC().Hour())]++
		if event.ResponseTimeMs > 0 {
			totalMs += event.ResponseTimeMs
			timed++
		}
		if event.NeedsEscalation {
			escalated++
		}
		if event.UserID != "" && event.Timestamp.After(cutoff) {
			activeToday[event.UserID] = true
		}
	}

	if timed > 0 {
		overview.AvgResponseTimeMs = float64(totalMs) / float64(timed)
	}
	if len(recent) > 0 {
		overview.EscalationRate = float64(escalated) / float64(len(recent)) * 100
	}
	overview.ActiveUsersToday = len(activeToday)
	overview.TopIntents = rankIntents(overview.IntentCounts, 5)
	overview.PeakHours = rankHours(hourly, 3)
	return overview
}

// UserInsights summarizes one user's recent turns.
type UserInsights struct {
	UserID            string         `json:"userId"`
	TotalTurns        int            `json:"totalTurns"`
	MostCommonIntent  string         `json:"mostCommonIntent"`
	IntentCounts      map[string]int `json:"intentDistribution"`
	AvgResponseTimeMs float64        `json:"averageResponseTimeMs"`
	EscalationCount   int            `json:"escalationCount"`
	LastInteraction   time.Time      `json:"lastInteraction"`
}

// userWindow bounds per-user insights to the latest turns.
const userWindow = 10

// UserInsights reports on a single user; ok is false when the user has no
// recorded turns.
func (r *Recorder) UserInsights(userID string) (UserInsights, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, found := r.byUser[userID]
	if !found || len(events) == 0 {
		return UserInsights{UserID: userID}, false
	}

	insights := UserInsights{
		UserID:          userID,
		TotalTurns:      len(events),
		IntentCounts:    make(map[string]int),
		LastInteraction: events[len(events)-1].Timestamp,
	}

	recent := events
	if len(recent) > userWindow {
		recent = recent[len(recent)-userWindow:]
	}

	var totalMs int64
	var timed int
	for _, event := range recent {
		insights.IntentCounts[string(event.Intent)]++
		if event.ResponseTimeMs > 0 {
			totalMs += event.ResponseTimeMs
			timed++
		}
		if event.NeedsEscalation {
			insights.EscalationCount++
		}
	}

	if timed > 0 {
		insights.AvgResponseTimeMs = float64(totalMs) / float64(timed)
	}
	if ranked := rankIntents(insights.IntentCounts, 1); len(ranked) > 0 {
		insights.MostCommonIntent = ranked[0].Intent
	}
	return insights, true
}

// Prune drops events older than the retention period and rebuilds the user
// index. Returns the number of events removed.
func (r *Recorder) Prune(retention time.Duration) int {
	cutoff := r.now().Add(-retention)

	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	for _, event := range r.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}
	removed := len(r.events) - len(kept)
	if removed == 0 {
		return 0
	}

	r.events = kept
	r.byUser = make(map[string][]models.TurnEvent)
	for _, event := range r.events {
		if event.UserID != "" {
			r.byUser[event.UserID] = append(r.byUser[event.UserID], event)
		}
	}

	r.log.Info("pruned analytics events", map[string]interface{}{
		"removed":   removed,
		"retention": retention.String(),
	})
	return removed
}

func rankIntents(counts map[string]int, limit int) []IntentCount {
	ranked := make([]IntentCount, 0, len(counts))
	for intent, count := range counts {
		ranked = append(ranked, IntentCount{Intent: intent, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Intent < ranked[j].Intent
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankHours(counts map[string]int, limit int) []HourCount {
	ranked := make([]HourCount, 0, len(counts))
	for hour, count := range counts {
		ranked = append(ranked, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Hour < ranked[j].Hour
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
