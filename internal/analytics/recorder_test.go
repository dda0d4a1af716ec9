// internal/analytics/recorder_test.go
package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

var analyticsNow = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	recorder := NewRecorder(logger.NewTestLogger(t))
	recorder.now = func() time.Time { return analyticsNow }
	return recorder
}

func event(userID string, intent models.Intent, ms int64, escalated bool, at time.Time) models.TurnEvent {
	return models.TurnEvent{
		UserID:          userID,
		Intent:          intent,
		ResponseTimeMs:  ms,
		NeedsEscalation: escalated,
		Confidence:      0.9,
		Timestamp:       at,
	}
}

func TestOverview_Aggregates(t *testing.T) {
	recorder := newTestRecorder(t)

	recorder.Record(event("user-1", models.IntentGreeting, 10, false, analyticsNow.Add(-time.Hour)))
	recorder.Record(event("user-1", models.IntentKnowledgeBase, 30, false, analyticsNow.Add(-30*time.Minute)))
	recorder.Record(event("user-2", models.IntentKnowledgeBase, 50, true, analyticsNow.Add(-10*time.Minute)))
	recorder.Record(event("user-3", models.IntentAction, 20, false, analyticsNow.Add(-48*time.Hour)))

	overview := recorder.Overview()
	assert.Equal(t, 4, overview.TotalTurns)
	assert.Equal(t, 3, overview.TotalUsers)
	assert.Equal(t, 2, overview.ActiveUsersToday)
	assert.InDelta(t, 27.5, overview.AvgResponseTimeMs, 1e-9)
	assert.InDelta(t, 25.0, overview.EscalationRate, 1e-9)
	assert.Equal(t, 2, overview.IntentCounts["knowledge_base"])

	require.NotEmpty(t, overview.TopIntents)
	assert.Equal(t, "knowledge_base", overview.TopIntents[0].Intent)
}

func TestOverview_WindowsToRecentTurns(t *testing.T) {
	recorder := newTestRecorder(t)

	// Old escalations scroll out of the window; only the fresh turns count.
	for i := 0; i < recentWindow; i++ {
		recorder.Record(event("user-1", models.IntentEscalation, 10, true, analyticsNow.Add(-2*time.Hour)))
	}
	for i := 0; i < recentWindow; i++ {
		recorder.Record(event("user-1", models.IntentGreeting, 10, false, analyticsNow))
	}

	overview := recorder.Overview()
	assert.Equal(t, 2*recentWindow, overview.TotalTurns)
	assert.Zero(t, overview.EscalationRate)
	assert.Zero(t, overview.IntentCounts["escalation"])
}

func TestUserInsights(t *testing.T) {
	recorder := newTestRecorder(t)

	for i := 0; i < 12; i++ {
		recorder.Record(event("user-1", models.IntentKnowledgeBase, 40, false, analyticsNow.Add(time.Duration(i)*time.Minute)))
	}
	recorder.Record(event("user-1", models.IntentEscalation, 80, true, analyticsNow.Add(20*time.Minute)))

	insights, found := recorder.UserInsights("user-1")
	require.True(t, found)
	assert.Equal(t, 13, insights.TotalTurns)
	assert.Equal(t, "knowledge_base", insights.MostCommonIntent)
	assert.Equal(t, 1, insights.EscalationCount)
	assert.Equal(t, analyticsNow.Add(20*time.Minute), insights.LastInteraction)

	_, found = recorder.UserInsights("nobody")
	assert.False(t, found)
}

func TestPrune(t *testing.T) {
	recorder := newTestRecorder(t)

	recorder.Record(event("user-1", models.IntentGreeting, 10, false, analyticsNow.Add(-40*24*time.Hour)))
	recorder.Record(event("user-2", models.IntentGreeting, 10, false, analyticsNow.Add(-time.Hour)))

	removed := recorder.Prune(30 * 24 * time.Hour)
	assert.Equal(t, 1, removed)

	overview := recorder.Overview()
	assert.Equal(t, 1, overview.TotalTurns)
	assert.Equal(t, 1, overview.TotalUsers)

	_, found := recorder.UserInsights("user-1")
	assert.False(t, found)
}

func TestRecord_FillsMissingTimestamp(t *testing.T) {
	recorder := newTestRecorder(t)
	recorder.Record(models.TurnEvent{UserID: "user-1", Intent: models.IntentGreeting})

	insights, found := recorder.UserInsights("user-1")
	require.True(t, found)
	assert.Equal(t, analyticsNow, insights.LastInteraction)
}

func TestRankIntents_Determinism(t *testing.T) {
	counts := map[string]int{"greeting": 2, "action": 2, "escalation": 1}
	ranked := rankIntents(counts, 5)
	require.Len(t, ranked, 3)
	assert.Equal(t, IntentCount{Intent: "action", Count: 2}, ranked[0])
	assert.Equal(t, IntentCount{Intent: "greeting", Count: 2}, ranked[1])
}

func BenchmarkRecord(b *testing.B) {
	recorder := NewRecorder(logger.NewNoOpLogger())
	for i := 0; i < b.N; i++ {
		recorder.Record(event(fmt.Sprintf("user-%d", i%100), models.IntentKnowledgeBase, 25, false, time.Now()))
	}
}
