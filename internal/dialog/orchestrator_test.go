// internal/dialog/orchestrator_test.go
package dialog

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"care-chatbot/internal/appointment"
	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/escalation"
	"care-chatbot/internal/intent"
	"care-chatbot/internal/models"
	"care-chatbot/internal/nlp"
	"care-chatbot/internal/retrieval"
)

type captureRecorder struct {
	mu     sync.Mutex
	events []models.TurnEvent
}

func (c *captureRecorder) Record(event models.TurnEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureRecorder) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

type captureObserver struct {
	mu        sync.Mutex
	processed []string
	durations int
}

func (c *captureObserver) RecordTurnProcessed(_ context.Context, intent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed = append(c.processed, intent)
}

func (c *captureObserver) RecordTurnDuration(_ context.Context, _ time.Duration, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations++
}

type testHarness struct {
	orchestrator *Orchestrator
	store        *appointment.MemoryStore
	escalation   *escalation.Engine
	recorder     *captureRecorder
	observer     *captureObserver
	redis        *miniredis.Miniredis
}

var knowledgeDocs = []models.KnowledgeDocument{
	{
		ID: "pricing-001",
		Content: "Our pricing plans include a Starter plan at $49 per month and a Business plan " +
			"at $149 per month. All pricing tiers include email support and a 30-day free trial. " +
			"Annual subscription plans receive two months free.",
		Metadata: models.DocumentMetadata{Title: "Pricing Guide", Category: "pricing", Source: "pricing.md"},
	},
	{
		ID: "support-001",
		Content: "To troubleshoot connection issues, first restart the application and check your " +
			"network settings. If the problem persists, our support team can help you resolve " +
			"configuration errors and installation failures.",
		Metadata: models.DocumentMetadata{Title: "Troubleshooting", Category: "support", Source: "support.md"},
	},
}

func appointmentConfig() config.AppointmentConfig {
	return config.AppointmentConfig{
		OpenHour:     9,
		CloseHour:    18,
		SlotMinutes:  []int{0, 30},
		Weekdays:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		ServiceTypes: []string{"consultation", "support", "installation", "maintenance", "training"},
		MaxDaysAhead: 60,
	}
}

func newTestHarness(t *testing.T) *testHarness {
	log := logger.NewTestLogger(t)
	analyzer := nlp.NewAnalyzer()

	engine := retrieval.NewEngine(
		retrieval.NewLocalEmbedder(128),
		retrieval.NewMemoryIndex(),
		retrieval.Options{ChunkSize: 300, ChunkOverlap: 50, TopK: 3, ScoreThreshold: 0.05},
		log,
	)
	ctx := context.Background()
	for _, doc := range knowledgeDocs {
		_, err := engine.IndexDocument(ctx, doc)
		require.NoError(t, err)
	}

	escalationEngine := escalation.NewEngine(analyzer, config.EscalationConfig{
		FrustrationThreshold: 0.7,
		FailureLimit:         3,
		FailureWindow:        1800,
	}, log)

	store := appointment.NewMemoryStore()
	flow := appointment.NewFlow(appointment.NewRules(appointmentConfig()), store, analyzer, nil, log)

	mr := miniredis.RunT(t)
	cache := NewAnswerCache(
		redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		config.RetrievalConfig{AnswerCacheEnabled: true, AnswerCacheTTL: 300},
		log,
	)

	recorder := &captureRecorder{}
	observer := &captureObserver{}

	orchestrator := NewOrchestrator(Deps{
		Classifier:   intent.NewClassifier(analyzer, log),
		Retrieval:    engine,
		Escalation:   escalationEngine,
		Flow:         flow,
		Appointments: store,
		Sessions:     NewSessionStore(config.SessionConfig{TTL: 3600, SweepInterval: 300, MaxHistory: 20}, log),
		Cache:        cache,
		Recorder:     recorder,
		Observer:     observer,
		Log:          log,
	})

	return &testHarness{
		orchestrator: orchestrator,
		store:        store,
		escalation:   escalationEngine,
		recorder:     recorder,
		observer:     observer,
		redis:        mr,
	}
}

func (h *testHarness) turn(userID, message string) models.TurnResponse {
	return h.orchestrator.HandleTurn(context.Background(), models.TurnRequest{UserID: userID, Message: message})
}

// nextWeekday returns the next occurrence of the given weekday, always in
// the future.
func nextWeekday(day time.Weekday) string {
	d := time.Now()
	for {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() == day {
			return d.Format("2006-01-02")
		}
	}
}

func TestHandleTurn_Greeting(t *testing.T) {
	h := newTestHarness(t)

	resp := h.turn("user-1", "hello")

	assert.Equal(t, models.IntentGreeting, resp.Intent)
	assert.Contains(t, resp.ResponseText, "Welcome to Customer Care")
	assert.False(t, resp.NeedsEscalation)
	assert.Equal(t, 1, h.recorder.len())

	history := h.orchestrator.History("user-1")
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].UserText)
}

func TestHandleTurn_ObserverReceivesEveryTurn(t *testing.T) {
	h := newTestHarness(t)

	h.turn("user-1", "hello")
	h.turn("user-1", "what are your pricing plans")

	h.observer.mu.Lock()
	defer h.observer.mu.Unlock()
	assert.Equal(t, []string{"greeting", "knowledge_base"}, h.observer.processed)
	assert.Equal(t, 2, h.observer.durations)
}

func TestHandleTurn_Goodbye(t *testing.T) {
	h := newTestHarness(t)

	resp := h.turn("user-1", "goodbye")

	assert.Equal(t, models.IntentGoodbye, resp.Intent)
	assert.Contains(t, resp.ResponseText, "Thank you for contacting us")
}

func TestHandleTurn_KnowledgeAnswerWithMenu(t *testing.T) {
	h := newTestHarness(t)

	resp := h.turn("user-1", "what are your pricing plans")

	assert.Equal(t, models.IntentKnowledgeBase, resp.Intent)
	assert.Contains(t, resp.ResponseText, "pricing information")
	assert.Contains(t, resp.ResponseText, "Pricing Guide")
	// Knowledge answers end with a numbered menu for the next turn.
	assert.Contains(t, resp.ResponseText, "Reply with 1, 2, 3, or 4.")
}

func TestHandleTurn_KnowledgeAnswerIsCached(t *testing.T) {
	h := newTestHarness(t)

	first := h.turn("user-1", "what are your pricing plans")
	require.Len(t, h.redis.Keys(), 1)

	second := h.turn("user-2", "what are your pricing plans")
	assert.Equal(t, first.ResponseText, second.ResponseText)
	assert.Len(t, h.redis.Keys(), 1)
}

func TestHandleTurn_MenuSelectionEscalates(t *testing.T) {
	h := newTestHarness(t)

	h.turn("user-1", "what are your pricing plans")
	resp := h.turn("user-1", "4")

	assert.True(t, resp.NeedsEscalation)
	assert.Equal(t, models.IntentEscalation, resp.Intent)
	assert.True(t, strings.HasPrefix(resp.EscalationTicketID, "ESC-"))

	queue := h.escalation.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, models.TicketPending, queue[0].Status)
}

func TestHandleTurn_MenuSelectionStartsSupportFlow(t *testing.T) {
	h := newTestHarness(t)

	h.turn("user-1", "how do I troubleshoot connection issues")
	resp := h.turn("user-1", "2")

	assert.Equal(t, models.IntentAction, resp.Intent)
	assert.True(t, resp.ActionRequired)
	// Service type is preset to support, so the flow asks for a date next.
	assert.Contains(t, resp.ResponseText, "when would you like your appointment")
}

func TestHandleTurn_ExplicitEscalation(t *testing.T) {
	h := newTestHarness(t)

	resp := h.turn("user-1", "I want to talk to a human agent right now")

	assert.True(t, resp.NeedsEscalation)
	assert.Equal(t, models.IntentEscalation, resp.Intent)
	assert.NotEmpty(t, resp.EscalationTicketID)
	assert.Len(t, h.escalation.UserHistory("user-1"), 1)
}

func TestHandleTurn_FullBookingConversation(t *testing.T) {
	h := newTestHarness(t)
	date := nextWeekday(time.Monday)

	resp := h.turn("user-1", "I want to schedule an appointment")
	assert.Contains(t, resp.ResponseText, "What type of service")

	resp = h.turn("user-1", "2")
	assert.Contains(t, resp.ResponseText, "when would you like your appointment")

	resp = h.turn("user-1", date)
	assert.Contains(t, resp.ResponseText, "What time")

	resp = h.turn("user-1", "10:00 AM")
	assert.Contains(t, resp.ResponseText, "name")

	resp = h.turn("user-1", "John Smith")
	assert.Contains(t, resp.ResponseText, "email")

	resp = h.turn("user-1", "john@example.com")
	assert.Contains(t, resp.ResponseText, "Is everything correct?")

	resp = h.turn("user-1", "yes")
	assert.Contains(t, resp.ResponseText, "Appointment Confirmed")

	booked, err := h.store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "support", booked[0].ServiceType)
	assert.Equal(t, date, booked[0].Date)
	assert.Equal(t, "10:00 AM", booked[0].Time)
}

func TestHandleTurn_ModifyExistingAppointment(t *testing.T) {
	h := newTestHarness(t)
	date := nextWeekday(time.Tuesday)

	existing := &models.Appointment{
		ID:           "APT-20260610-ABCD1234",
		UserID:       "user-1",
		ServiceType:  "consultation",
		Date:         date,
		Time:         "11:00 AM",
		CustomerName: "Jane Doe",
		Email:        "jane@example.com",
		Status:       models.AppointmentConfirmed,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, h.store.Create(context.Background(), existing))

	resp := h.turn("user-1", "I'd like to reschedule my appointment")
	assert.Contains(t, resp.ResponseText, "Modifying Appointment")
	assert.Contains(t, resp.ResponseText, existing.ID)

	resp = h.turn("user-1", "change the time")
	assert.Contains(t, resp.ResponseText, "What time")

	resp = h.turn("user-1", "2:30 PM")
	assert.Contains(t, resp.ResponseText, "Is everything correct?")

	resp = h.turn("user-1", "yes")
	assert.Contains(t, resp.ResponseText, "Successfully Updated")

	updated, err := h.store.GetByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "2:30 PM", updated.Time)
	assert.Equal(t, models.AppointmentUpdated, updated.Status)
}

func TestHandleTurn_ChangeRequestWithoutBooking(t *testing.T) {
	h := newTestHarness(t)

	resp := h.turn("user-1", "I want to change my appointment")

	assert.Contains(t, resp.ResponseText, "couldn't find any existing appointments")
}

func TestHandleTurn_RepeatedFailuresEscalate(t *testing.T) {
	h := newTestHarness(t)

	resp := h.turn("user-1", "that's not what I meant (1)")
	assert.False(t, resp.NeedsEscalation)

	resp = h.turn("user-1", "that's not what I meant (2)")
	assert.False(t, resp.NeedsEscalation)

	resp = h.turn("user-1", "that's not what I meant (3)")
	assert.True(t, resp.NeedsEscalation)
	assert.Equal(t, models.IntentEscalation, resp.Intent)
}

func TestHandleTurn_CancelMidFlow(t *testing.T) {
	h := newTestHarness(t)

	h.turn("user-1", "I want to schedule an appointment")
	resp := h.turn("user-1", "cancel")

	assert.Contains(t, resp.ResponseText, "cancelled")

	resp = h.turn("user-1", "hello")
	assert.Equal(t, models.IntentGreeting, resp.Intent)
}

func TestHandleTurn_MaskssPIIInHistory(t *testing.T) {
	h := newTestHarness(t)

	h.turn("user-1", "my email is jane.doe@example.com")

	history := h.orchestrator.History("user-1")
	require.Len(t, history, 1)
	assert.NotContains(t, history[0].UserText, "jane.doe@example.com")
	assert.Contains(t, history[0].UserText, "***@example.com")
}

func TestOrchestrator_ClearConversation(t *testing.T) {
	h := newTestHarness(t)

	h.turn("user-1", "hello")
	assert.Contains(t, h.orchestrator.ActiveConversations(), "user-1")

	assert.True(t, h.orchestrator.ClearConversation("user-1"))
	assert.Empty(t, h.orchestrator.ActiveConversations())
}
