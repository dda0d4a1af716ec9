// internal/dialog/orchestrator.go

// Package dialog wires the classifier, retrieval engine, escalation engine
// and appointment flow into a per-turn conversation pipeline.
package dialog

import (
	"context"
	"strings"
	"time"

	"care-chatbot/internal/appointment"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
	"care-chatbot/internal/common/security"
	"care-chatbot/internal/escalation"
	"care-chatbot/internal/intent"
	"care-chatbot/internal/models"
	"care-chatbot/internal/retrieval"
)

// EventRecorder receives one analytics event per processed turn.
type EventRecorder interface {
	Record(event models.TurnEvent)
}

// AlertSink pages the support channel about an escalation ticket.
type AlertSink interface {
	PublishEscalation(ctx context.Context, ticket *models.EscalationTicket) error
}

// TurnObserver receives the OTel-side per-turn measurements.
type TurnObserver interface {
	RecordTurnProcessed(ctx context.Context, intent string)
	RecordTurnDuration(ctx context.Context, duration time.Duration, intent string)
}

// Deps collects the orchestrator's collaborators. Cache, Recorder, Alerts and
// Observer may be nil; everything else is required.
type Deps struct {
	Classifier   *intent.Classifier
	Retrieval    *retrieval.Engine
	Escalation   *escalation.Engine
	Flow         *appointment.Flow
	Appointments appointment.Store
	Sessions     *SessionStore
	Cache        *AnswerCache
	Recorder     EventRecorder
	Alerts       AlertSink
	Observer     TurnObserver
	Log          logger.Logger
}

// Orchestrator routes each inbound message through sanitization,
// classification, the escalation check and the flow handlers.
type Orchestrator struct {
	classifier   *intent.Classifier
	retrieval    *retrieval.Engine
	escalation   *escalation.Engine
	flow         *appointment.Flow
	appointments appointment.Store
	sessions     *SessionStore
	cache        *AnswerCache
	recorder     EventRecorder
	alerts       AlertSink
	observer     TurnObserver
	log          logger.Logger
	now          func() time.Time
}

// NewOrchestrator builds the turn pipeline.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		classifier:   deps.Classifier,
		retrieval:    deps.Retrieval,
		escalation:   deps.Escalation,
		flow:         deps.Flow,
		appointments: deps.Appointments,
		sessions:     deps.Sessions,
		cache:        deps.Cache,
		recorder:     deps.Recorder,
		alerts:       deps.Alerts,
		observer:     deps.Observer,
		log:          deps.Log,
		now:          time.Now,
	}
}

var changeKeywords = []string{"change", "modify", "update", "edit", "reschedule"}

var appointmentNouns = []string{"appointment", "meeting", "booking", "demo"}

// HandleTurn processes one inbound message end to end. The session entry
// stays locked for the whole turn. Internal faults degrade to an apology
// flagged for escalation instead of propagating.
func (o *Orchestrator) HandleTurn(ctx context.Context, req models.TurnRequest) (resp models.TurnResponse) {
	started := o.now()

	defer func() {
		if r := recover(); r != nil {
			o.log.Error("panic while processing turn", map[string]interface{}{
				"user_id": req.UserID,
				"panic":   r,
			})
			metrics.TurnsFailed.WithLabelValues("panic").Inc()
			resp = models.TurnResponse{
				ResponseText:    apologyMessage(),
				Intent:          models.IntentUnknown,
				NeedsEscalation: true,
			}
		}
	}()

	message := security.SanitizeInput(strings.Trim(strings.TrimSpace(req.Message), `"'`))

	session := o.sessions.Acquire(req.UserID)
	session.Lock()
	defer session.Unlock()

	state := session.State
	state.MessageCount++

	details := o.classifier.GetDetails(message, intent.Context{
		LastBotMessage: state.LastBotMessage(),
		RecentMessages: state.RecentUserMessages(5),
	})
	state.LastIntent = details.Intent

	o.log.Info("turn received", map[string]interface{}{
		"user_id":    req.UserID,
		"intent":     string(details.Intent),
		"confidence": details.Confidence,
		"flow":       string(state.FlowState),
	})

	// The escalation check runs before any routing so a trigger fires
	// immediately no matter what flow the user is in.
	decision := o.escalation.Evaluate(req.UserID, message, details.Confidence, state)
	if decision.ShouldEscalate {
		resp = o.escalateNow(state, decision)
	} else {
		resp = o.route(ctx, state, message, details)
	}

	// A knowledge answer or greeting counts as a recovered conversation,
	// unless this very turn was the user correcting us.
	if (resp.Intent == models.IntentGreeting || resp.Intent == models.IntentKnowledgeBase) &&
		len(state.FailureReasons) > 0 &&
		!o.escalation.IsFailureTurn(message, details.Confidence) {
		o.escalation.ResetFailures(req.UserID)
		state.FailureReasons = nil
	}

	state.History = append(state.History, models.Turn{
		UserText:  security.MaskPII(message),
		BotText:   security.MaskPII(resp.ResponseText),
		Intent:    resp.Intent,
		Escalated: resp.NeedsEscalation,
		Timestamp: o.now().UTC(),
	})
	o.sessions.Touch(state)

	elapsed := o.now().Sub(started)
	metrics.TurnsProcessed.WithLabelValues(string(resp.Intent), string(state.FlowState)).Inc()
	metrics.TurnDuration.WithLabelValues(string(resp.Intent)).Observe(elapsed.Seconds())

	if o.observer != nil {
		o.observer.RecordTurnProcessed(ctx, string(resp.Intent))
		o.observer.RecordTurnDuration(ctx, elapsed, string(resp.Intent))
	}

	if o.recorder != nil {
		o.recorder.Record(models.TurnEvent{
			UserID:          req.UserID,
			Intent:          resp.Intent,
			ResponseTimeMs:  elapsed.Milliseconds(),
			NeedsEscalation: resp.NeedsEscalation,
			Confidence:      resp.Confidence,
			Timestamp:       o.now().UTC(),
		})
	}

	return resp
}

func (o *Orchestrator) route(ctx context.Context, state *models.ConversationState, message string, details models.IntentResult) models.TurnResponse {
	inFlow := state.FlowState != models.FlowNone

	// Menu selections only make sense outside the appointment flow; inside
	// it, a bare digit is a service-type answer.
	if details.Intent == models.IntentMenuSelection && !inFlow && !state.WaitingForConfirmation {
		return o.handleMenuSelection(ctx, state, message, details)
	}

	if state.WaitingForConfirmation || inFlow {
		return o.runFlow(ctx, state, message, details)
	}

	if isChangeRequest(message) {
		return o.handleChangeRequest(ctx, state, details)
	}

	switch details.Intent {
	case models.IntentAction:
		return o.runFlow(ctx, state, message, details)
	case models.IntentGreeting:
		return models.TurnResponse{ResponseText: greetingMessage(), Intent: models.IntentGreeting, Confidence: details.Confidence}
	case models.IntentGoodbye:
		return models.TurnResponse{ResponseText: goodbyeMessage(), Intent: models.IntentGoodbye, Confidence: details.Confidence}
	case models.IntentEscalation:
		return o.escalateNow(state, escalation.Decision{
			ShouldEscalate: true,
			Trigger:        escalation.TriggerExplicitRequest,
			Reason:         "User requested assistance",
			Priority:       models.PriorityHigh,
			Confidence:     details.Confidence,
		})
	}

	return o.answerKnowledge(ctx, state, message, details.Confidence)
}

func (o *Orchestrator) runFlow(ctx context.Context, state *models.ConversationState, message string, details models.IntentResult) models.TurnResponse {
	result := o.flow.Handle(ctx, state, message)

	if result.Booked != nil {
		o.escalation.ResetFailures(state.UserID)
		state.FailureReasons = nil
	}

	return models.TurnResponse{
		ResponseText:   result.Response,
		Intent:         models.IntentAction,
		ActionRequired: result.ActionRequired,
		Confidence:     details.Confidence,
	}
}

func (o *Orchestrator) handleMenuSelection(ctx context.Context, state *models.ConversationState, message string, details models.IntentResult) models.TurnResponse {
	menu := detectMenuType(state.LastBotMessage())
	action := resolveMenuSelection(strings.TrimSpace(message), menu)

	o.log.Debug("menu selection", map[string]interface{}{
		"user_id":   state.UserID,
		"selection": strings.TrimSpace(message),
		"menu":      string(menu),
	})

	switch {
	case action.escalate:
		return o.escalateNow(state, escalation.Decision{
			ShouldEscalate: true,
			Trigger:        escalation.TriggerExplicitRequest,
			Reason:         action.escalateReason,
			Priority:       models.PriorityHigh,
			Confidence:     1.0,
		})

	case action.startFlow:
		if action.presetService != "" {
			state.AppointmentData[models.SlotServiceType] = action.presetService
		}
		state.FlowState = models.FlowStarted
		result := o.flow.Handle(ctx, state, "")
		text := result.Response
		if action.response != "" {
			text = action.response + "\n\n" + result.Response
		}
		return models.TurnResponse{ResponseText: text, Intent: models.IntentAction, ActionRequired: true}

	case action.knowledgeQuery != "":
		return o.answerKnowledge(ctx, state, action.knowledgeQuery, details.Confidence)

	default:
		return models.TurnResponse{ResponseText: action.response, Intent: models.IntentMenuSelection, Confidence: details.Confidence}
	}
}

// handleChangeRequest loads the user's latest booking into the modify flow.
func (o *Orchestrator) handleChangeRequest(ctx context.Context, state *models.ConversationState, details models.IntentResult) models.TurnResponse {
	appointments, err := o.appointments.ListByUser(ctx, state.UserID)
	if err != nil {
		o.log.WithError(err).Error("appointment lookup failed", map[string]interface{}{
			"user_id": state.UserID,
		})
		metrics.TurnsFailed.WithLabelValues("appointment_lookup").Inc()
		return models.TurnResponse{ResponseText: apologyMessage(), Intent: models.IntentUnknown, NeedsEscalation: true}
	}

	var latest *models.Appointment
	for i := range appointments {
		if appointments[i].Status != models.AppointmentCancelled {
			latest = &appointments[i]
		}
	}
	if latest == nil {
		return models.TurnResponse{ResponseText: noAppointmentsMessage(), Intent: models.IntentKnowledgeBase, Confidence: details.Confidence}
	}

	result := o.flow.StartModification(state, latest)
	return models.TurnResponse{
		ResponseText:   result.Response,
		Intent:         models.IntentAction,
		ActionRequired: true,
		Confidence:     details.Confidence,
	}
}

func (o *Orchestrator) answerKnowledge(ctx context.Context, state *models.ConversationState, query string, confidence float64) models.TurnResponse {
	if o.cache != nil {
		if answer, ok := o.cache.Get(ctx, query); ok {
			return models.TurnResponse{ResponseText: answer, Intent: models.IntentKnowledgeBase, Confidence: confidence}
		}
	}

	results, err := o.retrieval.Search(ctx, query)
	if err != nil {
		o.log.WithError(err).Error("knowledge search failed", map[string]interface{}{
			"user_id": state.UserID,
		})
		metrics.TurnsFailed.WithLabelValues("retrieval").Inc()
		return models.TurnResponse{ResponseText: apologyMessage(), Intent: models.IntentUnknown, NeedsEscalation: true}
	}

	if len(results) == 0 {
		return models.TurnResponse{ResponseText: noKnowledgeMenu(query), Intent: models.IntentKnowledgeBase, Confidence: confidence}
	}

	answer := o.retrieval.GenerateAnswer(query, results)
	answer += "\n\n" + followUpMenu(results)

	if o.cache != nil {
		o.cache.Set(ctx, query, answer)
	}

	return models.TurnResponse{ResponseText: answer, Intent: models.IntentKnowledgeBase, Confidence: confidence}
}

// followUpMenu picks the numbered menu matching the top-ranked passage, so
// the next bare-digit reply routes correctly.
func followUpMenu(results []models.RetrievalResult) string {
	top := strings.ToLower(results[0].Metadata.Category)
	if top == "" {
		top = strings.ToLower(results[0].Content)
	}

	switch {
	case strings.Contains(top, "support") || strings.Contains(top, "troubleshoot"):
		return supportMenu()
	case strings.Contains(top, "product") || strings.Contains(top, "pricing") || strings.Contains(top, "feature"):
		return productMenu()
	default:
		return generalMenu()
	}
}

func (o *Orchestrator) escalateNow(state *models.ConversationState, decision escalation.Decision) models.TurnResponse {
	ticket := o.escalation.CreateTicket(state.UserID, state, decision)
	state.FailureReasons = append(state.FailureReasons, decision.Reason)

	o.log.Warn("escalation triggered", map[string]interface{}{
		"user_id":   state.UserID,
		"ticket_id": ticket.ID,
		"trigger":   string(decision.Trigger),
		"priority":  string(decision.Priority),
	})

	// High-priority tickets page the support channel; delivery failures are
	// logged by the sink and never surface to the user.
	if o.alerts != nil && ticket.Priority == models.PriorityHigh {
		go func(tk models.EscalationTicket) {
			alertCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = o.alerts.PublishEscalation(alertCtx, &tk)
		}(ticket)
	}

	return models.TurnResponse{
		ResponseText:       escalation.HandoffMessage(ticket.ID),
		Intent:             models.IntentEscalation,
		NeedsEscalation:    true,
		Confidence:         decision.Confidence,
		EscalationTicketID: ticket.ID,
	}
}

// isChangeRequest detects "change my appointment" style messages: a change
// verb plus an appointment noun in the same message.
func isChangeRequest(message string) bool {
	lower := strings.ToLower(message)
	verb := false
	for _, keyword := range changeKeywords {
		if strings.Contains(lower, keyword) {
			verb = true
			break
		}
	}
	if !verb {
		return false
	}
	for _, noun := range appointmentNouns {
		if strings.Contains(lower, noun) {
			return true
		}
	}
	return false
}

// ==========================
// Ops surface
// ==========================

// History returns the PII-masked conversation history for a user.
func (o *Orchestrator) History(userID string) []models.Turn {
	session, ok := o.sessions.Get(userID)
	if !ok {
		return nil
	}
	session.Lock()
	defer session.Unlock()
	out := make([]models.Turn, len(session.State.History))
	copy(out, session.State.History)
	return out
}

// ActiveConversations lists users with a live session.
func (o *Orchestrator) ActiveConversations() []string {
	return o.sessions.ActiveUsers()
}

// ClearConversation drops a user's session and escalation tracker.
func (o *Orchestrator) ClearConversation(userID string) bool {
	o.escalation.ResetFailures(userID)
	return o.sessions.Remove(userID)
}

// UserAppointments lists a user's bookings.
func (o *Orchestrator) UserAppointments(ctx context.Context, userID string) ([]models.Appointment, error) {
	return o.appointments.ListByUser(ctx, userID)
}
