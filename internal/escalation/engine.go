// internal/escalation/engine.go

// Package escalation decides when a conversation should be handed to a human
// agent and manages the resulting ticket queue.
package escalation

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/common/metrics"
	"care-chatbot/internal/common/security"
	"care-chatbot/internal/models"
	"care-chatbot/internal/nlp"
)

// Engine evaluates escalation triggers and owns the pending-ticket queue.
type Engine struct {
	analyzer *nlp.Analyzer
	tracker  *failureTracker
	cfg      config.EscalationConfig
	log      logger.Logger

	mu          sync.Mutex
	queue       []models.EscalationTicket
	userHistory map[string][]models.EscalationTicket
}

// NewEngine builds an escalation engine.
func NewEngine(analyzer *nlp.Analyzer, cfg config.EscalationConfig, log logger.Logger) *Engine {
	if cfg.FailureLimit <= 0 {
		cfg.FailureLimit = 3
	}
	if cfg.FailureWindow <= 0 {
		cfg.FailureWindow = 1800
	}
	if cfg.FrustrationThreshold <= 0 {
		cfg.FrustrationThreshold = 0.7
	}
	return &Engine{
		analyzer:    analyzer,
		tracker:     newFailureTracker(config.Seconds(cfg.FailureWindow)),
		cfg:         cfg,
		log:         log,
		userHistory: make(map[string][]models.EscalationTicket),
	}
}

// Evaluate runs every trigger against the current message and returns the
// highest-confidence decision. It also advances the per-user failure counter
// when the turn itself looks like a failed interaction.
func (e *Engine) Evaluate(userID, message string, intentConfidence float64, state *models.ConversationState) Decision {
	var triggers []Trigger

	if isExplicitRequest(message) {
		triggers = append(triggers, Trigger{
			Type:       TriggerExplicitRequest,
			Confidence: 1.0,
			Reason:     "User explicitly requested a human agent",
		})
	}

	var recent []string
	if state != nil {
		recent = state.RecentUserMessages(3)
	}
	if score := e.analyzer.FrustrationScore(message, recent); score >= e.cfg.FrustrationThreshold {
		triggers = append(triggers, Trigger{
			Type:       TriggerFrustration,
			Confidence: score,
			Reason:     fmt.Sprintf("User appears frustrated (score %.2f)", score),
		})
	}

	if reason, failed := failureReason(message, intentConfidence); failed {
		count, reasons := e.tracker.Record(userID, reason)
		if state != nil {
			state.FailureReasons = reasons
		}
		if count >= e.cfg.FailureLimit {
			confidence := 0.3 * float64(count)
			if confidence > 1.0 {
				confidence = 1.0
			}
			triggers = append(triggers, Trigger{
				Type:       TriggerRepeatedFailures,
				Confidence: confidence,
				Reason:     fmt.Sprintf("Multiple failed interactions: %d failures", count),
			})
		}
	}

	if topic, found := sensitiveTopic(message); found {
		triggers = append(triggers, Trigger{
			Type:       TriggerSensitiveTopic,
			Confidence: 0.9,
			Reason:     "Sensitive topic detected: " + topic,
		})
	}

	if trigger, complex := complexQuery(message); complex {
		triggers = append(triggers, trigger)
	}

	if len(triggers) == 0 {
		return Decision{Priority: models.PriorityNormal}
	}

	sort.SliceStable(triggers, func(i, j int) bool {
		if triggers[i].Confidence == triggers[j].Confidence {
			return triggerOrder[triggers[i].Type] < triggerOrder[triggers[j].Type]
		}
		return triggers[i].Confidence > triggers[j].Confidence
	})

	best := triggers[0]
	return Decision{
		ShouldEscalate: true,
		Trigger:        best.Type,
		Reason:         best.Reason,
		Priority:       determinePriority(best.Type, best.Confidence),
		Confidence:     best.Confidence,
		AllTriggers:    triggers,
	}
}

// IsFailureTurn reports whether a message counts as a failed interaction
// (a correction, repetition, clarification, dissatisfaction, or a
// low-confidence classification). It does not advance the failure counter.
func (e *Engine) IsFailureTurn(message string, intentConfidence float64) bool {
	_, failed := failureReason(message, intentConfidence)
	return failed
}

// CreateTicket opens a ticket for the decision, enqueues it and records it in
// the user's escalation history. The conversation summary is PII-masked.
func (e *Engine) CreateTicket(userID string, state *models.ConversationState, decision Decision) models.EscalationTicket {
	ticket := models.EscalationTicket{
		ID:                  "ESC-" + strings.ToUpper(uuid.New().String()[:8]),
		UserID:              userID,
		Reason:              decision.Reason,
		Priority:            decision.Priority,
		Status:              models.TicketPending,
		ConversationSummary: summarize(userID, state),
		CreatedAt:           time.Now().UTC(),
	}

	e.mu.Lock()
	e.queue = append(e.queue, ticket)
	e.userHistory[userID] = append(e.userHistory[userID], ticket)
	e.mu.Unlock()

	metrics.EscalationsCreated.WithLabelValues(string(decision.Trigger), string(ticket.Priority)).Inc()
	e.log.Info("escalation ticket created", map[string]interface{}{
		"ticket_id": ticket.ID,
		"user_id":   userID,
		"trigger":   string(decision.Trigger),
		"priority":  string(ticket.Priority),
	})

	return ticket
}

// summarize builds the agent-facing context block from recent history.
func summarize(userID string, state *models.ConversationState) string {
	parts := []string{"User: " + userID}

	if state != nil && len(state.History) > 0 {
		start := len(state.History) - 5
		if start < 0 {
			start = 0
		}
		parts = append(parts, "", "Recent conversation:")
		for _, turn := range state.History[start:] {
			parts = append(parts,
				"  User: "+clip(security.MaskPII(turn.UserText), 100),
				"  Bot: "+clip(security.MaskPII(turn.BotText), 100),
			)
		}
	}

	if state != nil && len(state.FailureReasons) > 0 {
		parts = append(parts, "", "Detected issues:")
		for _, reason := range state.FailureReasons {
			parts = append(parts, "  - "+reason)
		}
	}

	return strings.Join(parts, "\n")
}

func clip(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// HandoffMessage is the user-facing reply sent alongside a new ticket.
func HandoffMessage(ticketID string) string {
	var b strings.Builder
	b.WriteString("**Transferring to Human Agent**\n\n")
	b.WriteString("I'm connecting you with one of our customer support specialists who can better assist you.\n\n")
	if ticketID != "" {
		b.WriteString("**Your Support Ticket:** `" + ticketID + "`\n")
	}
	b.WriteString("**Estimated Wait Time:** 5-10 minutes\n\n")
	b.WriteString("Please hold while I transfer you. A specialist will be with you shortly.\n\n")
	b.WriteString("*Tip: Have your account information ready for faster service.*")
	return b.String()
}

// Queue returns a snapshot of the pending ticket queue.
func (e *Engine) Queue() []models.EscalationTicket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.EscalationTicket(nil), e.queue...)
}

// UserHistory returns all tickets ever opened for a user.
func (e *Engine) UserHistory(userID string) []models.EscalationTicket {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.EscalationTicket(nil), e.userHistory[userID]...)
}

// Resolve marks a queued ticket resolved.
func (e *Engine) Resolve(ticketID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.queue {
		if e.queue[i].ID == ticketID {
			e.queue[i].Status = models.TicketResolved
			return true
		}
	}
	return false
}

// ClearResolved drops resolved tickets from the queue and reports how many
// were removed.
func (e *Engine) ClearResolved() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.queue[:0]
	for _, ticket := range e.queue {
		if ticket.Status != models.TicketResolved {
			kept = append(kept, ticket)
		}
	}
	removed := len(e.queue) - len(kept)
	e.queue = kept

	if removed > 0 {
		e.log.Info("cleared resolved escalation tickets", map[string]interface{}{
			"removed": removed,
		})
	}
	return removed
}

// ResetFailures clears the failure counter after a successful interaction.
func (e *Engine) ResetFailures(userID string) {
	e.tracker.Reset(userID)
}
