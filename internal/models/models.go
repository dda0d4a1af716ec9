// Package models defines the shared domain types for the chatbot pipeline.
package models

import "time"

// ==========================
// 1. Intents
// ==========================

// Intent is the canonical category explaining why a message was sent.
type Intent string

const (
	IntentAction        Intent = "action"
	IntentKnowledgeBase Intent = "knowledge_base"
	IntentEscalation    Intent = "escalation"
	IntentGreeting      Intent = "greeting"
	IntentGoodbye       Intent = "goodbye"
	IntentMenuSelection Intent = "menu_selection"
	IntentConfirmation  Intent = "confirmation"
	IntentUnknown       Intent = "unknown"
)

// SentimentScores holds the lexicon-based polarity of a message.
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Compound float64 `json:"compound"`
}

// AnalysisResult is the Text Analyzer output for one message.
type AnalysisResult struct {
	Entities         map[string][]string `json:"entities"`
	Sentiment        SentimentScores     `json:"sentiment"`
	Frustrated       bool                `json:"frustrated"`
	FrustrationScore float64             `json:"frustrationScore"`
}

// IntentResult is the classifier output for one turn. Not persisted.
type IntentResult struct {
	Intent     Intent              `json:"intent"`
	Confidence float64             `json:"confidence"`
	Entities   map[string][]string `json:"entities,omitempty"`
	Sentiment  SentimentScores     `json:"sentiment"`
	Frustrated bool                `json:"frustrated"`
}

// ==========================
// 2. Conversation State
// ==========================

// FlowState tracks progress of the appointment booking dialog.
type FlowState string

const (
	FlowNone       FlowState = "none"
	FlowStarted    FlowState = "started"
	FlowCollecting FlowState = "collecting"
	FlowConfirming FlowState = "confirming"
	FlowModifying  FlowState = "modifying"
)

// Slot names in fixed priority order.
const (
	SlotServiceType  = "service_type"
	SlotDate         = "date"
	SlotTime         = "time"
	SlotCustomerName = "customer_name"
	SlotEmail        = "email"
)

// SlotPriority is the fixed order in which missing appointment slots are asked.
var SlotPriority = []string{SlotServiceType, SlotDate, SlotTime, SlotCustomerName, SlotEmail}

// Turn is one user message paired with one bot response.
type Turn struct {
	UserText  string    `json:"userText"`
	BotText   string    `json:"botText"`
	Intent    Intent    `json:"intent"`
	Escalated bool      `json:"escalated"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState holds everything the orchestrator tracks per user.
// ExistingAppointmentID is set while the flow edits an already-booked
// appointment instead of creating a new one.
type ConversationState struct {
	UserID                 string            `json:"userId"`
	History                []Turn            `json:"history"`
	AppointmentData        map[string]string `json:"appointmentData"`
	CurrentQuestion        string            `json:"currentQuestion"`
	WaitingForConfirmation bool              `json:"waitingForConfirmation"`
	FlowState              FlowState         `json:"flowState"`
	ExistingAppointmentID  string            `json:"existingAppointmentId,omitempty"`
	FailureReasons         []string          `json:"failureReasons"`
	LastIntent             Intent            `json:"lastIntent"`
	MessageCount           int               `json:"messageCount"`
	StartTime              time.Time         `json:"startTime"`
	LastActivity           time.Time         `json:"lastActivity"`
}

// NewConversationState initializes state for a first-time user.
func NewConversationState(userID string) *ConversationState {
	now := time.Now().UTC()
	return &ConversationState{
		UserID:          userID,
		AppointmentData: make(map[string]string),
		FlowState:       FlowNone,
		StartTime:       now,
		LastActivity:    now,
	}
}

// MissingSlot returns the first missing required slot in priority order,
// or empty when all slots are filled.
func (s *ConversationState) MissingSlot() string {
	for _, slot := range SlotPriority {
		if s.AppointmentData[slot] == "" {
			return slot
		}
	}
	return ""
}

// ResetFlow clears all appointment flow state back to none.
func (s *ConversationState) ResetFlow() {
	s.AppointmentData = make(map[string]string)
	s.CurrentQuestion = ""
	s.WaitingForConfirmation = false
	s.FlowState = FlowNone
	s.ExistingAppointmentID = ""
}

// LastBotMessage returns the most recent bot reply, or empty.
func (s *ConversationState) LastBotMessage() string {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].BotText
}

// RecentUserMessages returns up to n most recent user messages, oldest first.
func (s *ConversationState) RecentUserMessages(n int) []string {
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, n)
	for _, turn := range s.History[start:] {
		out = append(out, turn.UserText)
	}
	return out
}

// ==========================
// 3. Appointments
// ==========================

// AppointmentStatus is the lifecycle state of a booked appointment.
type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentUpdated   AppointmentStatus = "updated"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is a confirmed booking. Never hard-deleted.
type Appointment struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	ServiceType  string            `json:"serviceType"`
	Date         string            `json:"date"` // ISO date, business weekday
	Time         string            `json:"time"` // half-hour slot inside business hours
	CustomerName string            `json:"customerName"`
	Email        string            `json:"email"`
	Status       AppointmentStatus `json:"status"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ==========================
// 4. Escalation
// ==========================

// TicketPriority orders escalation tickets for the support queue.
type TicketPriority string

const (
	PriorityNormal TicketPriority = "normal"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

// TicketStatus is the lifecycle state of an escalation ticket.
type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketResolved TicketStatus = "resolved"
)

// EscalationTicket records a human handoff request.
type EscalationTicket struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"userId"`
	Reason              string         `json:"reason"`
	Priority            TicketPriority `json:"priority"`
	Status              TicketStatus   `json:"status"`
	ConversationSummary string         `json:"conversationSummary"` // PII-masked
	CreatedAt           time.Time      `json:"createdAt"`
}

// ==========================
// 5. Retrieval
// ==========================

// DocumentMetadata describes the source of an indexed passage.
type DocumentMetadata struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Source   string   `json:"source"`
	Tags     []string `json:"tags,omitempty"`
}

// KnowledgeDocument is the ingestion unit supplied to the indexer.
type KnowledgeDocument struct {
	ID       string           `json:"id"`
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// RetrievalResult is one ranked passage returned for a query.
type RetrievalResult struct {
	Content    string           `json:"content"`
	Score      float64          `json:"score"`
	DocID      string           `json:"docId"`
	ChunkIndex int              `json:"chunkIndex"`
	Metadata   DocumentMetadata `json:"metadata"`
}

// ==========================
// 6. Chat Turn Interface
// ==========================

// TurnRequest is one inbound chat message.
type TurnRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// TurnResponse is the orchestrator's reply for one turn.
type TurnResponse struct {
	ResponseText       string  `json:"responseText"`
	Intent             Intent  `json:"intent"`
	NeedsEscalation    bool    `json:"needsEscalation"`
	ActionRequired     bool    `json:"actionRequired"`
	Confidence         float64 `json:"confidence,omitempty"`
	EscalationTicketID string  `json:"escalationTicketId,omitempty"`
}

// TurnEvent is the per-turn analytics record.
type TurnEvent struct {
	UserID          string    `json:"userId"`
	Intent          Intent    `json:"intent"`
	ResponseTimeMs  int64     `json:"responseTimeMs"`
	NeedsEscalation bool      `json:"needsEscalation"`
	Confidence      float64   `json:"confidence"`
	Timestamp       time.Time `json:"timestamp"`
}
