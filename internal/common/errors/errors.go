// Package errors provides standardized error handling for the chatbot services.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeEmbeddingFailed    ErrorCode = "EMBEDDING_FAILED"
	ErrCodeEmbeddingTimeout   ErrorCode = "EMBEDDING_TIMEOUT"
	ErrCodeRetrievalFailed    ErrorCode = "RETRIEVAL_FAILED"
	ErrCodeKnowledgeDocFailed ErrorCode = "KNOWLEDGE_DOC_INVALID"

	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  ErrorCode = "SESSION_EXPIRED"

	ErrCodeSlotValidationFailed  ErrorCode = "SLOT_VALIDATION_FAILED"
	ErrCodeAppointmentNotFound   ErrorCode = "APPOINTMENT_NOT_FOUND"
	ErrCodeAppointmentSaveFailed ErrorCode = "APPOINTMENT_SAVE_FAILED"
	ErrCodeSlotUnavailable       ErrorCode = "SLOT_UNAVAILABLE"

	ErrCodeEscalationCreateFailed ErrorCode = "ESCALATION_CREATE_FAILED"
	ErrCodeTicketNotFound         ErrorCode = "TICKET_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("index: %s", index),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingFailedError creates a retryable embedding API error.
func NewEmbeddingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingFailed,
		Message:   "Embedding API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingTimeoutError creates a retryable embedding timeout error.
func NewEmbeddingTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingTimeout,
		Message:   "Embedding API timeout",
		Details:   "API call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrievalFailedError creates a retryable knowledge retrieval error.
func NewRetrievalFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailed,
		Message:   "Knowledge retrieval failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewKnowledgeDocInvalidError creates a non-retryable knowledge document validation error.
func NewKnowledgeDocInvalidError(docID, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeKnowledgeDocFailed,
		Message:   "Knowledge document failed schema validation",
		Details:   fmt.Sprintf("docId: %s, %s", docID, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Conversation session not found",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSlotValidationFailedError creates a non-retryable slot validation error.
func NewSlotValidationFailedError(slot, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlotValidationFailed,
		Message:   "Appointment slot validation failed",
		Details:   fmt.Sprintf("slot: %s, %s", slot, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAppointmentNotFoundError creates a non-retryable appointment lookup error.
func NewAppointmentNotFoundError(appointmentID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAppointmentNotFound,
		Message:   "Appointment not found",
		Details:   fmt.Sprintf("appointmentId: %s", appointmentID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAppointmentSaveFailedError creates a retryable appointment persistence error.
func NewAppointmentSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAppointmentSaveFailed,
		Message:   "Appointment persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSlotUnavailableError creates a non-retryable slot conflict error.
func NewSlotUnavailableError(date, timeOfDay string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSlotUnavailable,
		Message:   "Requested appointment slot is already taken",
		Details:   fmt.Sprintf("date: %s, time: %s", date, timeOfDay),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEscalationCreateFailedError creates a retryable escalation ticket error.
func NewEscalationCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEscalationCreateFailed,
		Message:   "Escalation ticket creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTicketNotFoundError creates a non-retryable ticket lookup error.
func NewTicketNotFoundError(ticketID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTicketNotFound,
		Message:   "Escalation ticket not found",
		Details:   fmt.Sprintf("ticketId: %s", ticketID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeAppointmentSaveFailed,
		ErrCodeEscalationCreateFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeEmbeddingFailed,
		ErrCodeRetrievalFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeEmbeddingTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Business errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "EMBEDDING") || strings.Contains(codeStr, "RETRIEVAL") || strings.Contains(codeStr, "KNOWLEDGE"):
		return "RETRIEVAL"
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "APPOINTMENT") || strings.Contains(codeStr, "SLOT"):
		return "APPOINTMENT"
	case strings.Contains(codeStr, "ESCALATION") || strings.Contains(codeStr, "TICKET"):
		return "ESCALATION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
