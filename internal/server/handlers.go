// internal/server/handlers.go
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"care-chatbot/internal/models"
)

// maxChatBody bounds the chat request body; conversation turns are short.
const maxChatBody = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "healthy",
		"app":                 s.app.Name,
		"version":             s.app.Version,
		"activeConversations": len(s.orchestrator.ActiveConversations()),
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)

	var req models.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := s.orchestrator.HandleTurn(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

// ==========================
// Escalation admin
// ==========================

func (s *Server) handleEscalationQueue(w http.ResponseWriter, r *http.Request) {
	queue := s.escalation.Queue()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pending": len(queue),
		"tickets": queue,
	})
}

func (s *Server) handleEscalationHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":  userID,
		"tickets": s.escalation.UserHistory(userID),
	})
}

func (s *Server) handleEscalationReset(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	s.escalation.ResetFailures(userID)
	s.log.Info("failure tracker reset", map[string]interface{}{
		"user_id": userID,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId": userID,
		"reset":  true,
	})
}

func (s *Server) handleEscalationResolve(w http.ResponseWriter, r *http.Request) {
	ticketID := r.PathValue("ticketId")
	if !s.escalation.Resolve(ticketID) {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticketId": ticketID,
		"status":   string(models.TicketResolved),
	})
}

// ==========================
// Conversations
// ==========================

func (s *Server) handleActiveConversations(w http.ResponseWriter, r *http.Request) {
	users := s.orchestrator.ActiveConversations()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

func (s *Server) handleConversationHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	history := s.orchestrator.History(userID)
	if history == nil {
		writeError(w, http.StatusNotFound, "no conversation for user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":  userID,
		"history": history,
	})
}

func (s *Server) handleConversationClear(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	cleared := s.orchestrator.ClearConversation(userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":  userID,
		"cleared": cleared,
	})
}

// ==========================
// Appointments and knowledge
// ==========================

func (s *Server) handleUserAppointments(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	appointments, err := s.orchestrator.UserAppointments(r.Context(), userID)
	if err != nil {
		s.log.WithError(err).Error("appointment listing failed", map[string]interface{}{
			"user_id": userID,
		})
		writeError(w, http.StatusInternalServerError, "appointment lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"userId":       userID,
		"appointments": appointments,
	})
}

func (s *Server) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	results, err := s.retrieval.Search(r.Context(), query)
	if err != nil {
		s.log.WithError(err).Error("knowledge search failed", nil)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []models.RetrievalResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// ==========================
// Analytics
// ==========================

func (s *Server) handleAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusNotFound, "analytics disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.analytics.Overview())
}

func (s *Server) handleAnalyticsUser(w http.ResponseWriter, r *http.Request) {
	if s.analytics == nil {
		writeError(w, http.StatusNotFound, "analytics disabled")
		return
	}
	insights, found := s.analytics.UserInsights(r.PathValue("userId"))
	if !found {
		writeError(w, http.StatusNotFound, "no activity for user")
		return
	}
	writeJSON(w, http.StatusOK, insights)
}

// ==========================
// Helpers
// ==========================

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
