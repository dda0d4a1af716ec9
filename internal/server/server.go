// internal/server/server.go

// Package server exposes the chat endpoint and the admin/ops API over plain
// net/http, plus prometheus metrics on /metrics.
package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"care-chatbot/internal/analytics"
	"care-chatbot/internal/common/config"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/dialog"
	"care-chatbot/internal/escalation"
	"care-chatbot/internal/retrieval"
)

// Deps collects the server's collaborators. Analytics may be nil.
type Deps struct {
	Orchestrator *dialog.Orchestrator
	Escalation   *escalation.Engine
	Retrieval    *retrieval.Engine
	Analytics    *analytics.Recorder
	App          config.AppConfig
	Log          logger.Logger
}

// Server is the HTTP front of the chatbot.
type Server struct {
	orchestrator *dialog.Orchestrator
	escalation   *escalation.Engine
	retrieval    *retrieval.Engine
	analytics    *analytics.Recorder
	app          config.AppConfig
	log          logger.Logger
	httpServer   *http.Server
}

// NewServer builds the server and its route table.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		orchestrator: deps.Orchestrator,
		escalation:   deps.Escalation,
		retrieval:    deps.Retrieval,
		analytics:    deps.Analytics,
		app:          deps.App,
		log:          deps.Log,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

// Handler returns the route table; exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/escalations", s.handleEscalationQueue)
	mux.HandleFunc("GET /api/escalations/user/{userId}", s.handleEscalationHistory)
	mux.HandleFunc("POST /api/escalations/user/{userId}/reset", s.handleEscalationReset)
	mux.HandleFunc("POST /api/escalations/{ticketId}/resolve", s.handleEscalationResolve)

	mux.HandleFunc("GET /api/conversations/active", s.handleActiveConversations)
	mux.HandleFunc("GET /api/conversation/{userId}", s.handleConversationHistory)
	mux.HandleFunc("DELETE /api/conversation/{userId}", s.handleConversationClear)

	mux.HandleFunc("GET /api/appointments/user/{userId}", s.handleUserAppointments)
	mux.HandleFunc("GET /api/kb/search", s.handleKnowledgeSearch)

	mux.HandleFunc("GET /api/analytics", s.handleAnalyticsOverview)
	mux.HandleFunc("GET /api/analytics/user/{userId}", s.handleAnalyticsUser)

	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
