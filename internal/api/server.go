// Package api exposes the orchestrator's admin surface over HTTP:
// cluster status, programmatic failover, metrics history and alerts.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/FairForge/sentinel/internal/alerting"
	"github.com/FairForge/sentinel/internal/config"
	"github.com/FairForge/sentinel/internal/failover"
	"github.com/FairForge/sentinel/internal/orchestrator"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the admin HTTP server.
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	orch       *orchestrator.Orchestrator
	alerts     *alerting.Manager
	router     *mux.Router
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates the admin server. alerts may be nil.
func NewServer(cfg *config.Config, logger *zap.Logger, orch *orchestrator.Orchestrator, alerts *alerting.Manager) *Server {
	s := &Server{
		config:    cfg,
		logger:    logger,
		orch:      orch,
		alerts:    alerts,
		router:    mux.NewRouter(),
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	s.router.HandleFunc("/api/v1/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/v1/failover", s.handleFailover).Methods("POST")
	s.router.HandleFunc("/api/v1/metrics/history", s.handleMetricsHistory).Methods("GET")
	s.router.HandleFunc("/api/v1/alerts", s.handleAlerts).Methods("GET")
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("admin API listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, s.orch.GetClusterStatus())
}

type failoverResponse struct {
	Outcome    string  `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	OldPrimary string  `json:"old_primary,omitempty"`
	NewPrimary string  `json:"new_primary,omitempty"`
	RTOSeconds float64 `json:"rto_seconds"`
	RPOSeconds float64 `json:"rpo_seconds"`
}

func (s *Server) handleFailover(w http.ResponseWriter, _ *http.Request) {
	result := s.orch.TriggerFailover()

	resp := failoverResponse{
		Outcome:    result.Outcome.String(),
		Reason:     result.Reason,
		OldPrimary: result.OldPrimary,
		NewPrimary: result.NewPrimary,
		RTOSeconds: result.RTO.Seconds(),
		RPOSeconds: result.RPO.Seconds(),
	}

	status := http.StatusOK
	if result.Outcome == failover.OutcomeSkipped {
		status = http.StatusConflict
	}
	s.respondJSON(w, status, resp)
}

func (s *Server) handleMetricsHistory(w http.ResponseWriter, _ *http.Request) {
	history := s.orch.MetricsHistory()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(history),
		"entries": history,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"alerts": []alerting.Alert{}})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": s.alerts.Recent(limit),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}
