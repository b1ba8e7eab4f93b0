// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/reminder/coordinator"
)

// ReminderService is the coordinator surface the HTTP layer exposes.
type ReminderService interface {
	TriggerRun(ctx context.Context) coordinator.RunSummary
	GetStats(ctx context.Context) (coordinator.Stats, error)
	RunTest(ctx context.Context) (coordinator.TestResult, error)
	Unlist(ctx context.Context, memberID string) error
}

// Pinger is the readiness check against the primary store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the operator/scheduler HTTP surface of the reminder engine.
type Server struct {
	service ReminderService
	db      Pinger
	logger  logger.Logger
	http    *http.Server
}

func NewServer(addr string, service ReminderService, db Pinger, log logger.Logger) *Server {
	s := &Server{
		service: service,
		db:      db,
		logger:  log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/reminders/run", s.handleTriggerRun)
	mux.HandleFunc("GET /api/reminders/stats", s.handleStats)
	mux.HandleFunc("POST /api/reminders/test", s.handleRunTest)
	mux.HandleFunc("POST /api/reminders/blacklist/{memberID}/unlist", s.handleUnlist)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routing for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.http.Addr})
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	summary := s.service.TriggerRun(r.Context())

	status := http.StatusOK
	if !summary.Sent && summary.Message == "already processing" {
		status = http.StatusConflict
	}
	writeJSON(w, status, summary)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.GetStats(r.Context())
	if err != nil {
		s.logger.Error("stats request failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.RunTest(r.Context())
	if err != nil {
		s.logger.Error("test run failed", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUnlist(w http.ResponseWriter, r *http.Request) {
	memberID := r.PathValue("memberID")
	if memberID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "member id is required"})
		return
	}

	if err := s.service.Unlist(r.Context(), memberID); err != nil {
		s.logger.Error("unlist failed", map[string]interface{}{
			"memberId": memberID,
			"error":    err,
		})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unlisted", "memberId": memberID})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db_not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
