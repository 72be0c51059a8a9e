// File path: internal/api/server.go

// Package api exposes the interview orchestrator, the SME registry, and the
// reporting views over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/project"
	"github.com/mapline/guestjourney/internal/report"
	"github.com/mapline/guestjourney/internal/session"
	"github.com/mapline/guestjourney/internal/store"
)

// maxMessageLength bounds user message size at the boundary.
const maxMessageLength = 4000

type Server struct {
	router       chi.Router
	store        *store.Store
	orchestrator *session.Orchestrator
	projects     *project.Manager
	reporter     *report.Reporter
	alloc        *ids.Allocator
}

func (s *Server) allocator() *ids.Allocator { return s.alloc }

// NewServer wires all handlers onto a chi router.
func NewServer(s *store.Store, gateway *llm.Gateway, projects *project.Manager) *Server {
	srv := &Server{
		router:       chi.NewRouter(),
		store:        s,
		orchestrator: session.NewOrchestrator(s, gateway, projects),
		projects:     projects,
		reporter:     report.NewReporter(s, gateway, projects),
		alloc:        ids.New(s),
	}
	srv.routes()
	return srv
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.router.Get("/v1/logs", s.handleLogs)

	s.router.Post("/v1/sessions", s.handleSessionStart)
	s.router.Get("/v1/sessions", s.handleSessionList)
	s.router.Get("/v1/sessions/{sessionID}", s.handleSessionGet)
	s.router.Post("/v1/sessions/{sessionID}/resume", s.handleSessionResume)
	s.router.Get("/v1/sessions/{sessionID}/messages", s.handleSessionMessages)
	s.router.Post("/v1/sessions/{sessionID}/messages", s.handleSessionTurn)
	s.router.Post("/v1/sessions/{sessionID}/actions", s.handleQuickAction)
	s.router.Post("/v1/sessions/{sessionID}/close", s.handleSessionClose)

	s.router.Post("/v1/self-service/sessions", s.handleSelfServiceStart)
	s.router.Post("/v1/self-service/sessions/{sessionID}/messages", s.handleSelfServiceTurn)

	s.router.Post("/v1/smes", s.handleSMECreate)
	s.router.Get("/v1/smes", s.handleSMEList)
	s.router.Get("/v1/smes/{smeID}", s.handleSMEGet)
	s.router.Post("/v1/smes/{smeID}/validate", s.handleSMEValidate)
	s.router.Post("/v1/smes/{smeID}/link", s.handleSMELink)

	s.router.Post("/v1/conflicts/{conflictID}/resolve", s.handleConflictResolve)
	s.router.Post("/v1/gaps/{gapID}/status", s.handleGapStatus)

	s.router.Get("/v1/project", s.handleProjectState)
	s.router.Post("/v1/project/seed", s.handleProjectSeed)
	s.router.Post("/v1/project/recalculate", s.handleProjectRecalculate)

	s.router.Get("/v1/reports/journey-map", s.handleReportJourneyMap)
	s.router.Get("/v1/reports/processes", s.handleReportProcesses)
	s.router.Get("/v1/reports/systems", s.handleReportSystems)
	s.router.Get("/v1/reports/gaps", s.handleReportGaps)
	s.router.Get("/v1/reports/conflicts", s.handleReportConflicts)
	s.router.Get("/v1/reports/executive", s.handleReportExecutive)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP statuses so handlers stay terse.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, session.ErrEmptyMessage),
		errors.Is(err, session.ErrSMERequired),
		errors.Is(err, session.ErrUnknownStage),
		errors.Is(err, session.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, llm.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
