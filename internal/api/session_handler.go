// File path: internal/api/session_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/session"
	"github.com/mapline/guestjourney/internal/store"
)

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req session.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: session start decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.orchestrator.Start(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	logger.Info("api: session started", "session_id", result.SessionID, "sme_id", result.SMEID)
	writeJSON(w, http.StatusCreated, result)
}

// sessionSummary enriches a session row with the SME's name and the stage
// the conversation is currently in.
type sessionSummary struct {
	SessionID    string `json:"session_id"`
	SMEID        string `json:"sme_id"`
	SMEName      string `json:"sme_name,omitempty"`
	Method       string `json:"method"`
	Status       string `json:"status"`
	CurrentStage string `json:"current_stage,omitempty"`
	CreatedAt    string `json:"created_at"`
	ClosedAt     string `json:"closed_at,omitempty"`
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	var (
		rows []store.SessionRow
		err  error
	)
	if smeID := strings.TrimSpace(r.URL.Query().Get("sme_id")); smeID != "" {
		rows, err = s.store.SessionsBySME(r.Context(), smeID)
	} else {
		rows, err = s.store.ListSessions(r.Context())
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	names := map[string]string{}
	if smes, err := s.store.ListSMEs(r.Context()); err == nil {
		for _, sme := range smes {
			names[sme.SMEID] = sme.FullName
		}
	} else {
		common.Logger().Warn("api: session list sme lookup failed", "error", err)
	}

	summaries := make([]sessionSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, sessionSummary{
			SessionID:    row.SessionID,
			SMEID:        row.SMEID,
			SMEName:      names[row.SMEID],
			Method:       row.Method,
			Status:       row.Status,
			CurrentStage: row.State().CurrentStage,
			CreatedAt:    row.CreatedAt,
			ClosedAt:     row.ClosedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": summaries})
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	result, err := s.orchestrator.Resume(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.SessionByID(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": row,
		"state":   row.State(),
	})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.store.SessionByID(r.Context(), sessionID); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	rows, err := s.store.MessagesBySession(r.Context(), sessionID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": rows})
}

type turnRequest struct {
	Message string `json:"message"`
}

func validateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message required")
	}
	if len(message) > maxMessageLength {
		return fmt.Errorf("message exceeds %d characters", maxMessageLength)
	}
	return nil
}

func (s *Server) handleSessionTurn(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: turn decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.orchestrator.ProcessTurn(r.Context(), chi.URLParam(r, "sessionID"), req.Message)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type actionRequest struct {
	Action string `json:"action"`
	Detail string `json:"detail"`
}

func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.orchestrator.QuickAction(r.Context(), chi.URLParam(r, "sessionID"), req.Action, req.Detail)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	result, err := s.orchestrator.Close(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: session closed", "session_id", result.SessionID, "duration_minutes", result.DurationMinutes)
	writeJSON(w, http.StatusOK, result)
}

type selfServiceStartRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleSelfServiceStart(w http.ResponseWriter, r *http.Request) {
	var req selfServiceStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("token required"))
		return
	}
	result, err := s.orchestrator.StartSelfService(r.Context(), req.Token)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type selfServiceTurnRequest struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (s *Server) handleSelfServiceTurn(w http.ResponseWriter, r *http.Request) {
	var req selfServiceTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := validateMessage(req.Message); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.orchestrator.SelfServiceTurn(r.Context(), req.Token, chi.URLParam(r, "sessionID"), req.Message)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
