// File path: internal/api/knowledge_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/store"
)

type conflictResolveRequest struct {
	Resolution string `json:"resolution"`
	ResolvedBy string `json:"resolved_by"`
}

func (s *Server) handleConflictResolve(w http.ResponseWriter, r *http.Request) {
	var req conflictResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Resolution) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("resolution required"))
		return
	}
	row, err := s.store.ConflictByID(r.Context(), chi.URLParam(r, "conflictID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if row.ResolutionStatus == journey.ConflictResolved {
		writeError(w, http.StatusConflict, fmt.Errorf("conflict %s is already resolved", row.ConflictID))
		return
	}
	if err := s.store.UpdateConflict(r.Context(), row.ID, store.Fields{
		"resolution_status": journey.ConflictResolved,
		"resolution_notes":  req.Resolution,
		"resolved_by":       req.ResolvedBy,
	}); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: conflict resolved", "conflict_id", row.ConflictID, "resolved_by", req.ResolvedBy)
	s.projects.TryRecalculate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"conflict_id":       row.ConflictID,
		"resolution_status": journey.ConflictResolved,
	})
}

var gapStatuses = map[string]bool{
	journey.GapOpen:       true,
	journey.GapInProgress: true,
	journey.GapResolved:   true,
	journey.GapWontFix:    true,
}

type gapStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleGapStatus(w http.ResponseWriter, r *http.Request) {
	var req gapStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !gapStatuses[status] {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown gap status %q", req.Status))
		return
	}
	row, err := s.store.GapByID(r.Context(), chi.URLParam(r, "gapID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := s.store.UpdateGap(r.Context(), row.ID, store.Fields{
		"status":     status,
		"updated_at": store.Now(),
	}); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: gap status changed", "gap_id", row.GapID, "status", status)
	s.projects.TryRecalculate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"gap_id": row.GapID, "status": status})
}
