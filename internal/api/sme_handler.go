// File path: internal/api/sme_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/merge"
	"github.com/mapline/guestjourney/internal/store"
)

type smeCreateRequest struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Department  string   `json:"department"`
	Location    string   `json:"location"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	StagesOwned []string `json:"stages_owned"`
	Domains     []string `json:"domains"`
	SystemsUsed []string `json:"systems_used"`
}

func (s *Server) handleSMECreate(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req smeCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: sme decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("name required"))
		return
	}
	for _, stage := range req.StagesOwned {
		if !journey.ValidStage(strings.ToLower(strings.TrimSpace(stage))) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown journey stage %q", stage))
			return
		}
	}

	smeID, err := s.allocator().Next(r.Context(), ids.PrefixSME)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	now := store.Now()
	row := store.SMERow{
		SMEID:           smeID,
		FullName:        strings.TrimSpace(req.Name),
		Role:            req.Role,
		Department:      req.Department,
		Location:        req.Location,
		Email:           req.Email,
		Phone:           req.Phone,
		StagesOwnedJSON: merge.AddAllUnique("[]", lowered(req.StagesOwned)),
		DomainsJSON:     merge.AddAllUnique("[]", req.Domains),
		SystemsUsedJSON: merge.AddAllUnique("[]", req.SystemsUsed),
		InterviewStatus: journey.InterviewPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.InsertSME(r.Context(), row); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	logger.Info("api: sme registered", "sme_id", smeID, "name", row.FullName)
	created, err := s.store.SMEByID(r.Context(), smeID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSMEList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.ListSMEs(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"smes": rows})
}

func (s *Server) handleSMEGet(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.SMEByID(r.Context(), chi.URLParam(r, "smeID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleSMEValidate(w http.ResponseWriter, r *http.Request) {
	row, err := s.store.SMEByID(r.Context(), chi.URLParam(r, "smeID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if row.InterviewStatus != journey.InterviewCompleted {
		writeError(w, http.StatusConflict,
			fmt.Errorf("sme %s is %s, only completed interviews can be validated", row.SMEID, row.InterviewStatus))
		return
	}
	if err := s.store.UpdateSME(r.Context(), row.ID, store.Fields{
		"interview_status": journey.InterviewValidated,
		"updated_at":       store.Now(),
	}); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: sme validated", "sme_id", row.SMEID)
	writeJSON(w, http.StatusOK, map[string]string{
		"sme_id":           row.SMEID,
		"interview_status": journey.InterviewValidated,
	})
}

func (s *Server) handleSMELink(w http.ResponseWriter, r *http.Request) {
	result, err := s.orchestrator.IssueLink(r.Context(), chi.URLParam(r, "smeID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: self-service link issued", "sme_id", result.SMEID)
	writeJSON(w, http.StatusCreated, result)
}

func lowered(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
