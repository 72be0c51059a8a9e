// File path: internal/api/project_handler.go
package api

import (
	"net/http"

	"github.com/mapline/guestjourney/internal/common"
)

func (s *Server) handleProjectState(w http.ResponseWriter, r *http.Request) {
	row, err := s.projects.State(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project":        row,
		"completion":     row.Completion(),
		"open_questions": row.OpenQuestions(),
	})
}

func (s *Server) handleProjectSeed(w http.ResponseWriter, r *http.Request) {
	created, err := s.projects.Seed(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	common.Logger().Info("api: project seeded", "counters_created", len(created))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project_id":       s.projects.ProjectID(),
		"counters_created": created,
	})
}

func (s *Server) handleProjectRecalculate(w http.ResponseWriter, r *http.Request) {
	completion, err := s.projects.Recalculate(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"completion": completion})
}
