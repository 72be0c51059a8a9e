// File path: internal/api/report_handler.go
package api

import "net/http"

func (s *Server) handleReportJourneyMap(w http.ResponseWriter, r *http.Request) {
	entries, err := s.reporter.JourneyMap(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stages": entries})
}

func (s *Server) handleReportProcesses(w http.ResponseWriter, r *http.Request) {
	inventory, err := s.reporter.Processes(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, inventory)
}

func (s *Server) handleReportSystems(w http.ResponseWriter, r *http.Request) {
	eco, err := s.reporter.Systems(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, eco)
}

func (s *Server) handleReportGaps(w http.ResponseWriter, r *http.Request) {
	register, err := s.reporter.Gaps(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, register)
}

func (s *Server) handleReportConflicts(w http.ResponseWriter, r *http.Request) {
	log, err := s.reporter.Conflicts(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) handleReportExecutive(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reporter.Executive(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
