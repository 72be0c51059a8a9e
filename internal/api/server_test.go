// File path: internal/api/server_test.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/project"
	"github.com/mapline/guestjourney/internal/store"
)

type offlineProvider struct{}

func (offlineProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return "", errors.New("provider offline")
}

func (offlineProvider) Name() string { return "offline" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	projects := project.NewManager(s, "", "Test Hotels")
	if _, err := projects.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewServer(s, llm.NewGateway(offlineProvider{}), projects)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(encoded)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}
}

func TestSMERegistryFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/smes", map[string]interface{}{
		"name":         "Maria Lopez",
		"role":         "Front Office Manager",
		"stages_owned": []string{"Check_In"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sme: %d %s", rec.Code, rec.Body.String())
	}
	var created store.SMERow
	decodeBody(t, rec, &created)
	if created.SMEID != "SME-001" || created.InterviewStatus != journey.InterviewPending {
		t.Fatalf("unexpected sme: %+v", created)
	}
	if got := created.StagesOwned(); len(got) != 1 || got[0] != "check_in" {
		t.Fatalf("stages not normalised: %v", got)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/smes", map[string]interface{}{
		"name":         "Bad Stages",
		"stages_owned": []string{"teleportation"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown stage, got %d", rec.Code)
	}

	// validation requires a completed interview
	rec = doJSON(t, srv, http.MethodPost, "/v1/smes/SME-001/validate", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/smes/SME-404", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSessionStartAndValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"name": "Jordan Kim", "role": "Reservations Lead",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start session: %d %s", rec.Code, rec.Body.String())
	}
	var started struct {
		SessionID    string `json:"session_id"`
		CurrentStage string `json:"current_stage"`
	}
	decodeBody(t, rec, &started)
	if started.SessionID == "" || started.CurrentStage != "discovery" {
		t.Fatalf("unexpected start result: %+v", started)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without sme, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"name": "Bad Stages", "stages_owned": []string{"teleportation"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown stage at session start, got %d", rec.Code)
	}

	over := strings.Repeat("a", maxMessageLength+1)
	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/messages", map[string]string{"message": over})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized message, got %d", rec.Code)
	}

	// the offline provider makes a real turn fail upstream
	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/messages", map[string]string{"message": "hello"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from offline provider, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/sessions/"+started.SessionID+"/messages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list messages: %d", rec.Code)
	}
	var messages struct {
		Messages []store.MessageRow `json:"messages"`
	}
	decodeBody(t, rec, &messages)
	if len(messages.Messages) != 1 {
		t.Fatalf("expected only the opening message, got %d", len(messages.Messages))
	}
}

func TestSessionListEnrichmentAndResume(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]interface{}{
		"name": "Maria Lopez", "stages_owned": []string{"check_in"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d", rec.Code)
	}
	var started struct {
		SessionID string `json:"session_id"`
	}
	decodeBody(t, rec, &started)

	rec = doJSON(t, srv, http.MethodGet, "/v1/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var list struct {
		Sessions []struct {
			SMEName      string `json:"sme_name"`
			CurrentStage string `json:"current_stage"`
			Status       string `json:"status"`
		} `json:"sessions"`
	}
	decodeBody(t, rec, &list)
	if len(list.Sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(list.Sessions))
	}
	if list.Sessions[0].SMEName != "Maria Lopez" || list.Sessions[0].CurrentStage != "check_in" {
		t.Fatalf("list not enriched: %+v", list.Sessions[0])
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/resume", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resume: %d %s", rec.Code, rec.Body.String())
	}
	var resumed struct {
		Messages []store.MessageRow `json:"messages"`
	}
	decodeBody(t, rec, &resumed)
	if len(resumed.Messages) != 1 {
		t.Fatalf("expected opening message in resume payload, got %d", len(resumed.Messages))
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/resume", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 resuming closed session, got %d", rec.Code)
	}
}

func TestQuickActionAndClose(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/sessions", map[string]interface{}{"name": "Maria Lopez"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: %d", rec.Code)
	}
	var started struct {
		SessionID string `json:"session_id"`
	}
	decodeBody(t, rec, &started)

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/actions", map[string]string{"action": "help"})
	if rec.Code != http.StatusOK {
		t.Fatalf("help: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/actions", map[string]string{"action": "dance"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/sessions/"+started.SessionID+"/close", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double close, got %d", rec.Code)
	}
}

func TestSelfServiceTokenRequired(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/self-service/sessions", map[string]string{"token": "not-a-token"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bogus token, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/self-service/sessions", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", rec.Code)
	}
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/reports/journey-map", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("journey map: %d", rec.Code)
	}
	var body struct {
		Stages []struct {
			Stage string `json:"stage"`
		} `json:"stages"`
	}
	decodeBody(t, rec, &body)
	if len(body.Stages) != journey.StageCount {
		t.Fatalf("expected %d stages, got %d", journey.StageCount, len(body.Stages))
	}

	for _, path := range []string{
		"/v1/reports/processes",
		"/v1/reports/systems",
		"/v1/reports/gaps",
		"/v1/reports/conflicts",
		"/v1/reports/executive",
	} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestGapStatusValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/v1/gaps/GAP-001/status", map[string]string{"status": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/v1/gaps/GAP-001/status", map[string]string{"status": "resolved"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing gap, got %d", rec.Code)
	}
}

func TestProjectEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/project", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("project state: %d", rec.Code)
	}
	var state struct {
		Completion journey.Completion `json:"completion"`
	}
	decodeBody(t, rec, &state)
	if state.Completion.JourneyStagesTotal != journey.StageCount {
		t.Fatalf("unexpected completion: %+v", state.Completion)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/project/recalculate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recalculate: %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/v1/project/seed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed: %d", rec.Code)
	}
}
