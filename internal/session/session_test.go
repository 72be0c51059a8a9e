// File path: internal/session/session_test.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/project"
	"github.com/mapline/guestjourney/internal/store"
)

type scriptedProvider struct {
	responses []string
	calls     int
	lastSeen  []llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	p.lastSeen = messages
	if p.calls >= len(p.responses) {
		return "", errors.New("no scripted response left")
	}
	out := p.responses[p.calls]
	p.calls++
	return out, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func replyJSON(t *testing.T, reply journey.StructuredReply) string {
	t.Helper()
	serialized, err := json.Marshal(reply)
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return string(serialized)
}

func plainReply(t *testing.T, text, stage string) string {
	t.Helper()
	return replyJSON(t, journey.StructuredReply{
		Reply:             text,
		ConversationState: journey.ConversationState{CurrentStage: stage, StageCompletionEstimate: 0.3},
	})
}

func newTestOrchestrator(t *testing.T, provider llm.Provider) (*Orchestrator, *store.Store) {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	projects := project.NewManager(s, "", "Test Hotels")
	if _, err := projects.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewOrchestrator(s, llm.NewGateway(provider), projects), s
}

func startSession(t *testing.T, o *Orchestrator, stages ...string) *StartResult {
	t.Helper()
	started, err := o.Start(context.Background(), StartRequest{
		Name:        "Maria Lopez",
		Role:        "Front Office Manager",
		Department:  "Front Office",
		StagesOwned: stages,
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return started
}

func TestStartCreatesSMEAndSession(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{} // opening message falls back to the static greeting
	o, s := newTestOrchestrator(t, provider)

	started := startSession(t, o, "check_in", "in_stay")

	if started.SMEID != "SME-001" || started.SessionID != "SESSION-001" {
		t.Fatalf("unexpected ids: %+v", started)
	}
	if started.CurrentStage != "check_in" {
		t.Fatalf("expected first owned stage, got %q", started.CurrentStage)
	}
	if !strings.Contains(started.OpeningMessage, "Maria Lopez") {
		t.Fatalf("fallback opening should greet the SME: %q", started.OpeningMessage)
	}

	sme, err := s.SMEByID(ctx, "SME-001")
	if err != nil {
		t.Fatalf("load sme: %v", err)
	}
	if sme.InterviewStatus != journey.InterviewInProgress {
		t.Fatalf("expected in_progress, got %q", sme.InterviewStatus)
	}
	messages, err := s.MessagesBySession(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != journey.RoleAgent {
		t.Fatalf("expected exactly the opening agent message, got %d", len(messages))
	}
}

func TestStartWithoutSMEFails(t *testing.T) {
	o, _ := newTestOrchestrator(t, &scriptedProvider{})
	if _, err := o.Start(context.Background(), StartRequest{}); !errors.Is(err, ErrSMERequired) {
		t.Fatalf("expected ErrSMERequired, got %v", err)
	}
}

func TestProcessTurnPersistsMessagePairAndExtraction(t *testing.T) {
	ctx := context.Background()
	turn := replyJSON(t, journey.StructuredReply{
		Reply: "Got it. Which modules of Opera do you use daily?",
		Extractions: journey.Extractions{Systems: []journey.SystemExtraction{{
			SystemName: "Opera PMS", Vendor: "Oracle", Category: "PMS", IsNew: true,
		}}},
		ConversationState: journey.ConversationState{CurrentStage: "check_in", StageCompletionEstimate: 0.4},
	})
	// the first scripted response serves the opening message
	provider := &scriptedProvider{responses: []string{"Hello Maria, let's map the check-in stage.", turn}}
	o, s := newTestOrchestrator(t, provider)
	started := startSession(t, o, "check_in")

	result, err := o.ProcessTurn(ctx, started.SessionID, "We run everything through Opera PMS from Oracle.")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if result.State.CurrentStage != "check_in" {
		t.Fatalf("unexpected state: %+v", result.State)
	}
	if result.Extractions == nil || len(result.Extractions.Systems) != 1 || result.Extractions.Systems[0].Action != "created" {
		t.Fatalf("expected system creation in summary: %+v", result.Extractions)
	}

	row, err := s.SystemByID(ctx, "SYS-001")
	if err != nil {
		t.Fatalf("system not persisted: %v", err)
	}
	if row.Name != "Opera PMS" {
		t.Fatalf("unexpected system: %+v", row)
	}

	messages, err := s.MessagesBySession(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	// opening + user + agent
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[1].Role != journey.RoleUser || messages[2].Role != journey.RoleAgent {
		t.Fatalf("message pair out of order: %s then %s", messages[1].Role, messages[2].Role)
	}
	if messages[2].CreatedAt <= messages[1].CreatedAt {
		t.Fatalf("agent timestamp must sort after user timestamp")
	}

	session, err := s.SessionByID(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.State().StageCompletionEstimate != 0.4 {
		t.Fatalf("session state not refreshed: %+v", session.State())
	}
}

func TestProcessTurnDoubleParseFailurePersistsNothing(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{responses: []string{"welcome", "not json", "still not json"}}
	o, s := newTestOrchestrator(t, provider)
	started := startSession(t, o, "check_in")

	_, err := o.ProcessTurn(ctx, started.SessionID, "hello")
	if !errors.Is(err, llm.ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	messages, loadErr := s.MessagesBySession(ctx, started.SessionID)
	if loadErr != nil {
		t.Fatalf("load messages: %v", loadErr)
	}
	// only the opening message survives a failed turn
	if len(messages) != 1 {
		t.Fatalf("failed turn must persist nothing, got %d messages", len(messages))
	}
}

func TestProcessTurnRejectsClosedSession(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{}
	o, _ := newTestOrchestrator(t, provider)
	started := startSession(t, o, "check_in")

	if _, err := o.Close(ctx, started.SessionID); err != nil {
		t.Fatalf("close: %v", err)
	}
	_, err := o.ProcessTurn(ctx, started.SessionID, "anyone there?")
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestProcessTurnRejectsEmptyMessage(t *testing.T) {
	o, _ := newTestOrchestrator(t, &scriptedProvider{})
	if _, err := o.ProcessTurn(context.Background(), "SESSION-001", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestPauseThenMessageResumes(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{responses: []string{"welcome", plainReply(t, "Welcome back, where were we?", "check_in")}}
	o, s := newTestOrchestrator(t, provider)
	started := startSession(t, o, "check_in")

	paused, err := o.QuickAction(ctx, started.SessionID, "pause", "")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Action != "pause" {
		t.Fatalf("unexpected action result: %+v", paused)
	}
	session, err := s.SessionByID(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != journey.SessionPaused {
		t.Fatalf("expected paused, got %q", session.Status)
	}

	if _, err := o.ProcessTurn(ctx, started.SessionID, "back now"); err != nil {
		t.Fatalf("resume turn: %v", err)
	}
	session, err = s.SessionByID(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != journey.SessionActive {
		t.Fatalf("message must reactivate a paused session, got %q", session.Status)
	}
}

func TestQuickActionNextRoutesThroughModel(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{responses: []string{"welcome", plainReply(t, "Moving on to in-stay.", "in_stay")}}
	o, _ := newTestOrchestrator(t, provider)
	started := startSession(t, o, "check_in")

	result, err := o.QuickAction(ctx, started.SessionID, "next", "")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if result.Turn == nil || result.State.CurrentStage != "in_stay" {
		t.Fatalf("expected model-driven stage change, got %+v", result)
	}
	last := provider.lastSeen[len(provider.lastSeen)-1]
	if !strings.HasPrefix(last.Content, "COMMAND:NEXT") {
		t.Fatalf("expected COMMAND:NEXT routed to model, got %q", last.Content)
	}
}

func TestQuickActionUnknownFails(t *testing.T) {
	o, _ := newTestOrchestrator(t, &scriptedProvider{})
	if _, err := o.QuickAction(context.Background(), "SESSION-001", "dance", ""); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestCloseUsesCountingFallbackSummary(t *testing.T) {
	ctx := context.Background()
	// script one turn; the close-time summary call finds no script left and
	// the orchestrator degrades to the counting summary
	turn := replyJSON(t, journey.StructuredReply{
		Reply: "Noted.",
		Extractions: journey.Extractions{Gaps: []journey.GapExtraction{{
			Title: "No overbooking playbook",
		}}},
		ConversationState: journey.ConversationState{CurrentStage: "booking"},
	})
	provider := &scriptedProvider{responses: []string{"welcome", turn}}
	o, s := newTestOrchestrator(t, provider)
	started := startSession(t, o, "booking")

	if _, err := o.ProcessTurn(ctx, started.SessionID, "We have no overbooking playbook."); err != nil {
		t.Fatalf("turn: %v", err)
	}
	closed, err := o.Close(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !strings.Contains(closed.Summary, "1 gaps") {
		t.Fatalf("expected counting summary, got %q", closed.Summary)
	}

	session, err := s.SessionByID(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Status != journey.SessionClosed || session.ClosedAt == "" {
		t.Fatalf("session not closed: %+v", session)
	}
	sme, err := s.SMEByID(ctx, started.SMEID)
	if err != nil {
		t.Fatalf("load sme: %v", err)
	}
	if sme.InterviewStatus != journey.InterviewCompleted {
		t.Fatalf("expected completed, got %q", sme.InterviewStatus)
	}
}

func TestSelfServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	provider := &scriptedProvider{responses: []string{"welcome aboard", plainReply(t, "Thanks, tell me more.", "discovery")}}
	o, s := newTestOrchestrator(t, provider)

	now := store.Now()
	if err := s.InsertSME(ctx, store.SMERow{
		SMEID: "SME-001", FullName: "Jordan Kim", Role: "Reservations Lead",
		StagesOwnedJSON: "[]", DomainsJSON: "[]", SystemsUsedJSON: "[]",
		InterviewStatus: journey.InterviewPending, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("insert sme: %v", err)
	}

	link, err := o.IssueLink(ctx, "SME-001")
	if err != nil {
		t.Fatalf("issue link: %v", err)
	}
	sme, err := s.SMEByID(ctx, "SME-001")
	if err != nil {
		t.Fatalf("load sme: %v", err)
	}
	if sme.InterviewStatus != journey.InterviewLinkSent {
		t.Fatalf("expected link_sent, got %q", sme.InterviewStatus)
	}

	started, err := o.StartSelfService(ctx, link.Token)
	if err != nil {
		t.Fatalf("start self service: %v", err)
	}
	session, err := s.SessionByID(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if session.Method != journey.MethodSelfService {
		t.Fatalf("expected self-service method, got %q", session.Method)
	}

	// the single-active rule: a second start resumes the same session
	again, err := o.StartSelfService(ctx, link.Token)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if again.SessionID != started.SessionID {
		t.Fatalf("expected session reuse, got %s then %s", started.SessionID, again.SessionID)
	}

	if _, err := o.SelfServiceTurn(ctx, link.Token, started.SessionID, "I handle group bookings."); err != nil {
		t.Fatalf("self service turn: %v", err)
	}
	if _, err := o.SelfServiceTurn(ctx, "bogus-token", started.SessionID, "hi"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestStartRejectsUnknownStage(t *testing.T) {
	o, _ := newTestOrchestrator(t, &scriptedProvider{})
	_, err := o.Start(context.Background(), StartRequest{
		Name:        "Alex Chen",
		StagesOwned: []string{"teleportation"},
	})
	if !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}

func TestExtractionScopedToStageBeforeAdvance(t *testing.T) {
	ctx := context.Background()
	turn := replyJSON(t, journey.StructuredReply{
		Reply: "Great. Let's talk about how guests book with you.",
		Extractions: journey.Extractions{ProcessSteps: []journey.ProcessStepExtraction{
			{Description: "Guests compare rates on travel blogs"},
		}},
		ConversationState: journey.ConversationState{CurrentStage: "booking", StageCompletionEstimate: 0.8},
	})
	provider := &scriptedProvider{responses: []string{"welcome", turn}}
	o, s := newTestOrchestrator(t, provider)
	started := startSession(t, o) // no owned stages, session opens in discovery

	result, err := o.ProcessTurn(ctx, started.SessionID, "Most guests discover us through travel blogs.")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if result.State.CurrentStage != "booking" {
		t.Fatalf("reply should advance the conversation: %+v", result.State)
	}

	row, err := s.ProcessByID(ctx, "PROC-001")
	if err != nil {
		t.Fatalf("load process: %v", err)
	}
	// the SME was answering about discovery; the stage only advances after
	// the answer is filed
	if row.JourneyStage != "discovery" {
		t.Fatalf("extraction must keep the stage the SME answered about, got %q", row.JourneyStage)
	}
}

func TestExtractionsStayWithinTheirSession(t *testing.T) {
	ctx := context.Background()
	turn := replyJSON(t, journey.StructuredReply{
		Reply: "Noted, logging the channel manager.",
		Extractions: journey.Extractions{Systems: []journey.SystemExtraction{{
			SystemName: "SiteMinder", Category: "channel manager", IsNew: true,
		}}},
		ConversationState: journey.ConversationState{CurrentStage: "booking"},
	})
	provider := &scriptedProvider{responses: []string{"welcome one", "welcome two", turn}}
	o, s := newTestOrchestrator(t, provider)
	first := startSession(t, o, "booking")
	second, err := o.Start(ctx, StartRequest{
		Name: "Jordan Kim", Role: "Reservations Lead", StagesOwned: []string{"booking"},
	})
	if err != nil {
		t.Fatalf("start second session: %v", err)
	}

	if _, err := o.ProcessTurn(ctx, first.SessionID, "We distribute rates through SiteMinder."); err != nil {
		t.Fatalf("turn: %v", err)
	}

	row, err := s.SystemByID(ctx, "SYS-001")
	if err != nil {
		t.Fatalf("load system: %v", err)
	}
	if row.OwnerSMEID != first.SMEID {
		t.Fatalf("expected owner %s, got %q", first.SMEID, row.OwnerSMEID)
	}
	if got := row.SourceSMEs(); len(got) != 1 || got[0] != first.SMEID {
		t.Fatalf("system attributed beyond the interviewed SME: %v", got)
	}
	if got := row.Users(); len(got) != 1 || got[0] != first.SMEID {
		t.Fatalf("unexpected system users: %v", got)
	}
	messages, err := s.MessagesBySession(ctx, second.SessionID)
	if err != nil {
		t.Fatalf("load other transcript: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("other session transcript must stay untouched, got %d messages", len(messages))
	}
}
