// File path: internal/session/lifecycle.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/store"
)

// StartRequest opens a new interview session. Either SMEID references an
// existing SME, or Name is given and a new SME record is created inline.
type StartRequest struct {
	SMEID         string   `json:"sme_id"`
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Department    string   `json:"department"`
	Email         string   `json:"email"`
	StagesOwned   []string `json:"stages_owned"`
	InterviewerID string   `json:"interviewer_id"`
	Method        string   `json:"method"`
}

// StartResult reports the opened session and its first agent message.
type StartResult struct {
	SessionID      string `json:"session_id"`
	SMEID          string `json:"sme_id"`
	OpeningMessage string `json:"opening_message"`
	CurrentStage   string `json:"current_stage"`
}

var (
	// ErrSMERequired reports a start request naming neither an SME id nor a name.
	ErrSMERequired = errors.New("sme_id or name is required")
	// ErrUnknownStage reports a stage name outside the journey stage enum.
	ErrUnknownStage = errors.New("unknown journey stage")
)

// Start opens a session, creating the SME inline when only a name was given,
// and generates the opening agent message.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	sme, err := o.resolveSME(ctx, req)
	if err != nil {
		return nil, err
	}

	sessionID, err := o.alloc.Next(ctx, ids.PrefixSession)
	if err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = journey.MethodInterview
	}
	stage := initialStage(sme.StagesOwned())
	state := journey.ConversationState{CurrentStage: stage}

	now := store.Now()
	if err := o.store.InsertSession(ctx, store.SessionRow{
		SessionID:     sessionID,
		SMEID:         sme.SMEID,
		InterviewerID: req.InterviewerID,
		Method:        method,
		Status:        journey.SessionActive,
		StateJSON:     encodeJSON(state),
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}

	opening := o.openingMessage(ctx, sme, stage)
	msgID, err := o.alloc.Next(ctx, ids.PrefixMessage)
	if err != nil {
		return nil, err
	}
	if err := o.store.InsertMessage(ctx, store.MessageRow{
		MessageID: msgID,
		SessionID: sessionID,
		Role:      journey.RoleAgent,
		Content:   opening,
		StateJSON: encodeJSON(state),
		CreatedAt: store.Now(),
	}); err != nil {
		return nil, err
	}

	if sme.InterviewStatus == journey.InterviewPending || sme.InterviewStatus == journey.InterviewLinkSent {
		if err := o.store.UpdateSME(ctx, sme.ID, store.Fields{
			"interview_status": journey.InterviewInProgress,
			"updated_at":       store.Now(),
		}); err != nil {
			common.Logger().Warn("session: sme status transition failed", "sme_id", sme.SMEID, "error", err)
		}
	}

	return &StartResult{
		SessionID:      sessionID,
		SMEID:          sme.SMEID,
		OpeningMessage: opening,
		CurrentStage:   stage,
	}, nil
}

func (o *Orchestrator) resolveSME(ctx context.Context, req StartRequest) (*store.SMERow, error) {
	if req.SMEID != "" {
		return o.store.SMEByID(ctx, req.SMEID)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrSMERequired
	}
	stages, err := normalizeStages(req.StagesOwned)
	if err != nil {
		return nil, err
	}
	smeID, err := o.alloc.Next(ctx, ids.PrefixSME)
	if err != nil {
		return nil, err
	}
	now := store.Now()
	row := store.SMERow{
		SMEID:           smeID,
		FullName:        strings.TrimSpace(req.Name),
		Role:            req.Role,
		Department:      req.Department,
		Email:           req.Email,
		StagesOwnedJSON: encodeJSON(stages),
		DomainsJSON:     "[]",
		SystemsUsedJSON: "[]",
		InterviewStatus: journey.InterviewPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := o.store.InsertSME(ctx, row); err != nil {
		return nil, err
	}
	return o.store.SMEByID(ctx, smeID)
}

// openingMessage asks the model for a tailored greeting and degrades to a
// static one when the provider fails.
func (o *Orchestrator) openingMessage(ctx context.Context, sme *store.SMERow, stage string) string {
	systemPrompt, err := o.buildSystemPrompt(ctx, sme, journey.ConversationState{CurrentStage: stage})
	if err == nil {
		kickoff := fmt.Sprintf("SESSION_START: Begin the interview with %s (%s, %s). Greet them, explain the goal of mapping the guest journey, and ask your first question about the %s stage.",
			sme.FullName, sme.Role, sme.Department, stage)
		reply, genErr := o.gateway.GenerateSummary(ctx, systemPrompt, []llm.Message{{Role: "user", Content: kickoff}})
		if genErr == nil && strings.TrimSpace(reply.Reply) != "" {
			return reply.Reply
		}
		err = genErr
	}
	if err != nil {
		common.Logger().Warn("session: opening message generation failed", "sme_id", sme.SMEID, "error", err)
	}
	return fmt.Sprintf("Welcome %s. We will map the guest journey together, starting with the %s stage. What does a typical day in your area look like?",
		sme.FullName, stage)
}

// ResumeResult returns everything a client needs to continue a session.
type ResumeResult struct {
	Session  *store.SessionRow         `json:"session"`
	State    journey.ConversationState `json:"conversation_state"`
	Messages []store.MessageRow        `json:"messages"`
}

// Resume loads a session and its transcript for continuation. Closed
// sessions are rejected; a paused session reactivates on its next message.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string) (*ResumeResult, error) {
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == journey.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	}
	messages, err := o.store.MessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &ResumeResult{Session: session, State: session.State(), Messages: messages}, nil
}

// CloseResult reports the outcome of closing a session.
type CloseResult struct {
	SessionID       string `json:"session_id"`
	Summary         string `json:"summary"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Close ends the session: it summarises the conversation, records duration,
// and advances the SME's interview status.
func (o *Orchestrator) Close(ctx context.Context, sessionID string) (*CloseResult, error) {
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == journey.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	}
	messages, err := o.store.MessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	summary := o.closingSummary(ctx, messages)
	duration := sessionDuration(session.CreatedAt)

	if err := o.store.UpdateSession(ctx, session.ID, store.Fields{
		"status":           journey.SessionClosed,
		"summary":          summary,
		"duration_minutes": duration,
		"closed_at":        store.Now(),
	}); err != nil {
		return nil, err
	}

	if sme, err := o.store.SMEByID(ctx, session.SMEID); err == nil {
		if sme.InterviewStatus != journey.InterviewValidated {
			if err := o.store.UpdateSME(ctx, sme.ID, store.Fields{
				"interview_status": journey.InterviewCompleted,
				"updated_at":       store.Now(),
			}); err != nil {
				common.Logger().Warn("session: sme completion transition failed", "sme_id", sme.SMEID, "error", err)
			}
		}
	}
	o.projects.TryRecalculate(ctx)

	return &CloseResult{SessionID: sessionID, Summary: summary, DurationMinutes: duration}, nil
}

// closingSummary asks the model to summarise the interview and falls back to
// counting what was captured when the provider cannot help.
func (o *Orchestrator) closingSummary(ctx context.Context, messages []store.MessageRow) string {
	transcript := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		role := "user"
		if msg.Role == journey.RoleAgent {
			role = "assistant"
		}
		transcript = append(transcript, llm.Message{Role: role, Content: msg.Content})
	}
	transcript = append(transcript, llm.Message{
		Role:    "user",
		Content: "The interview is ending. Summarise in 3-5 sentences what was covered, what was captured, and what remains open.",
	})

	const instruction = "You summarise completed guest journey interviews for the project record. Respond with plain prose."
	if reply, err := o.gateway.GenerateSummary(ctx, instruction, transcript); err == nil && strings.TrimSpace(reply.Reply) != "" {
		return reply.Reply
	}

	counts := countExtractions(messages)
	return fmt.Sprintf("Interview captured %d systems, %d process steps, %d gaps, and %d journey touchpoints across %d messages.",
		counts.systems, counts.steps, counts.gaps, counts.touchpoints, len(messages))
}

type extractionCounts struct {
	systems, steps, gaps, touchpoints int
}

func countExtractions(messages []store.MessageRow) extractionCounts {
	var counts extractionCounts
	for _, msg := range messages {
		if msg.Role != journey.RoleAgent {
			continue
		}
		ext := msg.Extractions()
		counts.systems += len(ext.Systems)
		counts.steps += len(ext.ProcessSteps)
		counts.gaps += len(ext.Gaps)
		counts.touchpoints += len(ext.JourneyTouchpoints)
	}
	return counts
}

func sessionDuration(createdAt string) int {
	started, err := time.Parse(store.TimeFormat, createdAt)
	if err != nil {
		return 0
	}
	minutes := int(time.Since(started).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// initialStage picks the first owned stage in journey order, defaulting to
// discovery.
func initialStage(owned []string) string {
	for _, stage := range journey.StageOrder {
		for _, o := range owned {
			if journey.NormalizeStage(o, "") == stage {
				return string(stage)
			}
		}
	}
	return string(journey.StageDiscovery)
}

// normalizeStages lowercases the requested stages and rejects any name the
// journey enum does not know, matching the SME registry contract.
func normalizeStages(stages []string) ([]string, error) {
	out := []string{}
	for _, s := range stages {
		if strings.TrimSpace(s) == "" {
			continue
		}
		normalized := journey.NormalizeStage(s, "")
		if normalized == "" {
			return nil, fmt.Errorf("%w %q", ErrUnknownStage, s)
		}
		out = append(out, string(normalized))
	}
	return out, nil
}
