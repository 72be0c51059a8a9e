// File path: internal/session/orchestrator.go

// Package session orchestrates interview conversations: the per-turn
// pipeline, session lifecycle, quick actions, and the SME self-service
// entry path.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langgraphgo/graph"
	"golang.org/x/sync/errgroup"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/conflict"
	"github.com/mapline/guestjourney/internal/extract"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/project"
	"github.com/mapline/guestjourney/internal/prompt"
	"github.com/mapline/guestjourney/internal/store"
)

// historyTail is the number of most recent messages replayed to the model.
const historyTail = 20

var (
	// ErrSessionClosed reports a turn against a closed session.
	ErrSessionClosed = errors.New("session is closed")
	// ErrEmptyMessage reports a blank user message.
	ErrEmptyMessage = errors.New("message is empty")
)

// Orchestrator runs interview turns end to end.
type Orchestrator struct {
	store     *store.Store
	gateway   *llm.Gateway
	processor *extract.Processor
	detector  *conflict.Detector
	projects  *project.Manager
	alloc     *ids.Allocator
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(s *store.Store, gateway *llm.Gateway, projects *project.Manager) *Orchestrator {
	alloc := ids.New(s)
	return &Orchestrator{
		store:     s,
		gateway:   gateway,
		processor: extract.NewProcessor(s, alloc),
		detector:  conflict.NewDetector(s, alloc),
		projects:  projects,
		alloc:     alloc,
	}
}

// TurnResult is what one completed turn returns to the caller.
type TurnResult struct {
	SessionID     string                    `json:"session_id"`
	Reply         string                    `json:"reply"`
	State         journey.ConversationState `json:"conversation_state"`
	ConflictIDs   []string                  `json:"conflict_ids,omitempty"`
	OpenQuestions []journey.OpenQuestion    `json:"open_questions,omitempty"`
	Extractions   *extract.Summary          `json:"extractions,omitempty"`
}

// turnState is the shared context the graph nodes close over. The graph's
// message list carries the transcript; everything else lives here.
type turnState struct {
	session      *store.SessionRow
	sme          *store.SMERow
	stage        string
	systemPrompt string
	reply        *journey.StructuredReply
	summary      *extract.Summary
	conflictIDs  []string
}

// ProcessTurn runs one full interview turn: context assembly, generation,
// extraction, conflict recording, persistence.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, userMessage string) (*TurnResult, error) {
	if strings.TrimSpace(userMessage) == "" {
		return nil, ErrEmptyMessage
	}
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == journey.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	}
	sme, err := o.store.SMEByID(ctx, session.SMEID)
	if err != nil {
		return nil, fmt.Errorf("load sme for session %s: %w", sessionID, err)
	}

	history, err := o.store.MessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(history) > historyTail {
		history = history[len(history)-historyTail:]
	}

	state := session.State()
	systemPrompt, err := o.buildSystemPrompt(ctx, sme, state)
	if err != nil {
		return nil, err
	}

	// Extractions are scoped to the stage the SME was answering about, which
	// is the stage before the model advances the conversation.
	stage := state.CurrentStage
	if stage == "" {
		stage = string(journey.StageDiscovery)
	}
	ts := &turnState{session: session, sme: sme, stage: stage, systemPrompt: systemPrompt}
	transcript := transcriptMessages(history, userMessage)
	if err := o.runPipeline(ctx, ts, transcript); err != nil {
		return nil, err
	}

	if err := o.persistTurn(ctx, ts, userMessage); err != nil {
		return nil, err
	}

	if len(ts.reply.OpenQuestions) > 0 {
		for i := range ts.reply.OpenQuestions {
			if ts.reply.OpenQuestions[i].SessionID == "" {
				ts.reply.OpenQuestions[i].SessionID = sessionID
			}
		}
		if err := o.projects.AppendOpenQuestions(ctx, ts.reply.OpenQuestions); err != nil {
			common.Logger().Warn("session: saving open questions failed", "session_id", sessionID, "error", err)
		}
	}
	o.projects.TryRecalculate(ctx)

	return &TurnResult{
		SessionID:     sessionID,
		Reply:         ts.reply.Reply,
		State:         ts.reply.ConversationState,
		ConflictIDs:   ts.conflictIDs,
		OpenQuestions: ts.reply.OpenQuestions,
		Extractions:   ts.summary,
	}, nil
}

// runPipeline executes the generate, extract, and conflict stages as a
// compiled message graph over the conversation transcript.
func (o *Orchestrator) runPipeline(ctx context.Context, ts *turnState, transcript []llms.MessageContent) error {
	g := graph.NewMessageGraph()

	g.AddNode("generate", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		reply, err := o.gateway.Generate(ctx, ts.systemPrompt, toGatewayMessages(state))
		if err != nil {
			return state, err
		}
		ts.reply = reply
		return append(state, llms.TextParts(llms.ChatMessageTypeAI, reply.Reply)), nil
	})

	g.AddNode("extract", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		if !ts.reply.Extractions.Empty() {
			ts.summary = o.processor.Apply(ctx, ts.reply.Extractions,
				ts.sme.SMEID, ts.session.SessionID, ts.actorID(), ts.stage)
		}
		return state, nil
	})

	g.AddNode("conflicts", func(ctx context.Context, state []llms.MessageContent) ([]llms.MessageContent, error) {
		if len(ts.reply.ConflictsDetected) > 0 {
			ts.conflictIDs = o.detector.Apply(ctx, ts.reply.ConflictsDetected, ts.sme.SMEID, ts.actorID())
		}
		return state, nil
	})

	g.AddEdge("generate", "extract")
	g.AddEdge("extract", "conflicts")
	g.AddEdge("conflicts", graph.END)
	g.SetEntryPoint("generate")

	runnable, err := g.Compile()
	if err != nil {
		return fmt.Errorf("compile turn pipeline: %w", err)
	}
	if _, err := runnable.Invoke(ctx, transcript); err != nil {
		return fmt.Errorf("turn pipeline: %w", err)
	}
	return nil
}

func (ts *turnState) actorID() string {
	if ts.session.InterviewerID != "" {
		return ts.session.InterviewerID
	}
	return ts.sme.SMEID
}

// buildSystemPrompt assembles the full instruction text. The snapshot loads
// run in parallel; any single failure aborts the turn before generation.
func (o *Orchestrator) buildSystemPrompt(ctx context.Context, sme *store.SMERow, state journey.ConversationState) (string, error) {
	stage := state.CurrentStage
	if stage == "" {
		stage = string(journey.StageDiscovery)
	}

	var (
		snapshot  prompt.Snapshot
		conflicts []prompt.ConflictSummary
		questions []journey.OpenQuestion
	)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		systems, err := o.store.ListSystems(gctx)
		if err != nil {
			return err
		}
		for _, row := range systems {
			snapshot.Systems = append(snapshot.Systems, prompt.SystemSummary{
				SystemID:   row.SystemID,
				Name:       row.Name,
				Category:   row.Category,
				SourceSMEs: row.SourceSMEs(),
			})
		}
		return nil
	})
	group.Go(func() error {
		processes, err := o.store.ProcessesByStage(gctx, stage)
		if err != nil {
			return err
		}
		for _, row := range processes {
			snapshot.Processes = append(snapshot.Processes, prompt.ProcessSummary{
				ProcessID:    row.ProcessID,
				Name:         row.Name,
				StepsSummary: stepsSummary(row.Steps()),
				SourceSMEs:   row.SourceSMEs(),
			})
		}
		return nil
	})
	group.Go(func() error {
		gaps, err := o.store.GapsByStatus(gctx, journey.GapOpen, journey.GapInProgress)
		if err != nil {
			return err
		}
		for _, row := range gaps {
			snapshot.Gaps = append(snapshot.Gaps, prompt.GapSummary{
				GapID:   row.GapID,
				Title:   row.Title,
				GapType: row.GapType,
			})
		}
		return nil
	})
	group.Go(func() error {
		rows, err := o.store.OpenConflictsForSME(gctx, sme.SMEID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			conflicts = append(conflicts, prompt.ConflictSummary{
				ConflictID:  row.ConflictID,
				Type:        row.ConflictType,
				Description: row.Description,
				SMEA:        row.SMEAID,
				SMEB:        row.SMEBID,
			})
		}
		return nil
	})
	group.Go(func() error {
		row, err := o.projects.State(gctx)
		if err != nil {
			return err
		}
		questions = row.OpenQuestions()
		return nil
	})
	if err := group.Wait(); err != nil {
		return "", fmt.Errorf("load knowledge snapshot: %w", err)
	}

	return prompt.Build(prompt.Input{
		SMEName:       sme.FullName,
		SMERole:       sme.Role,
		SMEDepartment: sme.Department,
		StagesOwned:   sme.StagesOwned(),
		State:         state,
		Records:       snapshot,
		OpenConflicts: conflicts,
		OpenQuestions: questions,
	}), nil
}

// persistTurn writes the user and agent message pair and refreshes session
// state. The agent timestamp is offset one millisecond after the user's so
// lexicographic ordering keeps the pair in conversation order.
func (o *Orchestrator) persistTurn(ctx context.Context, ts *turnState, userMessage string) error {
	userID, err := o.alloc.Next(ctx, ids.PrefixMessage)
	if err != nil {
		return err
	}
	agentID, err := o.alloc.Next(ctx, ids.PrefixMessage)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if err := o.store.InsertMessage(ctx, store.MessageRow{
		MessageID: userID,
		SessionID: ts.session.SessionID,
		Role:      journey.RoleUser,
		Content:   userMessage,
		CreatedAt: store.FormatTime(now),
	}); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}
	if err := o.store.InsertMessage(ctx, store.MessageRow{
		MessageID:       agentID,
		SessionID:       ts.session.SessionID,
		Role:            journey.RoleAgent,
		Content:         ts.reply.Reply,
		ExtractionsJSON: encodeJSON(ts.reply.Extractions),
		ConflictsJSON:   encodeJSON(ts.reply.ConflictsDetected),
		QuestionsJSON:   encodeJSON(ts.reply.OpenQuestions),
		StateJSON:       encodeJSON(ts.reply.ConversationState),
		CreatedAt:       store.FormatTime(now.Add(time.Millisecond)),
	}); err != nil {
		return fmt.Errorf("persist agent message: %w", err)
	}

	fields := store.Fields{"state_json": encodeJSON(ts.reply.ConversationState)}
	if ts.session.Status == journey.SessionPaused {
		fields["status"] = journey.SessionActive
	}
	if err := o.store.UpdateSession(ctx, ts.session.ID, fields); err != nil {
		return fmt.Errorf("update session state: %w", err)
	}
	return nil
}

// transcriptMessages converts stored history plus the incoming message into
// the graph's transcript form.
func transcriptMessages(history []store.MessageRow, userMessage string) []llms.MessageContent {
	transcript := make([]llms.MessageContent, 0, len(history)+1)
	for _, msg := range history {
		role := llms.ChatMessageTypeHuman
		if msg.Role == journey.RoleAgent {
			role = llms.ChatMessageTypeAI
		}
		transcript = append(transcript, llms.TextParts(role, msg.Content))
	}
	return append(transcript, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))
}

// toGatewayMessages flattens graph transcript messages into the provider's
// role and content pairs.
func toGatewayMessages(transcript []llms.MessageContent) []llm.Message {
	messages := make([]llm.Message, 0, len(transcript))
	for _, msg := range transcript {
		role := "user"
		if msg.Role == llms.ChatMessageTypeAI {
			role = "assistant"
		}
		var text strings.Builder
		for _, part := range msg.Parts {
			if tc, ok := part.(llms.TextContent); ok {
				text.WriteString(tc.Text)
			}
		}
		messages = append(messages, llm.Message{Role: role, Content: text.String()})
	}
	return messages
}

// encodeJSON serialises v for a JSON text column, falling back to the empty
// object on marshal failure so the column never holds invalid JSON.
func encodeJSON(v interface{}) string {
	serialized, err := json.Marshal(v)
	if err != nil {
		common.Logger().Warn("session: json encode failed", "error", err)
		return "{}"
	}
	return string(serialized)
}

func stepsSummary(steps []journey.ProcessStepExtraction) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		if desc := strings.TrimSpace(s.Description); desc != "" {
			parts = append(parts, desc)
		}
	}
	summary := strings.Join(parts, "; ")
	if len(summary) > 200 {
		summary = summary[:200]
	}
	return summary
}
