// File path: internal/session/quickaction.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/store"
)

// ErrUnknownAction reports an unrecognised quick action name.
var ErrUnknownAction = errors.New("unknown quick action")

// ActionResult is the uniform quick action response. Turn carries a full
// pipeline result when the action was routed through the model; otherwise
// Reply is a direct answer.
type ActionResult struct {
	Action string                    `json:"action"`
	Reply  string                    `json:"reply,omitempty"`
	Turn   *TurnResult               `json:"turn,omitempty"`
	Close  *CloseResult              `json:"close,omitempty"`
	State  journey.ConversationState `json:"conversation_state,omitempty"`
}

// QuickAction executes a named interviewer shortcut. Stage navigation and
// corrections route through the full turn pipeline so the model stays the
// stage-transition authority; the rest are answered directly.
func (o *Orchestrator) QuickAction(ctx context.Context, sessionID, action, detail string) (*ActionResult, error) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "next":
		return o.commandTurn(ctx, sessionID, "next",
			"COMMAND:NEXT. The interviewer wants to advance to the next journey stage. Briefly summarise what was covered in the current stage, then open the next stage with a question.")
	case "back":
		return o.commandTurn(ctx, sessionID, "back",
			"COMMAND:BACK. The interviewer wants to return to the previous journey stage. Acknowledge and resume that stage where it left off.")
	case "correct":
		message := "COMMAND:CORRECT. The previous statement needs correcting. Ask what should be corrected, then update your understanding."
		if strings.TrimSpace(detail) != "" {
			message = fmt.Sprintf("COMMAND:CORRECT. The interviewer corrects the record: %s. Acknowledge the correction and re-extract the affected facts.", detail)
		}
		return o.commandTurn(ctx, sessionID, "correct", message)
	case "pause":
		return o.pause(ctx, sessionID)
	case "summary":
		return o.sessionSummary(ctx, sessionID)
	case "status":
		return o.projectStatus(ctx, sessionID)
	case "help":
		return &ActionResult{Action: "help", Reply: helpText}, nil
	case "done":
		closed, err := o.Close(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &ActionResult{Action: "done", Reply: closed.Summary, Close: closed}, nil
	default:
		return nil, fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}
}

const helpText = "Quick actions: next (advance stage), back (previous stage), correct (fix the record), pause (suspend session), summary (what this session captured), status (project progress), done (close the interview)."

func (o *Orchestrator) commandTurn(ctx context.Context, sessionID, action, message string) (*ActionResult, error) {
	turn, err := o.ProcessTurn(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}
	return &ActionResult{Action: action, Reply: turn.Reply, Turn: turn, State: turn.State}, nil
}

func (o *Orchestrator) pause(ctx context.Context, sessionID string) (*ActionResult, error) {
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == journey.SessionClosed {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionClosed)
	}
	if session.Status != journey.SessionPaused {
		if err := o.store.UpdateSession(ctx, session.ID, store.Fields{"status": journey.SessionPaused}); err != nil {
			return nil, err
		}
	}
	return &ActionResult{
		Action: "pause",
		Reply:  "Session paused. Send any message to resume where you left off.",
		State:  session.State(),
	}, nil
}

func (o *Orchestrator) sessionSummary(ctx context.Context, sessionID string) (*ActionResult, error) {
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := o.store.MessagesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	counts := countExtractions(messages)
	state := session.State()
	reply := fmt.Sprintf("This session has captured %d systems, %d process steps, %d gaps, and %d touchpoints over %d messages. Current stage: %s.",
		counts.systems, counts.steps, counts.gaps, counts.touchpoints, len(messages), stageOrDiscovery(state.CurrentStage))
	return &ActionResult{Action: "summary", Reply: reply, State: state}, nil
}

func (o *Orchestrator) projectStatus(ctx context.Context, sessionID string) (*ActionResult, error) {
	session, err := o.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	completion, err := o.projects.Recalculate(ctx)
	if err != nil {
		return nil, err
	}
	reply := fmt.Sprintf("Project progress: %d SMEs identified, %d interviewed, %d of %d journey stages mapped, %d processes documented, %d gaps identified (%d resolved), %d conflicts open.",
		completion.SMEsIdentified, completion.SMEsInterviewed,
		completion.JourneyStagesMapped, completion.JourneyStagesTotal,
		completion.ProcessesDocumented, completion.GapsIdentified, completion.GapsResolved,
		completion.ConflictsOpen)
	return &ActionResult{Action: "status", Reply: reply, State: session.State()}, nil
}

func stageOrDiscovery(stage string) string {
	if strings.TrimSpace(stage) == "" {
		return string(journey.StageDiscovery)
	}
	return stage
}
