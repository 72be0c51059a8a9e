// File path: internal/store/mapper.go
package store

import (
	"encoding/json"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/merge"
)

// JSON-blob columns are decoded into typed sub-structures here, at the store
// boundary, and nowhere else. A malformed blob decodes to its zero value with
// a warning rather than propagating an error: the knowledge base tolerates a
// damaged field without losing the record.

func decodeInto(serialized, column string, out interface{}) {
	if serialized == "" {
		return
	}
	if err := json.Unmarshal([]byte(serialized), out); err != nil {
		common.Logger().Warn("store: malformed json column", "column", column, "error", err)
	}
}

// StagesOwned returns the journey stages this SME covers.
func (r *SMERow) StagesOwned() []string {
	return merge.Strings(r.StagesOwnedJSON)
}

// Domains returns the SME's known business domains.
func (r *SMERow) Domains() []string {
	return merge.Strings(r.DomainsJSON)
}

// SystemsUsed returns the systems the SME reports using.
func (r *SMERow) SystemsUsed() []string {
	return merge.Strings(r.SystemsUsedJSON)
}

// State decodes the session's persisted conversation state.
func (r *SessionRow) State() journey.ConversationState {
	var state journey.ConversationState
	decodeInto(r.StateJSON, "sessions.state_json", &state)
	return state
}

// Extractions decodes the structured extraction payload stored on an agent
// message.
func (r *MessageRow) Extractions() journey.Extractions {
	var ext journey.Extractions
	decodeInto(r.ExtractionsJSON, "messages.extractions_json", &ext)
	return ext
}

// Conflicts decodes the conflict payload stored on an agent message.
func (r *MessageRow) Conflicts() []journey.ConflictItem {
	var items []journey.ConflictItem
	decodeInto(r.ConflictsJSON, "messages.conflicts_json", &items)
	return items
}

// OpenQuestions decodes the open-question payload stored on an agent message.
func (r *MessageRow) OpenQuestions() []journey.OpenQuestion {
	var items []journey.OpenQuestion
	decodeInto(r.QuestionsJSON, "messages.questions_json", &items)
	return items
}

// State decodes the conversation-state snapshot stored on a message.
func (r *MessageRow) State() journey.ConversationState {
	var state journey.ConversationState
	decodeInto(r.StateJSON, "messages.state_json", &state)
	return state
}

// Users returns the SME ids known to use this system.
func (r *SystemRow) Users() []string {
	return merge.Strings(r.UsersJSON)
}

// SourceSMEs returns the SMEs that mentioned this system.
func (r *SystemRow) SourceSMEs() []string {
	return merge.Strings(r.SourceSMEsJSON)
}

// Integrations decodes the system's integration links.
func (r *SystemRow) Integrations() []journey.IntegrationLink {
	var links []journey.IntegrationLink
	decodeInto(r.IntegrationsJSON, "systems.integrations_json", &links)
	return links
}

// Steps decodes the ordered process steps.
func (r *ProcessRow) Steps() []journey.ProcessStepExtraction {
	var steps []journey.ProcessStepExtraction
	decodeInto(r.StepsJSON, "processes.steps_json", &steps)
	return steps
}

// SourceSMEs returns the SMEs that contributed to this process.
func (r *ProcessRow) SourceSMEs() []string {
	return merge.Strings(r.SourceSMEsJSON)
}

// SourceSMEs returns the SMEs that reported this gap.
func (r *GapRow) SourceSMEs() []string {
	return merge.Strings(r.SourceSMEsJSON)
}

// Frontstage decodes the stage's accumulated frontstage interactions.
func (r *StageRow) Frontstage() []journey.TouchpointExtraction {
	var points []journey.TouchpointExtraction
	decodeInto(r.FrontstageJSON, "journey_stages.frontstage_json", &points)
	return points
}

// GuestActions returns the recorded guest actions for the stage.
func (r *StageRow) GuestActions() []string {
	return merge.Strings(r.GuestActionsJSON)
}

// FailurePoints returns the recorded failure points for the stage.
func (r *StageRow) FailurePoints() []string {
	return merge.Strings(r.FailurePointsJSON)
}

// SupportingSMEs returns the SMEs whose interviews informed the stage.
func (r *StageRow) SupportingSMEs() []string {
	return merge.Strings(r.SupportingSMEsJSON)
}

// RelatedProcessIDs returns process ids cross-linked to this conflict.
func (r *ConflictRow) RelatedProcessIDs() []string {
	return merge.Strings(r.RelatedProcessIDsJSON)
}

// OpenQuestions decodes the accumulated open questions on the project.
func (r *ProjectRow) OpenQuestions() []journey.OpenQuestion {
	var items []journey.OpenQuestion
	decodeInto(r.OpenQuestionsJSON, "project_state.open_questions_json", &items)
	return items
}

// Completion decodes the derived completion aggregate.
func (r *ProjectRow) Completion() journey.Completion {
	var c journey.Completion
	decodeInto(r.CompletionJSON, "project_state.completion_json", &c)
	return c
}
