// File path: internal/journey/reply.go
package journey

// StructuredReply is the JSON contract every conversational turn expects from
// the language model. The prompt builder emits the schema, the gateway parses
// it, and the extraction and conflict processors consume it; all four agree on
// this exact shape.
type StructuredReply struct {
	Reply             string            `json:"reply"`
	Extractions       Extractions       `json:"extractions"`
	ConflictsDetected []ConflictItem    `json:"conflicts_detected"`
	OpenQuestions     []OpenQuestion    `json:"open_questions"`
	ConversationState ConversationState `json:"conversation_state"`
}

// Extractions groups the typed extraction arrays of one turn.
type Extractions struct {
	Systems            []SystemExtraction      `json:"systems"`
	ProcessSteps       []ProcessStepExtraction `json:"process_steps"`
	Gaps               []GapExtraction         `json:"gaps"`
	JourneyTouchpoints []TouchpointExtraction  `json:"journey_touchpoints"`
	SMEUpdates         SMEUpdates              `json:"sme_updates"`
}

// Empty reports whether the payload carries no extractable items.
func (e Extractions) Empty() bool {
	return len(e.Systems) == 0 && len(e.ProcessSteps) == 0 && len(e.Gaps) == 0 &&
		len(e.JourneyTouchpoints) == 0 && e.SMEUpdates.Empty()
}

// SystemExtraction describes a technology system the SME mentioned.
type SystemExtraction struct {
	SystemName       string            `json:"system_name"`
	Vendor           string            `json:"vendor"`
	Category         string            `json:"category"`
	FieldsMentioned  []string          `json:"fields_or_workflows_mentioned"`
	IntegrationWith  []IntegrationLink `json:"integration_with"`
	IsNew            bool              `json:"is_new"`
	ExistingSystemID string            `json:"existing_system_id"`
}

// IntegrationLink describes a connection between two systems. SystemName is
// the dedup key when links are merged into an existing record.
type IntegrationLink struct {
	SystemName      string   `json:"system_name"`
	Direction       string   `json:"direction"`
	Method          string   `json:"method"`
	DataTransferred []string `json:"data_transferred"`
}

// ProcessStepExtraction is one step of a business process. Steps sharing a
// BelongsToProcess key are grouped into a single process record.
type ProcessStepExtraction struct {
	Description      string `json:"description"`
	Actor            string `json:"actor"`
	SystemName       string `json:"system_name"`
	FieldName        string `json:"field_or_workflow_name"`
	Mode             string `json:"manual_or_automated"`
	TimeToComplete   string `json:"time_to_complete"`
	BelongsToProcess string `json:"belongs_to_process"`
	JourneyStage     string `json:"journey_stage"`
	AsDocumented     string `json:"as_documented"`
	AsPracticed      string `json:"as_practiced"`
}

// GapExtraction is an explicitly reported shortcoming.
type GapExtraction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	GapType     string `json:"gap_type"`
	Frequency   string `json:"frequency"`
	GuestImpact string `json:"guest_impact"`
	RootCause   string `json:"root_cause"`
}

// TouchpointExtraction is a guest- or staff-facing interaction point.
type TouchpointExtraction struct {
	Channel      string `json:"channel"`
	Description  string `json:"description"`
	Timing       string `json:"timing"`
	SystemName   string `json:"system_name"`
	JourneyStage string `json:"journey_stage"`
}

// SMEUpdates reports newly learned facts about the current SME's profile.
type SMEUpdates struct {
	NewSystemsUsed []string `json:"new_systems_used"`
	NewDomains     []string `json:"new_domains"`
	NewStagesOwned []string `json:"new_stages_owned"`
}

// Empty reports whether there is nothing to merge into the SME profile.
func (u SMEUpdates) Empty() bool {
	return len(u.NewSystemsUsed) == 0 && len(u.NewDomains) == 0 && len(u.NewStagesOwned) == 0
}

// ConflictItem is a disagreement the model detected between the current SME's
// statement and previously recorded data.
type ConflictItem struct {
	Field            string `json:"field"`
	NewValue         string `json:"new_value_from_current_sme"`
	ExistingValue    string `json:"existing_value"`
	ExistingSMEID    string `json:"existing_sme_id"`
	ExistingRecordID string `json:"existing_record_id"`
	Severity         string `json:"severity"`
}

// OpenQuestion is a follow-up the model could not resolve in this session.
// SessionID, Status and CreatedAt are stamped when persisted to project state.
type OpenQuestion struct {
	Question  string `json:"question"`
	Reason    string `json:"reason,omitempty"`
	Priority  string `json:"priority,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ConversationState is the JSON sub-record persisted on the session after
// every turn. The model is the sole stage-transition authority; the
// orchestrator only persists what it reports.
type ConversationState struct {
	CurrentStage             string   `json:"current_stage"`
	CurrentTopic             string   `json:"current_topic,omitempty"`
	TopicsCovered            []string `json:"topics_covered,omitempty"`
	TopicsRemaining          []string `json:"topics_remaining,omitempty"`
	TopicsCoveredThisMessage []string `json:"topics_covered_this_message,omitempty"`
	ShouldMoveToNextStage    bool     `json:"should_move_to_next_stage"`
	StageCompletionEstimate  float64  `json:"stage_completion_estimate"`
	DocumentedVsPracticed    bool     `json:"as_documented_vs_practiced_asked,omitempty"`
}
