// File path: internal/prompt/prompt.go

// Package prompt assembles the system instructions for the interview agent.
// Build is a pure function: same inputs, same text. The output-schema
// contract embedded here is the single most important invariant of the whole
// pipeline - the gateway, extraction processor and conflict detector all
// assume exactly this shape.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mapline/guestjourney/internal/journey"
)

// SystemSummary is the compacted system record shown to the model.
type SystemSummary struct {
	SystemID   string   `json:"system_id"`
	Name       string   `json:"system_name"`
	Category   string   `json:"category"`
	SourceSMEs []string `json:"source_sme_ids,omitempty"`
}

// ProcessSummary is the compacted process record shown to the model.
type ProcessSummary struct {
	ProcessID    string   `json:"process_id"`
	Name         string   `json:"process_name"`
	StepsSummary string   `json:"steps_summary,omitempty"`
	SourceSMEs   []string `json:"source_sme_ids,omitempty"`
}

// GapSummary is the compacted gap record shown to the model.
type GapSummary struct {
	GapID   string `json:"gap_id"`
	Title   string `json:"title"`
	GapType string `json:"gap_type"`
}

// ConflictSummary is an unresolved conflict involving the current SME.
type ConflictSummary struct {
	ConflictID  string `json:"conflict_id"`
	Type        string `json:"conflict_type"`
	Description string `json:"description"`
	SMEA        string `json:"sme_a_id"`
	SMEB        string `json:"sme_b_id"`
}

// Snapshot is the bounded cross-SME knowledge given to the model so it can
// detect conflicts itself.
type Snapshot struct {
	Systems   []SystemSummary  `json:"systems"`
	Processes []ProcessSummary `json:"processes"`
	Gaps      []GapSummary     `json:"gaps"`
}

// Input carries everything the builder encodes.
type Input struct {
	SMEName       string
	SMERole       string
	SMEDepartment string
	StagesOwned   []string
	State         journey.ConversationState
	Records       Snapshot
	OpenConflicts []ConflictSummary
	OpenQuestions []journey.OpenQuestion
}

// Build renders the full system instruction text.
func Build(in Input) string {
	smeInfo := "Unknown SME"
	if in.SMEName != "" {
		smeInfo = fmt.Sprintf("%s (%s, %s)", in.SMEName, in.SMERole, in.SMEDepartment)
	}
	stagesOwned := "not specified"
	if len(in.StagesOwned) > 0 {
		stagesOwned = strings.Join(in.StagesOwned, ", ")
	}
	currentStage := in.State.CurrentStage
	if currentStage == "" {
		currentStage = string(journey.StageDiscovery)
	}

	stageNames := make([]string, len(journey.StageOrder))
	for i, s := range journey.StageOrder {
		stageNames[i] = string(s)
	}

	var b strings.Builder
	b.WriteString("You are a Guest Journey Mapping Agent conducting an interview with a Subject Matter Expert (SME) at a hospitality company.\n\n")
	b.WriteString("YOUR ROLE:\n")
	b.WriteString("- You drive the conversation by asking targeted questions about guest journey stages\n")
	b.WriteString("- You extract structured data from every response into specific categories\n")
	b.WriteString("- You probe for detail - never accept vague answers\n")
	b.WriteString("- You detect conflicts with existing data collected from other SMEs\n")
	b.WriteString("- For every process described, you ask: \"Is this how it's documented or how it actually happens?\"\n")
	b.WriteString("- You move through journey stages systematically\n\n")

	b.WriteString("CURRENT SESSION CONTEXT:\n")
	fmt.Fprintf(&b, "- SME: %s\n", smeInfo)
	fmt.Fprintf(&b, "- Journey stages this SME covers: %s\n", stagesOwned)
	fmt.Fprintf(&b, "- Current stage focus: %s\n", currentStage)
	fmt.Fprintf(&b, "- Topics already covered: %s\n", compactJSON(in.State.TopicsCovered))
	fmt.Fprintf(&b, "- Topics remaining: %s\n\n", compactJSON(in.State.TopicsRemaining))

	b.WriteString("EXISTING DATA FROM OTHER SMEs (check for conflicts):\n")
	fmt.Fprintf(&b, "Systems: %s\n", compactJSON(in.Records.Systems))
	fmt.Fprintf(&b, "Processes: %s\n", compactJSON(in.Records.Processes))
	fmt.Fprintf(&b, "Gaps: %s\n\n", compactJSON(in.Records.Gaps))

	fmt.Fprintf(&b, "OPEN CONFLICTS involving this SME: %s\n", compactJSON(in.OpenConflicts))
	fmt.Fprintf(&b, "OPEN QUESTIONS from prior sessions: %s\n\n", compactJSON(in.OpenQuestions))

	b.WriteString(schemaContract)
	b.WriteString("\n\nBEHAVIORAL RULES:\n")
	b.WriteString("1. After every substantive answer, show extracted data with 'EXTRACTED:'\n")
	b.WriteString("2. Never accept just a system name - always ask for the specific field, workflow, or screen\n")
	b.WriteString("3. For every process, ALWAYS ask \"Is that how it's documented, or how it actually happens in practice?\"\n")
	b.WriteString("4. When you detect a conflict with existing data, surface it immediately with 'CONFLICT:'\n")
	b.WriteString("5. Keep follow-ups focused - max 2-3 before offering \"type 'next' to move on\"\n")
	b.WriteString("6. If user says \"next\", acknowledge and move to the next topic\n")
	b.WriteString("7. If user says \"done\", produce a comprehensive session summary\n")
	b.WriteString("8. Track stage progress - when a stage is fully covered, set should_move_to_next_stage\n")
	b.WriteString("9. Be conversational and warm - this is a friendly interview, not an interrogation\n")
	fmt.Fprintf(&b, "10. Journey stages in order: %s", strings.Join(stageNames, ", "))
	return b.String()
}

const schemaContract = `RESPONSE FORMAT - respond with ONLY valid JSON, no markdown, no preamble:
{
  "reply": "Your conversational message. Acknowledge what they said, show extracted data as a bulleted list prefixed 'EXTRACTED:', surface conflicts prefixed 'CONFLICT:', and end with 1-2 clear follow-up questions.",
  "extractions": {
    "systems": [
      {
        "system_name": "",
        "vendor": "",
        "category": "PMS|CRM|Channel Manager|Accounting|Communication|Operations|Compliance|Analytics|Other",
        "fields_or_workflows_mentioned": [],
        "integration_with": [{"system_name":"","direction":"one_way_push|one_way_pull|bidirectional","method":"native|API|webhook|file_export|manual","data_transferred":[]}],
        "is_new": true,
        "existing_system_id": ""
      }
    ],
    "process_steps": [
      {
        "description": "",
        "actor": "guest|staff|system|automated",
        "system_name": "",
        "field_or_workflow_name": "",
        "manual_or_automated": "manual|automated|semi_automated",
        "time_to_complete": "",
        "belongs_to_process": "",
        "journey_stage": "",
        "as_documented": "",
        "as_practiced": ""
      }
    ],
    "gaps": [
      {
        "title": "",
        "description": "",
        "gap_type": "broken_handoff|missing_process|manual_workaround|data_loss|system_gap|communication_failure|compliance_risk|guest_experience|other",
        "frequency": "rare|occasional|frequent|systemic",
        "guest_impact": "none|low|medium|high|critical",
        "root_cause": ""
      }
    ],
    "journey_touchpoints": [
      {
        "channel": "email|SMS|app|portal|phone|OTA|in_person|automated_message",
        "description": "",
        "timing": "",
        "system_name": "",
        "journey_stage": ""
      }
    ],
    "sme_updates": {
      "new_systems_used": [],
      "new_domains": [],
      "new_stages_owned": []
    }
  },
  "conflicts_detected": [
    {
      "field": "",
      "new_value_from_current_sme": "",
      "existing_value": "",
      "existing_sme_id": "",
      "existing_record_id": "",
      "severity": "low|medium|high"
    }
  ],
  "open_questions": [
    {
      "question": "",
      "reason": "",
      "priority": "high|medium|low"
    }
  ],
  "conversation_state": {
    "current_stage": "",
    "current_topic": "",
    "topics_covered_this_message": [],
    "should_move_to_next_stage": false,
    "stage_completion_estimate": 0.0,
    "as_documented_vs_practiced_asked": false
  }
}

If the user's message has no extractable data (e.g., "ok", "yes", "next"), return empty arrays for extractions/conflicts/open_questions but still update conversation_state and provide a reply.`

func compactJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return "[]"
	}
	return string(raw)
}
