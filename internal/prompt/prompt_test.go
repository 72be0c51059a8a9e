// File path: internal/prompt/prompt_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/mapline/guestjourney/internal/journey"
)

func sampleInput() Input {
	return Input{
		SMEName:       "Dana Reyes",
		SMERole:       "Front Office Manager",
		SMEDepartment: "Operations",
		StagesOwned:   []string{"pre_arrival", "check_in"},
		State: journey.ConversationState{
			CurrentStage:    "check_in",
			TopicsCovered:   []string{"key cards"},
			TopicsRemaining: []string{"late arrivals"},
		},
		Records: Snapshot{
			Systems: []SystemSummary{{SystemID: "SYS-001", Name: "Opera PMS", Category: "PMS"}},
			Gaps:    []GapSummary{{GapID: "GAP-001", Title: "No handoff to housekeeping", GapType: "broken_handoff"}},
		},
		OpenConflicts: []ConflictSummary{{ConflictID: "CONF-001", Type: "process_discrepancy", SMEA: "SME-001", SMEB: "SME-002"}},
		OpenQuestions: []journey.OpenQuestion{{Question: "Who owns the upgrade workflow?", Priority: "high"}},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	in := sampleInput()
	if Build(in) != Build(in) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestBuildEncodesSessionContext(t *testing.T) {
	text := Build(sampleInput())
	for _, want := range []string{
		"Dana Reyes (Front Office Manager, Operations)",
		"pre_arrival, check_in",
		"Current stage focus: check_in",
		`"key cards"`,
		`"late arrivals"`,
		"Opera PMS",
		"GAP-001",
		"CONF-001",
		"Who owns the upgrade workflow?",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
}

func TestBuildEmbedsSchemaContract(t *testing.T) {
	text := Build(Input{})
	for _, field := range []string{
		`"reply"`,
		`"extractions"`,
		`"systems"`,
		`"process_steps"`,
		`"gaps"`,
		`"journey_touchpoints"`,
		`"sme_updates"`,
		`"conflicts_detected"`,
		`"open_questions"`,
		`"conversation_state"`,
		`"belongs_to_process"`,
		`"existing_system_id"`,
		`"should_move_to_next_stage"`,
	} {
		if !strings.Contains(text, field) {
			t.Fatalf("schema contract missing field %s", field)
		}
	}
}

func TestBuildDefaultsForAnonymousSME(t *testing.T) {
	text := Build(Input{})
	if !strings.Contains(text, "Unknown SME") {
		t.Fatalf("expected anonymous SME marker")
	}
	if !strings.Contains(text, "Current stage focus: discovery") {
		t.Fatalf("expected discovery default stage")
	}
	if !strings.Contains(text, "discovery, booking, pre_arrival, check_in, in_stay, check_out, post_stay, re_engagement") {
		t.Fatalf("expected the fixed stage order")
	}
}
