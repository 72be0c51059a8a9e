// File path: internal/journey/types.go
package journey

import "strings"

// Stage is one of the eight fixed guest lifecycle phases.
type Stage string

const (
	StageDiscovery    Stage = "discovery"
	StageBooking      Stage = "booking"
	StagePreArrival   Stage = "pre_arrival"
	StageCheckIn      Stage = "check_in"
	StageInStay       Stage = "in_stay"
	StageCheckOut     Stage = "check_out"
	StagePostStay     Stage = "post_stay"
	StageReEngagement Stage = "re_engagement"
)

// StageOrder lists the stages in interview order.
var StageOrder = []Stage{
	StageDiscovery,
	StageBooking,
	StagePreArrival,
	StageCheckIn,
	StageInStay,
	StageCheckOut,
	StagePostStay,
	StageReEngagement,
}

// StageCount is the fixed number of journey stages.
const StageCount = 8

// ValidStage reports whether name is a known journey stage.
func ValidStage(name string) bool {
	for _, s := range StageOrder {
		if string(s) == name {
			return true
		}
	}
	return false
}

// NormalizeStage trims and lowercases name, returning fallback when the
// result is not a known stage.
func NormalizeStage(name string, fallback Stage) Stage {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if ValidStage(trimmed) {
		return Stage(trimmed)
	}
	return fallback
}

// Session statuses.
const (
	SessionActive = "active"
	SessionPaused = "paused"
	SessionClosed = "closed"
)

// Session methods.
const (
	MethodInterview   = "interview"
	MethodSelfService = "sme_self_service"
)

// SME interview statuses. Transitions never regress; validated is terminal.
const (
	InterviewPending    = "pending"
	InterviewInProgress = "in_progress"
	InterviewCompleted  = "completed"
	InterviewValidated  = "validated"
	InterviewLinkSent   = "link_sent"
)

// Gap statuses.
const (
	GapOpen       = "open"
	GapInProgress = "in_progress"
	GapResolved   = "resolved"
	GapWontFix    = "wont_fix"
)

// Conflict resolution statuses.
const (
	ConflictUnresolved = "unresolved"
	ConflictResolved   = "resolved"
)

// ConflictType classifies a detected disagreement between two SMEs.
type ConflictType string

const (
	ProcessDiscrepancy ConflictType = "process_discrepancy"
	TechnologyMismatch ConflictType = "technology_mismatch"
	OwnershipDispute   ConflictType = "ownership_dispute"
	DataInconsistency  ConflictType = "data_inconsistency"
)

// Message roles within a session transcript.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Completion is the project-wide derived progress aggregate. It is
// recalculated best-effort after every turn and is never transactional truth.
type Completion struct {
	SMEsIdentified      int `json:"smes_identified"`
	SMEsInterviewed     int `json:"smes_interviewed"`
	SMEsValidated       int `json:"smes_validated"`
	JourneyStagesMapped int `json:"journey_stages_mapped"`
	JourneyStagesTotal  int `json:"journey_stages_total"`
	ProcessesDocumented int `json:"processes_documented"`
	GapsIdentified      int `json:"gaps_identified"`
	GapsResolved        int `json:"gaps_resolved"`
	ConflictsOpen       int `json:"conflicts_open"`
}
