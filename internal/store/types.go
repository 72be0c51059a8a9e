// File path: internal/store/types.go
package store

// SMERow represents a subject-matter expert record.
type SMERow struct {
	ID              int64  `db:"id"`
	SMEID           string `db:"sme_id"`
	FullName        string `db:"full_name"`
	Role            string `db:"role"`
	Department      string `db:"department"`
	Location        string `db:"location"`
	Email           string `db:"email"`
	Phone           string `db:"phone"`
	StagesOwnedJSON string `db:"stages_owned_json"`
	DomainsJSON     string `db:"domains_json"`
	SystemsUsedJSON string `db:"systems_used_json"`
	InterviewStatus string `db:"interview_status"`
	CreatedAt       string `db:"created_at"`
	UpdatedAt       string `db:"updated_at"`
}

// SessionRow represents one interview conversation.
type SessionRow struct {
	ID              int64  `db:"id"`
	SessionID       string `db:"session_id"`
	SMEID           string `db:"sme_id"`
	InterviewerID   string `db:"interviewer_id"`
	Method          string `db:"method"`
	Status          string `db:"status"`
	Summary         string `db:"summary"`
	DurationMinutes int    `db:"duration_minutes"`
	StateJSON       string `db:"state_json"`
	CreatedAt       string `db:"created_at"`
	ClosedAt        string `db:"closed_at"`
}

// MessageRow represents one turn in a session. Rows are append-only.
type MessageRow struct {
	ID              int64  `db:"id"`
	MessageID       string `db:"message_id"`
	SessionID       string `db:"session_id"`
	Role            string `db:"role"`
	Content         string `db:"content"`
	ExtractionsJSON string `db:"extractions_json"`
	ConflictsJSON   string `db:"conflicts_json"`
	QuestionsJSON   string `db:"questions_json"`
	StateJSON       string `db:"state_json"`
	CreatedAt       string `db:"created_at"`
}

// SystemRow represents a technology system in the guest-facing ecosystem.
type SystemRow struct {
	ID               int64  `db:"id"`
	SystemID         string `db:"system_id"`
	Name             string `db:"name"`
	Vendor           string `db:"vendor"`
	Category         string `db:"category"`
	Environment      string `db:"environment"`
	OwnerSMEID       string `db:"owner_sme_id"`
	UsersJSON        string `db:"users_json"`
	IntegrationsJSON string `db:"integrations_json"`
	WorkaroundsJSON  string `db:"workarounds_json"`
	SourceSMEsJSON   string `db:"source_smes_json"`
	CreatedBy        string `db:"created_by"`
	CreatedAt        string `db:"created_at"`
	UpdatedAt        string `db:"updated_at"`
}

// ProcessRow represents a business process with documented versus practiced
// descriptions.
type ProcessRow struct {
	ID                 int64  `db:"id"`
	ProcessID          string `db:"process_id"`
	Name               string `db:"name"`
	JourneyStage       string `db:"journey_stage"`
	SubStage           string `db:"sub_stage"`
	OwnerSMEID         string `db:"owner_sme_id"`
	SupportingSMEsJSON string `db:"supporting_smes_json"`
	StepsJSON          string `db:"steps_json"`
	Maturity           string `db:"maturity"`
	AsDocumented       string `db:"as_documented"`
	AsPracticed        string `db:"as_practiced"`
	DiscrepancyFlag    bool   `db:"discrepancy_flag"`
	DiscrepancyNotes   string `db:"discrepancy_notes"`
	ConflictFlag       bool   `db:"conflict_flag"`
	ConflictNotes      string `db:"conflict_notes"`
	SourceSMEsJSON     string `db:"source_smes_json"`
	CreatedBy          string `db:"created_by"`
	CreatedAt          string `db:"created_at"`
	UpdatedAt          string `db:"updated_at"`
}

// GapRow represents an identified shortcoming in the mapped journey.
type GapRow struct {
	ID             int64  `db:"id"`
	GapID          string `db:"gap_id"`
	Title          string `db:"title"`
	Description    string `db:"description"`
	JourneyStage   string `db:"journey_stage"`
	ProcessID      string `db:"process_id"`
	GapType        string `db:"gap_type"`
	RootCause      string `db:"root_cause"`
	Frequency      string `db:"frequency"`
	GuestImpact    string `db:"guest_impact"`
	Status         string `db:"status"`
	SourceSMEsJSON string `db:"source_smes_json"`
	CreatedBy      string `db:"created_by"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

// StageRow represents one journey stage's accumulated map.
type StageRow struct {
	ID                 int64  `db:"id"`
	StageID            string `db:"stage_id"`
	Stage              string `db:"stage"`
	Description        string `db:"description"`
	GuestActionsJSON   string `db:"guest_actions_json"`
	FrontstageJSON     string `db:"frontstage_json"`
	BackstageJSON      string `db:"backstage_json"`
	TouchpointsJSON    string `db:"touchpoints_json"`
	FailurePointsJSON  string `db:"failure_points_json"`
	SupportingSMEsJSON string `db:"supporting_smes_json"`
	CreatedBy          string `db:"created_by"`
	CreatedAt          string `db:"created_at"`
	UpdatedAt          string `db:"updated_at"`
}

// ConflictRow represents a detected disagreement between two SMEs.
type ConflictRow struct {
	ID                    int64  `db:"id"`
	ConflictID            string `db:"conflict_id"`
	ConflictType          string `db:"conflict_type"`
	Description           string `db:"description"`
	SMEAID                string `db:"sme_a_id"`
	SMEBID                string `db:"sme_b_id"`
	SMEAClaim             string `db:"sme_a_claim"`
	SMEBClaim             string `db:"sme_b_claim"`
	Severity              string `db:"severity"`
	RelatedProcessIDsJSON string `db:"related_process_ids_json"`
	ResolutionStatus      string `db:"resolution_status"`
	ResolutionNotes       string `db:"resolution_notes"`
	ResolvedBy            string `db:"resolved_by"`
	CreatedBy             string `db:"created_by"`
	CreatedAt             string `db:"created_at"`
}

// ProjectRow holds the project-wide derived state.
type ProjectRow struct {
	ID                int64  `db:"id"`
	ProjectID         string `db:"project_id"`
	Company           string `db:"company"`
	StartedAt         string `db:"started_at"`
	LastUpdated       string `db:"last_updated"`
	CompletionJSON    string `db:"completion_json"`
	OpenQuestionsJSON string `db:"open_questions_json"`
	NextActionsJSON   string `db:"next_actions_json"`
	AgentNotes        string `db:"agent_notes"`
}

// CounterRow holds a per-entity-type monotonic sequence.
type CounterRow struct {
	ID           int64  `db:"id"`
	Name         string `db:"name"`
	CurrentValue int64  `db:"current_value"`
}

// TokenRow binds a self-service access token to an SME.
type TokenRow struct {
	ID       int64  `db:"id"`
	Token    string `db:"token"`
	SMEID    string `db:"sme_id"`
	IssuedAt string `db:"issued_at"`
	Revoked  bool   `db:"revoked"`
}
