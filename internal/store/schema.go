// File path: internal/store/schema.go
package store

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS counters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		current_value INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS smes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sme_id TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		stages_owned_json TEXT NOT NULL DEFAULT '[]',
		domains_json TEXT NOT NULL DEFAULT '[]',
		systems_used_json TEXT NOT NULL DEFAULT '[]',
		interview_status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL UNIQUE,
		sme_id TEXT NOT NULL DEFAULT '',
		interviewer_id TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT 'interview',
		status TEXT NOT NULL DEFAULT 'active',
		summary TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		closed_at TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_sme ON sessions(sme_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message_id TEXT NOT NULL UNIQUE,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		extractions_json TEXT NOT NULL DEFAULT '{}',
		conflicts_json TEXT NOT NULL DEFAULT '[]',
		questions_json TEXT NOT NULL DEFAULT '[]',
		state_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS systems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		system_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		vendor TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'Other',
		environment TEXT NOT NULL DEFAULT 'production',
		owner_sme_id TEXT NOT NULL DEFAULT '',
		users_json TEXT NOT NULL DEFAULT '[]',
		integrations_json TEXT NOT NULL DEFAULT '[]',
		workarounds_json TEXT NOT NULL DEFAULT '[]',
		source_smes_json TEXT NOT NULL DEFAULT '[]',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS processes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		process_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		journey_stage TEXT NOT NULL DEFAULT 'discovery',
		sub_stage TEXT NOT NULL DEFAULT '',
		owner_sme_id TEXT NOT NULL DEFAULT '',
		supporting_smes_json TEXT NOT NULL DEFAULT '[]',
		steps_json TEXT NOT NULL DEFAULT '[]',
		maturity TEXT NOT NULL DEFAULT 'ad_hoc',
		as_documented TEXT NOT NULL DEFAULT '',
		as_practiced TEXT NOT NULL DEFAULT '',
		discrepancy_flag INTEGER NOT NULL DEFAULT 0,
		discrepancy_notes TEXT NOT NULL DEFAULT '',
		conflict_flag INTEGER NOT NULL DEFAULT 0,
		conflict_notes TEXT NOT NULL DEFAULT '',
		source_smes_json TEXT NOT NULL DEFAULT '[]',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_processes_stage ON processes(journey_stage)`,
	`CREATE TABLE IF NOT EXISTS gaps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		gap_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		journey_stage TEXT NOT NULL DEFAULT '',
		process_id TEXT NOT NULL DEFAULT '',
		gap_type TEXT NOT NULL DEFAULT 'other',
		root_cause TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL DEFAULT 'occasional',
		guest_impact TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'open',
		source_smes_json TEXT NOT NULL DEFAULT '[]',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gaps_status ON gaps(status)`,
	`CREATE TABLE IF NOT EXISTS journey_stages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		stage_id TEXT NOT NULL UNIQUE,
		stage TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		guest_actions_json TEXT NOT NULL DEFAULT '[]',
		frontstage_json TEXT NOT NULL DEFAULT '[]',
		backstage_json TEXT NOT NULL DEFAULT '[]',
		touchpoints_json TEXT NOT NULL DEFAULT '[]',
		failure_points_json TEXT NOT NULL DEFAULT '[]',
		supporting_smes_json TEXT NOT NULL DEFAULT '[]',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conflicts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conflict_id TEXT NOT NULL UNIQUE,
		conflict_type TEXT NOT NULL DEFAULT 'data_inconsistency',
		description TEXT NOT NULL DEFAULT '',
		sme_a_id TEXT NOT NULL DEFAULT '',
		sme_b_id TEXT NOT NULL DEFAULT '',
		sme_a_claim TEXT NOT NULL DEFAULT '',
		sme_b_claim TEXT NOT NULL DEFAULT '',
		severity TEXT NOT NULL DEFAULT 'medium',
		related_process_ids_json TEXT NOT NULL DEFAULT '[]',
		resolution_status TEXT NOT NULL DEFAULT 'unresolved',
		resolution_notes TEXT NOT NULL DEFAULT '',
		resolved_by TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conflicts_status ON conflicts(resolution_status)`,
	`CREATE TABLE IF NOT EXISTS project_state (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id TEXT NOT NULL UNIQUE,
		company TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		last_updated TEXT NOT NULL,
		completion_json TEXT NOT NULL DEFAULT '{}',
		open_questions_json TEXT NOT NULL DEFAULT '[]',
		next_actions_json TEXT NOT NULL DEFAULT '[]',
		agent_notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		sme_id TEXT NOT NULL,
		issued_at TEXT NOT NULL,
		revoked INTEGER NOT NULL DEFAULT 0
	)`,
}
