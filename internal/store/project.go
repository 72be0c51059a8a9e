// File path: internal/store/project.go
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ProjectByID retrieves the project state row.
func (s *Store) ProjectByID(ctx context.Context, projectID string) (*ProjectRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var row ProjectRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM project_state WHERE project_id = ?`, strings.TrimSpace(projectID)); err != nil {
		return nil, notFound(err, "project "+projectID)
	}
	return &row, nil
}

// InsertProject stores the project state row.
func (s *Store) InsertProject(ctx context.Context, row ProjectRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO project_state
		(project_id, company, started_at, last_updated, completion_json,
		 open_questions_json, next_actions_json, agent_notes)
		VALUES (:project_id, :company, :started_at, :last_updated, :completion_json,
		 :open_questions_json, :next_actions_json, :agent_notes)`, row)
	if err != nil {
		return fmt.Errorf("insert project state: %w", err)
	}
	return nil
}

// UpdateProject applies a partial update to the project state row.
func (s *Store) UpdateProject(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "project_state", rowID, fields)
}

// SeedCounter creates a counter if it does not already exist.
func (s *Store) SeedCounter(ctx context.Context, name string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("store not initialised")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO counters (name, current_value) VALUES (?, 0)
		ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return false, fmt.Errorf("seed counter %s: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed counter %s: %w", name, err)
	}
	return affected > 0, nil
}

// Counter returns the current value of a named counter. An unseeded counter
// is ErrNotFound.
func (s *Store) Counter(ctx context.Context, name string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialised")
	}
	var row CounterRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM counters WHERE name = ?`, name); err != nil {
		return 0, notFound(err, "counter "+name)
	}
	return row.CurrentValue, nil
}

// CompareAndSwapCounter advances a counter from old to new only if nothing
// else advanced it first. This conditional write is the store's native
// optimistic primitive; callers retry on a lost race.
func (s *Store) CompareAndSwapCounter(ctx context.Context, name string, old, next int64) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("store not initialised")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE counters SET current_value = ? WHERE name = ? AND current_value = ?`,
		next, name, old)
	if err != nil {
		return false, fmt.Errorf("swap counter %s: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap counter %s: %w", name, err)
	}
	return affected > 0, nil
}

// InsertToken binds a self-service access token to an SME.
func (s *Store) InsertToken(ctx context.Context, row TokenRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO access_tokens
		(token, sme_id, issued_at, revoked)
		VALUES (:token, :sme_id, :issued_at, :revoked)`, row)
	if err != nil {
		return fmt.Errorf("insert access token: %w", err)
	}
	return nil
}

// TokenByValue retrieves an access token record. Revoked or unknown tokens
// are ErrNotFound.
func (s *Store) TokenByValue(ctx context.Context, token string) (*TokenRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token required")
	}
	var row TokenRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM access_tokens WHERE token = ? AND revoked = 0`, token); err != nil {
		return nil, notFound(err, "access token")
	}
	return &row, nil
}

// CountSMEs counts SMEs, optionally restricted to interview statuses.
func (s *Store) CountSMEs(ctx context.Context, statuses ...string) (int, error) {
	if len(statuses) == 0 {
		return s.count(ctx, `SELECT COUNT(*) FROM smes`)
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM smes WHERE interview_status IN (?)`, statuses)
	if err != nil {
		return 0, fmt.Errorf("build sme count: %w", err)
	}
	return s.count(ctx, s.db.Rebind(query), args...)
}

// CountStages counts mapped journey stage records.
func (s *Store) CountStages(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM journey_stages`)
}

// CountProcesses counts documented processes.
func (s *Store) CountProcesses(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM processes`)
}

// CountGaps counts gaps, optionally restricted to statuses.
func (s *Store) CountGaps(ctx context.Context, statuses ...string) (int, error) {
	if len(statuses) == 0 {
		return s.count(ctx, `SELECT COUNT(*) FROM gaps`)
	}
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM gaps WHERE status IN (?)`, statuses)
	if err != nil {
		return 0, fmt.Errorf("build gap count: %w", err)
	}
	return s.count(ctx, s.db.Rebind(query), args...)
}

// CountOpenConflicts counts unresolved conflicts.
func (s *Store) CountOpenConflicts(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM conflicts WHERE resolution_status = 'unresolved'`)
}

func (s *Store) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialised")
	}
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
