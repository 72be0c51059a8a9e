// File path: internal/store/sessions.go
package store

import (
	"context"
	"fmt"
	"strings"
)

// InsertSME stores a new SME record.
func (s *Store) InsertSME(ctx context.Context, row SMERow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO smes
		(sme_id, full_name, role, department, location, email, phone,
		 stages_owned_json, domains_json, systems_used_json, interview_status,
		 created_at, updated_at)
		VALUES (:sme_id, :full_name, :role, :department, :location, :email, :phone,
		 :stages_owned_json, :domains_json, :systems_used_json, :interview_status,
		 :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("insert sme: %w", err)
	}
	return nil
}

// SMEByID retrieves an SME by business key.
func (s *Store) SMEByID(ctx context.Context, smeID string) (*SMERow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	smeID = strings.TrimSpace(smeID)
	if smeID == "" {
		return nil, fmt.Errorf("sme id required")
	}
	var row SMERow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM smes WHERE sme_id = ?`, smeID); err != nil {
		return nil, notFound(err, "sme "+smeID)
	}
	return &row, nil
}

// ListSMEs returns every registered SME ordered by id.
func (s *Store) ListSMEs(ctx context.Context) ([]SMERow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []SMERow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM smes ORDER BY sme_id`); err != nil {
		return nil, fmt.Errorf("select smes: %w", err)
	}
	return rows, nil
}

// UpdateSME applies a partial update to an SME row.
func (s *Store) UpdateSME(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "smes", rowID, fields)
}

// InsertSession stores a new session record.
func (s *Store) InsertSession(ctx context.Context, row SessionRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO sessions
		(session_id, sme_id, interviewer_id, method, status, summary,
		 duration_minutes, state_json, created_at, closed_at)
		VALUES (:session_id, :sme_id, :interviewer_id, :method, :status, :summary,
		 :duration_minutes, :state_json, :created_at, :closed_at)`, row)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionByID retrieves a session by business key.
func (s *Store) SessionByID(ctx context.Context, sessionID string) (*SessionRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("session id required")
	}
	var row SessionRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return nil, notFound(err, "session "+sessionID)
	}
	return &row, nil
}

// ListSessions returns every session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []SessionRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM sessions ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	return rows, nil
}

// SessionsBySME returns all sessions for one SME, newest first.
func (s *Store) SessionsBySME(ctx context.Context, smeID string) ([]SessionRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []SessionRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM sessions WHERE sme_id = ? ORDER BY created_at DESC`, smeID); err != nil {
		return nil, fmt.Errorf("select sessions for sme: %w", err)
	}
	return rows, nil
}

// UpdateSession applies a partial update to a session row.
func (s *Store) UpdateSession(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "sessions", rowID, fields)
}

// InsertMessage appends a message to a session transcript. Messages are never
// mutated or deleted.
func (s *Store) InsertMessage(ctx context.Context, row MessageRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO messages
		(message_id, session_id, role, content, extractions_json, conflicts_json,
		 questions_json, state_json, created_at)
		VALUES (:message_id, :session_id, :role, :content, :extractions_json, :conflicts_json,
		 :questions_json, :state_json, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// MessagesBySession returns the full transcript ordered by timestamp
// ascending. Insertion id breaks timestamp ties.
func (s *Store) MessagesBySession(ctx context.Context, sessionID string) ([]MessageRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []MessageRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM messages WHERE session_id = ? ORDER BY created_at, id`, sessionID); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	return rows, nil
}
