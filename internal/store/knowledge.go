// File path: internal/store/knowledge.go
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// InsertSystem stores a new technology system record.
func (s *Store) InsertSystem(ctx context.Context, row SystemRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO systems
		(system_id, name, vendor, category, environment, owner_sme_id,
		 users_json, integrations_json, workarounds_json, source_smes_json,
		 created_by, created_at, updated_at)
		VALUES (:system_id, :name, :vendor, :category, :environment, :owner_sme_id,
		 :users_json, :integrations_json, :workarounds_json, :source_smes_json,
		 :created_by, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("insert system: %w", err)
	}
	return nil
}

// SystemByID retrieves a system by business key.
func (s *Store) SystemByID(ctx context.Context, systemID string) (*SystemRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var row SystemRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM systems WHERE system_id = ?`, strings.TrimSpace(systemID)); err != nil {
		return nil, notFound(err, "system "+systemID)
	}
	return &row, nil
}

// ListSystems returns every system ordered by category then name.
func (s *Store) ListSystems(ctx context.Context) ([]SystemRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []SystemRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM systems ORDER BY category, name`); err != nil {
		return nil, fmt.Errorf("select systems: %w", err)
	}
	return rows, nil
}

// UpdateSystem applies a partial update to a system row.
func (s *Store) UpdateSystem(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "systems", rowID, fields)
}

// InsertProcess stores a new process record.
func (s *Store) InsertProcess(ctx context.Context, row ProcessRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO processes
		(process_id, name, journey_stage, sub_stage, owner_sme_id,
		 supporting_smes_json, steps_json, maturity, as_documented, as_practiced,
		 discrepancy_flag, discrepancy_notes, conflict_flag, conflict_notes,
		 source_smes_json, created_by, created_at, updated_at)
		VALUES (:process_id, :name, :journey_stage, :sub_stage, :owner_sme_id,
		 :supporting_smes_json, :steps_json, :maturity, :as_documented, :as_practiced,
		 :discrepancy_flag, :discrepancy_notes, :conflict_flag, :conflict_notes,
		 :source_smes_json, :created_by, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("insert process: %w", err)
	}
	return nil
}

// ProcessByID retrieves a process by business key.
func (s *Store) ProcessByID(ctx context.Context, processID string) (*ProcessRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var row ProcessRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM processes WHERE process_id = ?`, strings.TrimSpace(processID)); err != nil {
		return nil, notFound(err, "process "+processID)
	}
	return &row, nil
}

// ListProcesses returns every process ordered by stage then name.
func (s *Store) ListProcesses(ctx context.Context) ([]ProcessRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []ProcessRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM processes ORDER BY journey_stage, name`); err != nil {
		return nil, fmt.Errorf("select processes: %w", err)
	}
	return rows, nil
}

// ProcessesByStage returns the processes scoped to one journey stage.
func (s *Store) ProcessesByStage(ctx context.Context, stage string) ([]ProcessRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []ProcessRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM processes WHERE journey_stage = ? ORDER BY name`, stage); err != nil {
		return nil, fmt.Errorf("select processes for stage: %w", err)
	}
	return rows, nil
}

// UpdateProcess applies a partial update to a process row.
func (s *Store) UpdateProcess(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "processes", rowID, fields)
}

// InsertGap stores a new gap record. Duplicate gap reports intentionally
// accumulate as separate records; confirmation by multiple SMEs is signal.
func (s *Store) InsertGap(ctx context.Context, row GapRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO gaps
		(gap_id, title, description, journey_stage, process_id, gap_type,
		 root_cause, frequency, guest_impact, status, source_smes_json,
		 created_by, created_at, updated_at)
		VALUES (:gap_id, :title, :description, :journey_stage, :process_id, :gap_type,
		 :root_cause, :frequency, :guest_impact, :status, :source_smes_json,
		 :created_by, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("insert gap: %w", err)
	}
	return nil
}

// GapByID retrieves a gap by business key.
func (s *Store) GapByID(ctx context.Context, gapID string) (*GapRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var row GapRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM gaps WHERE gap_id = ?`, strings.TrimSpace(gapID)); err != nil {
		return nil, notFound(err, "gap "+gapID)
	}
	return &row, nil
}

// ListGaps returns every gap ordered by id.
func (s *Store) ListGaps(ctx context.Context) ([]GapRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []GapRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM gaps ORDER BY gap_id`); err != nil {
		return nil, fmt.Errorf("select gaps: %w", err)
	}
	return rows, nil
}

// GapsByStatus returns gaps in any of the given statuses.
func (s *Store) GapsByStatus(ctx context.Context, statuses ...string) ([]GapRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if len(statuses) == 0 {
		return s.ListGaps(ctx)
	}
	query, args, err := sqlx.In(`SELECT * FROM gaps WHERE status IN (?) ORDER BY gap_id`, statuses)
	if err != nil {
		return nil, fmt.Errorf("build gap query: %w", err)
	}
	rows := []GapRow{}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select gaps by status: %w", err)
	}
	return rows, nil
}

// UpdateGap applies a partial update to a gap row.
func (s *Store) UpdateGap(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "gaps", rowID, fields)
}

// InsertStage stores a new journey stage record.
func (s *Store) InsertStage(ctx context.Context, row StageRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO journey_stages
		(stage_id, stage, description, guest_actions_json, frontstage_json,
		 backstage_json, touchpoints_json, failure_points_json,
		 supporting_smes_json, created_by, created_at, updated_at)
		VALUES (:stage_id, :stage, :description, :guest_actions_json, :frontstage_json,
		 :backstage_json, :touchpoints_json, :failure_points_json,
		 :supporting_smes_json, :created_by, :created_at, :updated_at)`, row)
	if err != nil {
		return fmt.Errorf("insert journey stage: %w", err)
	}
	return nil
}

// StageByName retrieves a journey stage record by stage name.
func (s *Store) StageByName(ctx context.Context, stage string) (*StageRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var row StageRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM journey_stages WHERE stage = ?`, strings.TrimSpace(stage)); err != nil {
		return nil, notFound(err, "journey stage "+stage)
	}
	return &row, nil
}

// ListStages returns every journey stage record.
func (s *Store) ListStages(ctx context.Context) ([]StageRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []StageRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM journey_stages ORDER BY stage`); err != nil {
		return nil, fmt.Errorf("select journey stages: %w", err)
	}
	return rows, nil
}

// UpdateStage applies a partial update to a journey stage row.
func (s *Store) UpdateStage(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "journey_stages", rowID, fields)
}

// InsertConflict stores a new conflict record.
func (s *Store) InsertConflict(ctx context.Context, row ConflictRow) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO conflicts
		(conflict_id, conflict_type, description, sme_a_id, sme_b_id,
		 sme_a_claim, sme_b_claim, severity, related_process_ids_json,
		 resolution_status, resolution_notes, resolved_by, created_by, created_at)
		VALUES (:conflict_id, :conflict_type, :description, :sme_a_id, :sme_b_id,
		 :sme_a_claim, :sme_b_claim, :severity, :related_process_ids_json,
		 :resolution_status, :resolution_notes, :resolved_by, :created_by, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("insert conflict: %w", err)
	}
	return nil
}

// ConflictByID retrieves a conflict by business key.
func (s *Store) ConflictByID(ctx context.Context, conflictID string) (*ConflictRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var row ConflictRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM conflicts WHERE conflict_id = ?`, strings.TrimSpace(conflictID)); err != nil {
		return nil, notFound(err, "conflict "+conflictID)
	}
	return &row, nil
}

// ListConflicts returns every conflict ordered by id.
func (s *Store) ListConflicts(ctx context.Context) ([]ConflictRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []ConflictRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM conflicts ORDER BY conflict_id`); err != nil {
		return nil, fmt.Errorf("select conflicts: %w", err)
	}
	return rows, nil
}

// OpenConflictsForSME returns unresolved conflicts that name the SME on
// either side.
func (s *Store) OpenConflictsForSME(ctx context.Context, smeID string) ([]ConflictRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []ConflictRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM conflicts
		WHERE resolution_status = 'unresolved' AND (sme_a_id = ? OR sme_b_id = ?)
		ORDER BY conflict_id`, smeID, smeID); err != nil {
		return nil, fmt.Errorf("select open conflicts: %w", err)
	}
	return rows, nil
}

// UpdateConflict applies a partial update to a conflict row.
func (s *Store) UpdateConflict(ctx context.Context, rowID int64, fields Fields) error {
	return s.update(ctx, "conflicts", rowID, fields)
}
