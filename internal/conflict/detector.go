// File path: internal/conflict/detector.go
package conflict

import (
	"context"
	"errors"
	"fmt"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/merge"
	"github.com/mapline/guestjourney/internal/store"
)

// Detector persists model-reported conflicts.
type Detector struct {
	store *store.Store
	alloc *ids.Allocator
}

// NewDetector constructs a Detector.
func NewDetector(s *store.Store, alloc *ids.Allocator) *Detector {
	return &Detector{store: s, alloc: alloc}
}

// Apply persists each reported conflict and returns the ids of the records
// it created. A failure in one item is logged and skipped; the remaining
// items still persist. Callers needing full records re-fetch by id.
func (d *Detector) Apply(ctx context.Context, items []journey.ConflictItem, smeID, actorID string) []string {
	if len(items) == 0 {
		return nil
	}
	logger := common.Logger()
	saved := make([]string, 0, len(items))
	for _, item := range items {
		conflictID, err := d.record(ctx, item, smeID, actorID)
		if err != nil {
			logger.Error("conflict: item failed", "field", item.Field, "error", err)
			continue
		}
		saved = append(saved, conflictID)
	}
	return saved
}

func (d *Detector) record(ctx context.Context, item journey.ConflictItem, smeID, actorID string) (string, error) {
	conflictID, err := d.alloc.Next(ctx, ids.PrefixConflict)
	if err != nil {
		return "", fmt.Errorf("allocate conflict id: %w", err)
	}

	kind := Classify(item.Field)
	severity := item.Severity
	if severity == "" {
		severity = "medium"
	}
	related := "[]"
	if item.ExistingRecordID != "" {
		related = merge.AddUnique("[]", item.ExistingRecordID)
	}
	row := store.ConflictRow{
		ConflictID:   conflictID,
		ConflictType: string(kind),
		Description: fmt.Sprintf("%s: current SME says %q, existing data says %q",
			item.Field, item.NewValue, item.ExistingValue),
		SMEAID:                smeID,
		SMEBID:                item.ExistingSMEID,
		SMEAClaim:             item.NewValue,
		SMEBClaim:             item.ExistingValue,
		Severity:              severity,
		RelatedProcessIDsJSON: related,
		ResolutionStatus:      journey.ConflictUnresolved,
		CreatedBy:             actorID,
		CreatedAt:             store.Now(),
	}
	if err := d.store.InsertConflict(ctx, row); err != nil {
		return "", err
	}

	// Cross-link the affected process. Best-effort: the conflict record
	// stands even when the flagging write fails.
	if item.ExistingRecordID != "" {
		if err := d.flagProcess(ctx, item.ExistingRecordID, conflictID); err != nil {
			common.Logger().Warn("conflict: process flagging failed",
				"process_id", item.ExistingRecordID, "conflict_id", conflictID, "error", err)
		}
	}
	return conflictID, nil
}

func (d *Detector) flagProcess(ctx context.Context, processID, conflictID string) error {
	process, err := d.store.ProcessByID(ctx, processID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The referenced record is not a process; nothing to flag.
			return nil
		}
		return err
	}
	notes := conflictID
	if process.ConflictNotes != "" {
		notes = process.ConflictNotes + "; " + conflictID
	}
	return d.store.UpdateProcess(ctx, process.ID, store.Fields{
		"conflict_flag":  true,
		"conflict_notes": notes,
		"updated_at":     store.Now(),
	})
}
