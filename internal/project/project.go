// File path: internal/project/project.go

// Package project maintains the singleton project state row: the derived
// completion aggregate, the accumulated open questions, and the counter
// seeds that back human-readable record ids.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/store"
)

// DefaultProjectID identifies the single project row this service manages.
const DefaultProjectID = "PROJECT-001"

// Manager owns reads and writes of the project state row.
type Manager struct {
	store     *store.Store
	projectID string
	company   string
}

// NewManager constructs a Manager for the given project id. An empty id
// falls back to DefaultProjectID.
func NewManager(s *store.Store, projectID, company string) *Manager {
	if strings.TrimSpace(projectID) == "" {
		projectID = DefaultProjectID
	}
	return &Manager{store: s, projectID: projectID, company: company}
}

// ProjectID returns the managed project id.
func (m *Manager) ProjectID() string { return m.projectID }

// Seed initialises the id counters and the project row. It is idempotent:
// existing counters and an existing project row are left untouched.
func (m *Manager) Seed(ctx context.Context) (created []string, err error) {
	for _, prefix := range ids.Prefixes {
		fresh, err := m.store.SeedCounter(ctx, prefix)
		if err != nil {
			return created, fmt.Errorf("seed counter %s: %w", prefix, err)
		}
		if fresh {
			created = append(created, prefix)
		}
	}
	if _, err := m.State(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// State returns the project row, creating it on first access.
func (m *Manager) State(ctx context.Context) (*store.ProjectRow, error) {
	row, err := m.store.ProjectByID(ctx, m.projectID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	now := store.Now()
	completion, _ := json.Marshal(journey.Completion{JourneyStagesTotal: journey.StageCount})
	fresh := store.ProjectRow{
		ProjectID:         m.projectID,
		Company:           m.company,
		StartedAt:         now,
		LastUpdated:       now,
		CompletionJSON:    string(completion),
		OpenQuestionsJSON: "[]",
		NextActionsJSON:   "[]",
	}
	if err := m.store.InsertProject(ctx, fresh); err != nil {
		return nil, err
	}
	return m.store.ProjectByID(ctx, m.projectID)
}

// Recalculate rebuilds the completion aggregate from the current contents
// of the knowledge store and persists it.
func (m *Manager) Recalculate(ctx context.Context) (journey.Completion, error) {
	row, err := m.State(ctx)
	if err != nil {
		return journey.Completion{}, err
	}

	completion := journey.Completion{JourneyStagesTotal: journey.StageCount}
	if completion.SMEsIdentified, err = m.store.CountSMEs(ctx); err != nil {
		return completion, err
	}
	if completion.SMEsInterviewed, err = m.store.CountSMEs(ctx, journey.InterviewCompleted, journey.InterviewValidated); err != nil {
		return completion, err
	}
	if completion.SMEsValidated, err = m.store.CountSMEs(ctx, journey.InterviewValidated); err != nil {
		return completion, err
	}
	if completion.JourneyStagesMapped, err = m.store.CountStages(ctx); err != nil {
		return completion, err
	}
	if completion.ProcessesDocumented, err = m.store.CountProcesses(ctx); err != nil {
		return completion, err
	}
	if completion.GapsIdentified, err = m.store.CountGaps(ctx); err != nil {
		return completion, err
	}
	if completion.GapsResolved, err = m.store.CountGaps(ctx, journey.GapResolved); err != nil {
		return completion, err
	}
	if completion.ConflictsOpen, err = m.store.CountOpenConflicts(ctx); err != nil {
		return completion, err
	}

	serialized, err := json.Marshal(completion)
	if err != nil {
		return completion, fmt.Errorf("encode completion: %w", err)
	}
	fields := store.Fields{
		"completion_json": string(serialized),
		"last_updated":    store.Now(),
	}
	if err := m.store.UpdateProject(ctx, row.ID, fields); err != nil {
		return completion, err
	}
	return completion, nil
}

// TryRecalculate runs Recalculate best-effort. Failures are logged and
// never propagate: the aggregate is derived data, not transactional truth.
func (m *Manager) TryRecalculate(ctx context.Context) {
	if _, err := m.Recalculate(ctx); err != nil {
		common.Logger().Warn("project: recalculate failed", "project_id", m.projectID, "error", err)
	}
}

// AppendOpenQuestions adds new unresolved questions to the project row.
// Empty input is a no-op.
func (m *Manager) AppendOpenQuestions(ctx context.Context, questions []journey.OpenQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	row, err := m.State(ctx)
	if err != nil {
		return err
	}
	existing := row.OpenQuestions()
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		if q.Status == "" {
			q.Status = "open"
		}
		if q.CreatedAt == "" {
			q.CreatedAt = store.Now()
		}
		existing = append(existing, q)
	}
	serialized, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("encode open questions: %w", err)
	}
	fields := store.Fields{
		"open_questions_json": string(serialized),
		"last_updated":        store.Now(),
	}
	return m.store.UpdateProject(ctx, row.ID, fields)
}
