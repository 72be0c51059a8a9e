// File path: internal/report/report.go

// Package report renders read-only views over the knowledge base: the
// journey map, record inventories, and the executive summary.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/llm"
	"github.com/mapline/guestjourney/internal/project"
	"github.com/mapline/guestjourney/internal/store"
)

// Reporter builds reports from the current knowledge store contents.
type Reporter struct {
	store    *store.Store
	gateway  *llm.Gateway
	projects *project.Manager
}

// NewReporter constructs a Reporter.
func NewReporter(s *store.Store, gateway *llm.Gateway, projects *project.Manager) *Reporter {
	return &Reporter{store: s, gateway: gateway, projects: projects}
}

// StageEntry is one journey stage in the map, with everything mapped to it.
type StageEntry struct {
	Stage          string                         `json:"stage"`
	Mapped         bool                           `json:"mapped"`
	Touchpoints    []journey.TouchpointExtraction `json:"touchpoints,omitempty"`
	SupportingSMEs []string                       `json:"supporting_smes,omitempty"`
	Processes      []ProcessEntry                 `json:"processes,omitempty"`
	OpenGaps       int                            `json:"open_gaps"`
}

// ProcessEntry is the inventory view of one process.
type ProcessEntry struct {
	ProcessID   string   `json:"process_id"`
	Name        string   `json:"name"`
	Stage       string   `json:"journey_stage"`
	Maturity    string   `json:"maturity"`
	StepCount   int      `json:"step_count"`
	Discrepancy bool     `json:"discrepancy_flag"`
	Conflict    bool     `json:"conflict_flag"`
	SourceSMEs  []string `json:"source_smes,omitempty"`
}

// JourneyMap assembles the per-stage view in journey order.
func (r *Reporter) JourneyMap(ctx context.Context) ([]StageEntry, error) {
	stages, err := r.store.ListStages(ctx)
	if err != nil {
		return nil, err
	}
	processes, err := r.store.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}
	gaps, err := r.store.GapsByStatus(ctx, journey.GapOpen, journey.GapInProgress)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]store.StageRow, len(stages))
	for _, row := range stages {
		byName[row.Stage] = row
	}
	processesByStage := make(map[string][]ProcessEntry)
	for _, row := range processes {
		processesByStage[row.JourneyStage] = append(processesByStage[row.JourneyStage], processEntry(row))
	}
	gapsByStage := make(map[string]int)
	for _, row := range gaps {
		gapsByStage[row.JourneyStage]++
	}

	entries := make([]StageEntry, 0, len(journey.StageOrder))
	for _, stage := range journey.StageOrder {
		name := string(stage)
		entry := StageEntry{
			Stage:     name,
			Processes: processesByStage[name],
			OpenGaps:  gapsByStage[name],
		}
		if row, ok := byName[name]; ok {
			entry.Mapped = true
			entry.Touchpoints = row.Frontstage()
			entry.SupportingSMEs = row.SupportingSMEs()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ProcessInventory is the process list plus breakdown counts.
type ProcessInventory struct {
	Processes         []ProcessEntry `json:"processes"`
	Total             int            `json:"total"`
	WithDiscrepancies int            `json:"with_discrepancies"`
	WithConflicts     int            `json:"with_conflicts"`
	ByMaturity        map[string]int `json:"by_maturity"`
}

// Processes builds the process inventory.
func (r *Reporter) Processes(ctx context.Context) (*ProcessInventory, error) {
	rows, err := r.store.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}
	inventory := &ProcessInventory{
		Processes:  make([]ProcessEntry, 0, len(rows)),
		Total:      len(rows),
		ByMaturity: map[string]int{},
	}
	for _, row := range rows {
		inventory.Processes = append(inventory.Processes, processEntry(row))
		if row.DiscrepancyFlag {
			inventory.WithDiscrepancies++
		}
		if row.ConflictFlag {
			inventory.WithConflicts++
		}
		maturity := row.Maturity
		if maturity == "" {
			maturity = "unknown"
		}
		inventory.ByMaturity[maturity]++
	}
	return inventory, nil
}

func processEntry(row store.ProcessRow) ProcessEntry {
	return ProcessEntry{
		ProcessID:   row.ProcessID,
		Name:        row.Name,
		Stage:       row.JourneyStage,
		Maturity:    row.Maturity,
		StepCount:   len(row.Steps()),
		Discrepancy: row.DiscrepancyFlag,
		Conflict:    row.ConflictFlag,
		SourceSMEs:  row.SourceSMEs(),
	}
}

// SystemEntry is the ecosystem view of one system.
type SystemEntry struct {
	SystemID     string                    `json:"system_id"`
	Name         string                    `json:"name"`
	Vendor       string                    `json:"vendor,omitempty"`
	Category     string                    `json:"category"`
	Users        []string                  `json:"users,omitempty"`
	Integrations []journey.IntegrationLink `json:"integrations,omitempty"`
}

// TechEcosystem is the system list plus a category breakdown.
type TechEcosystem struct {
	Systems    []SystemEntry  `json:"systems"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

// Systems builds the technology ecosystem report.
func (r *Reporter) Systems(ctx context.Context) (*TechEcosystem, error) {
	rows, err := r.store.ListSystems(ctx)
	if err != nil {
		return nil, err
	}
	eco := &TechEcosystem{
		Systems:    make([]SystemEntry, 0, len(rows)),
		Total:      len(rows),
		ByCategory: map[string]int{},
	}
	for _, row := range rows {
		eco.Systems = append(eco.Systems, SystemEntry{
			SystemID:     row.SystemID,
			Name:         row.Name,
			Vendor:       row.Vendor,
			Category:     row.Category,
			Users:        row.Users(),
			Integrations: row.Integrations(),
		})
		category := row.Category
		if category == "" {
			category = "Other"
		}
		eco.ByCategory[category]++
	}
	return eco, nil
}

// GapRegister is the gap list plus status and impact breakdowns.
type GapRegister struct {
	Gaps     []store.GapRow `json:"gaps"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	ByImpact map[string]int `json:"by_impact"`
}

// Gaps builds the gap register.
func (r *Reporter) Gaps(ctx context.Context) (*GapRegister, error) {
	rows, err := r.store.ListGaps(ctx)
	if err != nil {
		return nil, err
	}
	register := &GapRegister{
		Gaps:     rows,
		Total:    len(rows),
		ByStatus: map[string]int{},
		ByImpact: map[string]int{},
	}
	for _, row := range rows {
		register.ByStatus[row.Status]++
		impact := row.GuestImpact
		if impact == "" {
			impact = "unknown"
		}
		register.ByImpact[impact]++
	}
	return register, nil
}

// ConflictLog is the conflict list plus a resolution breakdown.
type ConflictLog struct {
	Conflicts  []store.ConflictRow `json:"conflicts"`
	Total      int                 `json:"total"`
	Unresolved int                 `json:"unresolved"`
	ByType     map[string]int      `json:"by_type"`
}

// Conflicts builds the conflict log.
func (r *Reporter) Conflicts(ctx context.Context) (*ConflictLog, error) {
	rows, err := r.store.ListConflicts(ctx)
	if err != nil {
		return nil, err
	}
	log := &ConflictLog{
		Conflicts: rows,
		Total:     len(rows),
		ByType:    map[string]int{},
	}
	for _, row := range rows {
		if row.ResolutionStatus != journey.ConflictResolved {
			log.Unresolved++
		}
		log.ByType[row.ConflictType]++
	}
	return log, nil
}

// ExecutiveSummary is the narrative project overview.
type ExecutiveSummary struct {
	Completion journey.Completion `json:"completion"`
	Narrative  string             `json:"narrative"`
}

// Executive recalculates progress and asks the model for a short narrative,
// degrading to a counting sentence when the provider cannot help.
func (r *Reporter) Executive(ctx context.Context) (*ExecutiveSummary, error) {
	completion, err := r.projects.Recalculate(ctx)
	if err != nil {
		return nil, err
	}

	fallback := fmt.Sprintf("Discovery has identified %d SMEs (%d interviewed), mapped %d of %d journey stages, documented %d processes, and logged %d gaps with %d conflicts open.",
		completion.SMEsIdentified, completion.SMEsInterviewed,
		completion.JourneyStagesMapped, completion.JourneyStagesTotal,
		completion.ProcessesDocumented, completion.GapsIdentified, completion.ConflictsOpen)

	const instruction = "You write short executive summaries of guest journey discovery projects. Respond with plain prose, at most five sentences."
	reply, err := r.gateway.GenerateSummary(ctx, instruction, []llm.Message{{
		Role:    "user",
		Content: "Summarise this project status for leadership: " + fallback,
	}})
	narrative := fallback
	if err == nil && strings.TrimSpace(reply.Reply) != "" {
		narrative = reply.Reply
	} else if err != nil {
		common.Logger().Warn("report: executive narrative failed", "error", err)
	}
	return &ExecutiveSummary{Completion: completion, Narrative: narrative}, nil
}
