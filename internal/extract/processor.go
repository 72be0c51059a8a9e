// File path: internal/extract/processor.go

// Package extract converts the model's structured extraction payload into
// create/merge operations against the knowledge store. Every category is
// processed independently and every item is isolated: one malformed item
// logs, lands in the summary as failed, and never blocks its neighbours.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mapline/guestjourney/internal/common"
	"github.com/mapline/guestjourney/internal/ids"
	"github.com/mapline/guestjourney/internal/journey"
	"github.com/mapline/guestjourney/internal/merge"
	"github.com/mapline/guestjourney/internal/store"
)

const processNameLimit = 100

// Result records the outcome of one extraction item.
type Result struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Detail string `json:"detail,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Summary collects per-item results by category. Failed items are part of
// the summary, not just the logs, so partial failure stays observable.
type Summary struct {
	Systems     []Result `json:"systems"`
	Processes   []Result `json:"processes"`
	Gaps        []Result `json:"gaps"`
	Touchpoints []Result `json:"touchpoints"`
}

// CreatedCount returns the number of items that persisted successfully.
func (s *Summary) CreatedCount() int {
	count := 0
	for _, group := range [][]Result{s.Systems, s.Processes, s.Gaps, s.Touchpoints} {
		for _, r := range group {
			if r.Err == "" {
				count++
			}
		}
	}
	return count
}

// Processor applies extraction payloads to the knowledge store.
type Processor struct {
	store *store.Store
	alloc *ids.Allocator
}

// NewProcessor constructs a Processor.
func NewProcessor(s *store.Store, alloc *ids.Allocator) *Processor {
	return &Processor{store: s, alloc: alloc}
}

// Apply processes one turn's extraction payload. It never returns an error;
// failures surface per item inside the summary.
func (p *Processor) Apply(ctx context.Context, ext journey.Extractions, smeID, sessionID, actorID, currentStage string) *Summary {
	summary := &Summary{}
	currentStage = string(journey.NormalizeStage(currentStage, journey.StageDiscovery))
	p.applySystems(ctx, ext.Systems, smeID, actorID, summary)
	p.applyProcessSteps(ctx, ext.ProcessSteps, smeID, actorID, currentStage, summary)
	p.applyGaps(ctx, ext.Gaps, smeID, actorID, currentStage, summary)
	p.applyTouchpoints(ctx, ext.JourneyTouchpoints, smeID, actorID, currentStage, summary)
	p.applySMEUpdates(ctx, ext.SMEUpdates, smeID)
	return summary
}

func (p *Processor) applySystems(ctx context.Context, items []journey.SystemExtraction, smeID, actorID string, summary *Summary) {
	for _, item := range items {
		result, err := p.applySystem(ctx, item, smeID, actorID)
		if err != nil {
			common.Logger().Error("extract: system item failed", "system", item.SystemName, "error", err)
			summary.Systems = append(summary.Systems, Result{Action: "failed", Name: item.SystemName, Err: err.Error()})
			continue
		}
		summary.Systems = append(summary.Systems, result)
	}
}

func (p *Processor) applySystem(ctx context.Context, item journey.SystemExtraction, smeID, actorID string) (Result, error) {
	if item.IsNew {
		systemID, err := p.alloc.Next(ctx, ids.PrefixSystem)
		if err != nil {
			return Result{}, err
		}
		name := strings.TrimSpace(item.SystemName)
		if name == "" {
			name = "Unknown"
		}
		category := item.Category
		if category == "" {
			category = "Other"
		}
		now := store.Now()
		row := store.SystemRow{
			SystemID:         systemID,
			Name:             name,
			Vendor:           item.Vendor,
			Category:         category,
			Environment:      "production",
			OwnerSMEID:       smeID,
			UsersJSON:        merge.AddUnique("[]", smeID),
			IntegrationsJSON: merge.Objects("[]", item.IntegrationWith, "system_name"),
			WorkaroundsJSON:  "[]",
			SourceSMEsJSON:   merge.AddUnique("[]", smeID),
			CreatedBy:        actorID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := p.store.InsertSystem(ctx, row); err != nil {
			return Result{}, err
		}
		return Result{Action: "created", ID: systemID, Name: name}, nil
	}

	if item.ExistingSystemID == "" {
		return Result{Action: "skipped", Name: item.SystemName, Detail: "neither new nor referencing an existing system"}, nil
	}
	existing, err := p.store.SystemByID(ctx, item.ExistingSystemID)
	if err != nil {
		return Result{}, err
	}
	fields := store.Fields{
		"users_json":        merge.AddUnique(existing.UsersJSON, smeID),
		"source_smes_json":  merge.AddUnique(existing.SourceSMEsJSON, smeID),
		"integrations_json": merge.Objects(existing.IntegrationsJSON, item.IntegrationWith, "system_name"),
		"updated_at":        store.Now(),
	}
	if err := p.store.UpdateSystem(ctx, existing.ID, fields); err != nil {
		return Result{}, err
	}
	return Result{Action: "updated", ID: item.ExistingSystemID, Name: existing.Name}, nil
}

func (p *Processor) applyProcessSteps(ctx context.Context, steps []journey.ProcessStepExtraction, smeID, actorID, currentStage string, summary *Summary) {
	// Group by the model-supplied process key; keyless steps form a new
	// process scoped to their stage.
	groups := make(map[string][]journey.ProcessStepExtraction)
	order := []string{}
	for _, step := range steps {
		key := step.BelongsToProcess
		if key == "" {
			key = "__new_" + stageOrDefault(step.JourneyStage, currentStage)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], step)
	}

	for _, key := range order {
		result, err := p.applyProcessGroup(ctx, key, groups[key], smeID, actorID, currentStage, summary)
		if err != nil {
			common.Logger().Error("extract: process group failed", "key", key, "error", err)
			summary.Processes = append(summary.Processes, Result{Action: "failed", Name: key, Err: err.Error()})
			continue
		}
		summary.Processes = append(summary.Processes, result)
	}
}

func (p *Processor) applyProcessGroup(ctx context.Context, key string, steps []journey.ProcessStepExtraction, smeID, actorID, currentStage string, summary *Summary) (Result, error) {
	first := steps[0]
	stage := stageOrDefault(first.JourneyStage, currentStage)
	documented := strings.TrimSpace(first.AsDocumented)
	practiced := strings.TrimSpace(first.AsPracticed)
	hasDiscrepancy := documented != "" && practiced != "" && documented != practiced

	if strings.HasPrefix(key, "__new_") {
		processID, err := p.alloc.Next(ctx, ids.PrefixProcess)
		if err != nil {
			return Result{}, err
		}
		name := processName(steps)
		now := store.Now()
		row := store.ProcessRow{
			ProcessID:          processID,
			Name:               name,
			JourneyStage:       stage,
			OwnerSMEID:         smeID,
			SupportingSMEsJSON: merge.AddUnique("[]", smeID),
			StepsJSON:          merge.Objects("[]", steps, ""),
			Maturity:           "ad_hoc",
			AsDocumented:       first.AsDocumented,
			AsPracticed:        first.AsPracticed,
			DiscrepancyFlag:    hasDiscrepancy,
			SourceSMEsJSON:     merge.AddUnique("[]", smeID),
			CreatedBy:          actorID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if hasDiscrepancy {
			row.DiscrepancyNotes = "Auto-detected: documented vs practiced differ"
		}
		if err := p.store.InsertProcess(ctx, row); err != nil {
			return Result{}, err
		}
		if hasDiscrepancy {
			p.autoCreateDiscrepancyGap(ctx, processID, name, stage, documented, practiced, smeID, actorID, summary)
		}
		return Result{Action: "created", ID: processID, Name: name, Detail: fmt.Sprintf("%d steps", len(steps))}, nil
	}

	existing, err := p.store.ProcessByID(ctx, key)
	if err != nil {
		return Result{}, err
	}
	fields := store.Fields{
		"steps_json":       merge.Objects(existing.StepsJSON, steps, ""),
		"source_smes_json": merge.AddUnique(existing.SourceSMEsJSON, smeID),
		"updated_at":       store.Now(),
	}
	// Discrepancy firing is one-shot: it only triggers when the flag
	// transitions from false to true.
	if hasDiscrepancy && !existing.DiscrepancyFlag {
		fields["discrepancy_flag"] = true
		fields["discrepancy_notes"] = "Auto-detected: documented vs practiced differ"
		fields["as_documented"] = first.AsDocumented
		fields["as_practiced"] = first.AsPracticed
	}
	if err := p.store.UpdateProcess(ctx, existing.ID, fields); err != nil {
		return Result{}, err
	}
	if hasDiscrepancy && !existing.DiscrepancyFlag {
		p.autoCreateDiscrepancyGap(ctx, existing.ProcessID, existing.Name, existing.JourneyStage, documented, practiced, smeID, actorID, summary)
	}
	return Result{Action: "updated", ID: key, Name: existing.Name, Detail: fmt.Sprintf("%d steps added", len(steps))}, nil
}

func (p *Processor) autoCreateDiscrepancyGap(ctx context.Context, processID, processName, stage, documented, practiced, smeID, actorID string, summary *Summary) {
	gapID, err := p.newGap(ctx, store.GapRow{
		Title:        fmt.Sprintf("Discrepancy: %s - documented vs practiced", processName),
		Description:  fmt.Sprintf("Documented: %s. Practiced: %s.", documented, practiced),
		JourneyStage: stage,
		ProcessID:    processID,
		GapType:      "missing_process",
		RootCause:    "Process not followed as documented",
		Frequency:    "occasional",
		GuestImpact:  "medium",
	}, smeID, actorID)
	if err != nil {
		common.Logger().Error("extract: discrepancy gap failed", "process_id", processID, "error", err)
		summary.Gaps = append(summary.Gaps, Result{Action: "failed", Name: processName, Err: err.Error()})
		return
	}
	summary.Gaps = append(summary.Gaps, Result{Action: "auto-created", ID: gapID, Detail: "discrepancy"})
}

func processName(steps []journey.ProcessStepExtraction) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		if desc := strings.TrimSpace(s.Description); desc != "" {
			parts = append(parts, desc)
		}
	}
	name := strings.Join(parts, "; ")
	if name == "" {
		return "Process from interview"
	}
	if len(name) > processNameLimit {
		name = name[:processNameLimit]
	}
	return name
}

func (p *Processor) applyGaps(ctx context.Context, items []journey.GapExtraction, smeID, actorID, currentStage string, summary *Summary) {
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Untitled gap"
		}
		gapType := item.GapType
		if gapType == "" {
			gapType = "other"
		}
		frequency := item.Frequency
		if frequency == "" {
			frequency = "occasional"
		}
		impact := item.GuestImpact
		if impact == "" {
			impact = "medium"
		}
		gapID, err := p.newGap(ctx, store.GapRow{
			Title:        title,
			Description:  item.Description,
			JourneyStage: currentStage,
			GapType:      gapType,
			RootCause:    item.RootCause,
			Frequency:    frequency,
			GuestImpact:  impact,
		}, smeID, actorID)
		if err != nil {
			common.Logger().Error("extract: gap item failed", "title", title, "error", err)
			summary.Gaps = append(summary.Gaps, Result{Action: "failed", Name: title, Err: err.Error()})
			continue
		}
		summary.Gaps = append(summary.Gaps, Result{Action: "created", ID: gapID, Name: title})
	}
}

func (p *Processor) newGap(ctx context.Context, row store.GapRow, smeID, actorID string) (string, error) {
	gapID, err := p.alloc.Next(ctx, ids.PrefixGap)
	if err != nil {
		return "", err
	}
	now := store.Now()
	row.GapID = gapID
	row.Status = journey.GapOpen
	row.SourceSMEsJSON = merge.AddUnique("[]", smeID)
	row.CreatedBy = actorID
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := p.store.InsertGap(ctx, row); err != nil {
		return "", err
	}
	return gapID, nil
}

func (p *Processor) applyTouchpoints(ctx context.Context, items []journey.TouchpointExtraction, smeID, actorID, currentStage string, summary *Summary) {
	for _, item := range items {
		result, err := p.applyTouchpoint(ctx, item, smeID, actorID, currentStage)
		if err != nil {
			common.Logger().Error("extract: touchpoint item failed", "channel", item.Channel, "error", err)
			summary.Touchpoints = append(summary.Touchpoints, Result{Action: "failed", Name: item.Channel, Err: err.Error()})
			continue
		}
		summary.Touchpoints = append(summary.Touchpoints, result)
	}
}

func (p *Processor) applyTouchpoint(ctx context.Context, item journey.TouchpointExtraction, smeID, actorID, currentStage string) (Result, error) {
	stage := stageOrDefault(item.JourneyStage, currentStage)
	existing, err := p.store.StageByName(ctx, stage)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Result{}, err
	}

	if existing == nil {
		stageID, err := p.alloc.Next(ctx, ids.PrefixStage)
		if err != nil {
			return Result{}, err
		}
		now := store.Now()
		row := store.StageRow{
			StageID:            stageID,
			Stage:              stage,
			GuestActionsJSON:   "[]",
			FrontstageJSON:     merge.Objects("[]", []journey.TouchpointExtraction{item}, ""),
			BackstageJSON:      "[]",
			TouchpointsJSON:    "[]",
			FailurePointsJSON:  "[]",
			SupportingSMEsJSON: merge.AddUnique("[]", smeID),
			CreatedBy:          actorID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := p.store.InsertStage(ctx, row); err != nil {
			return Result{}, err
		}
		return Result{Action: "created", ID: stageID, Name: stage}, nil
	}

	fields := store.Fields{
		"frontstage_json":      merge.Objects(existing.FrontstageJSON, []journey.TouchpointExtraction{item}, ""),
		"supporting_smes_json": merge.AddUnique(existing.SupportingSMEsJSON, smeID),
		"updated_at":           store.Now(),
	}
	if err := p.store.UpdateStage(ctx, existing.ID, fields); err != nil {
		return Result{}, err
	}
	return Result{Action: "updated", ID: existing.StageID, Name: stage}, nil
}

func (p *Processor) applySMEUpdates(ctx context.Context, updates journey.SMEUpdates, smeID string) {
	if smeID == "" || updates.Empty() {
		return
	}
	sme, err := p.store.SMEByID(ctx, smeID)
	if err != nil {
		common.Logger().Error("extract: sme profile update failed", "sme_id", smeID, "error", err)
		return
	}
	fields := store.Fields{"updated_at": store.Now()}
	if len(updates.NewSystemsUsed) > 0 {
		fields["systems_used_json"] = merge.AddAllUnique(sme.SystemsUsedJSON, updates.NewSystemsUsed)
	}
	if len(updates.NewDomains) > 0 {
		fields["domains_json"] = merge.AddAllUnique(sme.DomainsJSON, updates.NewDomains)
	}
	if len(updates.NewStagesOwned) > 0 {
		fields["stages_owned_json"] = merge.AddAllUnique(sme.StagesOwnedJSON, updates.NewStagesOwned)
	}
	if err := p.store.UpdateSME(ctx, sme.ID, fields); err != nil {
		common.Logger().Error("extract: sme profile update failed", "sme_id", smeID, "error", err)
	}
}

// stageOrDefault normalises a model-supplied stage name. Values outside the
// journey stage enum fall back to the session's stage so every persisted row
// lands on a stage the journey map can show.
func stageOrDefault(stage, fallback string) string {
	if normalized := journey.NormalizeStage(stage, ""); normalized != "" {
		return string(normalized)
	}
	return string(journey.NormalizeStage(fallback, journey.StageDiscovery))
}
