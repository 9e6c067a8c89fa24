package pipeline

import (
	"context"
	"fmt"
	"time"

	"showrunner/internal/store"
)

// EntryView is the read-only projection of one pipeline entry.
type EntryView struct {
	EntityType      store.EntityType
	EntityID        int64
	Phase           store.Phase
	Status          store.Status
	BlockedReason   string
	ProgressCurrent int
	ProgressTarget  int
	StartedAt       *time.Time
	CompletedAt     *time.Time
	LastCheckedAt   *time.Time
	WorkOutstanding bool
}

// PipelineStatus returns the per-entry projection for a project,
// characters first. WorkOutstanding reflects the in-memory registry and
// is a best-effort hint, not a liveness guarantee.
func (o *Orchestrator) PipelineStatus(ctx context.Context, projectID int64) ([]EntryView, error) {
	entries, err := o.store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, Wrap(ErrNotFound, "status", "", fmt.Sprintf("project %d has no pipeline entries", projectID), nil)
	}

	views := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, EntryView{
			EntityType:      entry.EntityType,
			EntityID:        entry.EntityID,
			Phase:           entry.Phase,
			Status:          entry.Status,
			BlockedReason:   entry.BlockedReason,
			ProgressCurrent: entry.ProgressCurrent,
			ProgressTarget:  entry.ProgressTarget,
			StartedAt:       entry.StartedAt,
			CompletedAt:     entry.CompletedAt,
			LastCheckedAt:   entry.LastCheckedAt,
			WorkOutstanding: o.dispatcher.Running(entry.Key()),
		})
	}
	return views, nil
}

// Summary aggregates a project's pipeline position.
type Summary struct {
	ProjectID            int64
	Enabled              bool
	TrainingTarget       int
	StatusCounts         map[store.Status]int
	CharactersIncomplete int
	CurrentProjectPhase  store.Phase
	OutstandingWork      int
}

// PipelineSummary returns the aggregate projection for a project.
func (o *Orchestrator) PipelineSummary(ctx context.Context, projectID int64) (Summary, error) {
	entries, err := o.store.ListByProject(ctx, projectID)
	if err != nil {
		return Summary{}, err
	}
	if len(entries) == 0 {
		return Summary{}, Wrap(ErrNotFound, "summary", "", fmt.Sprintf("project %d has no pipeline entries", projectID), nil)
	}

	incomplete, err := o.store.CharactersIncomplete(ctx, projectID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		ProjectID:            projectID,
		Enabled:              o.IsEnabled(),
		TrainingTarget:       o.TrainingTarget(),
		StatusCounts:         make(map[store.Status]int),
		CharactersIncomplete: incomplete,
		OutstandingWork:      o.dispatcher.OutstandingCount(),
	}
	for _, entry := range entries {
		summary.StatusCounts[entry.Status]++
		if entry.EntityType == store.EntityProject && !entry.Status.IsTerminal() && summary.CurrentProjectPhase == "" {
			summary.CurrentProjectPhase = entry.Phase
		}
	}
	return summary, nil
}
