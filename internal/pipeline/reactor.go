package pipeline

import (
	"context"
	"fmt"

	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/store"
)

// registerReactor wires the orchestrator's domain event handlers onto the
// bus. Handlers update progress or advance phases outside the tick
// cadence; the bus isolates each one, so a failing handler is logged and
// swallowed without touching its siblings.
func (o *Orchestrator) registerReactor() {
	o.bus.Subscribe(events.TypeArtifactApproved, o.onArtifactApproved)
	o.bus.Subscribe(events.TypeTrainingStarted, o.onTrainingStarted)
	o.bus.Subscribe(events.TypePlanningComplete, o.onPlanningComplete)
	o.bus.Subscribe(events.TypeShotGenerated, o.onShotGenerated)
	o.bus.Subscribe(events.TypeSceneReady, o.onSceneReady)
	o.bus.Subscribe(events.TypeEpisodeAssembled, o.onEpisodeAssembled)
	o.bus.Subscribe(events.TypeEpisodePublished, o.onEpisodePublished)
}

// onArtifactApproved refreshes the character's dataset progress counters
// immediately instead of waiting for the next tick.
func (o *Orchestrator) onArtifactApproved(ctx context.Context, event events.Event) error {
	entry, err := o.store.GetEntry(ctx, store.EntityCharacter, event.CharacterID, store.PhaseDataset)
	if err != nil {
		return err
	}
	if entry == nil || entry.Status.IsTerminal() {
		return nil
	}
	approved, err := o.catalog.ApprovedArtifactCount(ctx, event.CharacterID)
	if err != nil {
		return err
	}
	entry.ProgressCurrent = approved
	entry.ProgressTarget = o.TrainingTarget()
	return o.store.UpdateEntry(ctx, entry)
}

func (o *Orchestrator) onTrainingStarted(ctx context.Context, event events.Event) error {
	return o.store.AppendAudit(ctx, "reactor", "training_started", map[string]any{
		"character_id": event.CharacterID,
	})
}

// onPlanningComplete advances the project's planning phase as soon as the
// planner reports, rather than on the next tick. The gate still decides.
func (o *Orchestrator) onPlanningComplete(ctx context.Context, event events.Event) error {
	return o.advanceIfGatePasses(ctx, event.ProjectID, store.PhasePlan)
}

// onShotGenerated refreshes the generation phase's aggregate counters.
func (o *Orchestrator) onShotGenerated(ctx context.Context, event events.Event) error {
	entry, err := o.store.GetEntry(ctx, store.EntityProject, event.ProjectID, store.PhaseGenerate)
	if err != nil {
		return err
	}
	if entry == nil || entry.Status.IsTerminal() {
		return nil
	}
	stats, err := o.catalog.ShotStats(ctx, event.ProjectID)
	if err != nil {
		return err
	}
	entry.ProgressCurrent = stats.Completed
	entry.ProgressTarget = stats.Total
	return o.store.UpdateEntry(ctx, entry)
}

// onSceneReady records a best-effort completeness audit.
func (o *Orchestrator) onSceneReady(ctx context.Context, event events.Event) error {
	stats, err := o.catalog.SceneAssemblyStats(ctx, event.ProjectID)
	if err != nil {
		return err
	}
	return o.store.AppendAudit(ctx, "reactor", "scene_ready", map[string]any{
		"project_id":       event.ProjectID,
		"scene_id":         event.SceneID,
		"scenes_total":     stats.Total,
		"scenes_assembled": stats.Done,
	})
}

// onEpisodeAssembled audits the assembly and advances the episode
// assembly phase early once every episode has a final artifact.
func (o *Orchestrator) onEpisodeAssembled(ctx context.Context, event events.Event) error {
	if err := o.store.AppendAudit(ctx, "reactor", "episode_assembled", map[string]any{
		"project_id": event.ProjectID,
		"episode_id": event.EpisodeID,
	}); err != nil {
		return err
	}
	return o.advanceIfGatePasses(ctx, event.ProjectID, store.PhaseAssembleEpisodes)
}

// onEpisodePublished audits the publication and sends a best-effort
// external notification.
func (o *Orchestrator) onEpisodePublished(ctx context.Context, event events.Event) error {
	if err := o.store.AppendAudit(ctx, "reactor", "episode_published", map[string]any{
		"project_id": event.ProjectID,
		"episode_id": event.EpisodeID,
	}); err != nil {
		return err
	}
	if err := o.notifier.NotifyEpisodePublished(ctx, event.ProjectID, event.EpisodeID); err != nil {
		o.logger.Debug("publish notification not delivered", logging.Error(err))
	}
	return nil
}

// advanceIfGatePasses re-runs the gate for a project phase and advances
// it when the exit criteria hold. Event-driven advancement takes the
// same path the tick would, just sooner.
func (o *Orchestrator) advanceIfGatePasses(ctx context.Context, projectID int64, phase store.Phase) error {
	entry, err := o.store.GetEntry(ctx, store.EntityProject, projectID, phase)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("no %s entry for project %d", phase, projectID)
	}
	if entry.Status.IsTerminal() || entry.Status == store.StatusBlocked {
		return nil
	}
	result := o.gate.Evaluate(ctx, entry, o.TrainingTarget())
	if !result.Passed {
		return nil
	}
	return o.advancer.Advance(ctx, entry)
}
