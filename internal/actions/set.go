package actions

import (
	"context"
	"log/slog"

	"showrunner/internal/catalog"
	"showrunner/internal/config"
	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
)

// Set resolves the remediation action for each phase. Video generation is
// funneled through a bounded-concurrency gate so the render backend never
// sees more simultaneous jobs than configured.
type Set struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	bus     *events.Bus
	client  *backendClient
	logger  *slog.Logger

	renderSlots chan struct{}
}

// NewSet wires the default remediation actions against the configured
// backends.
func NewSet(cfg *config.Config, cat *catalog.Catalog, bus *events.Bus, logger *slog.Logger) *Set {
	slots := cfg.Backends.RenderConcurrency
	if slots <= 0 {
		slots = 1
	}
	return &Set{
		cfg:         cfg,
		catalog:     cat,
		bus:         bus,
		client:      newBackendClient(cfg.Backends.RequestTimeout),
		logger:      logging.NewComponentLogger(logger, "actions"),
		renderSlots: make(chan struct{}, slots),
	}
}

// ActionFor returns the remediation for a phase. Phases without one
// (character/ready) report false.
func (s *Set) ActionFor(entityType store.EntityType, phase store.Phase) (pipeline.Action, bool) {
	switch entityType {
	case store.EntityCharacter:
		switch phase {
		case store.PhaseDataset:
			return pipeline.ActionFunc(s.generateDataset), true
		case store.PhaseTraining:
			return pipeline.ActionFunc(s.triggerTraining), true
		}
	case store.EntityProject:
		switch phase {
		case store.PhasePlan:
			return pipeline.ActionFunc(s.planScenes), true
		case store.PhasePrep:
			return pipeline.ActionFunc(s.assignAssets), true
		case store.PhaseGenerate:
			return pipeline.ActionFunc(s.generateShots), true
		case store.PhaseQC:
			return pipeline.ActionFunc(s.runQualityPass), true
		case store.PhaseAssembleScenes:
			return pipeline.ActionFunc(s.assembleScenes), true
		case store.PhaseAssembleEpisodes:
			return pipeline.ActionFunc(s.assembleEpisodes), true
		case store.PhasePublish:
			return pipeline.ActionFunc(s.publishEpisodes), true
		}
	}
	return nil, false
}

func (s *Set) generateDataset(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.RenderURL, "dataset_generation", jobReqFor(entry, "dataset_generation"))
}

// triggerTraining queues a training run and records the job so the gate
// sees it in flight on subsequent evaluations.
func (s *Set) triggerTraining(ctx context.Context, entry *store.Entry) error {
	if err := s.client.post(ctx, s.cfg.Backends.TrainerURL, "training_trigger", jobReqFor(entry, "training")); err != nil {
		return err
	}
	jobID, err := s.catalog.InsertTrainingJob(ctx, entry.EntityID)
	if err != nil {
		return err
	}
	s.logger.Info("training job queued",
		logging.Int64(logging.FieldEntityID, entry.EntityID),
		logging.Int64("job_id", jobID),
	)
	s.bus.Publish(ctx, events.Event{
		Type:        events.TypeTrainingStarted,
		ProjectID:   entry.ProjectID,
		CharacterID: entry.EntityID,
	})
	return nil
}

func (s *Set) planScenes(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.PlannerURL, "scene_planning", jobReqFor(entry, "scene_planning"))
}

func (s *Set) assignAssets(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.RenderURL, "asset_assignment", jobReqFor(entry, "asset_assignment"))
}

// generateShots holds a render slot for the duration of the backend call.
func (s *Set) generateShots(ctx context.Context, entry *store.Entry) error {
	select {
	case s.renderSlots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.renderSlots }()
	return s.client.post(ctx, s.cfg.Backends.RenderURL, "video_generation", jobReqFor(entry, "video_generation"))
}

func (s *Set) runQualityPass(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.RenderURL, "quality_pass", jobReqFor(entry, "quality_pass"))
}

func (s *Set) assembleScenes(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.RenderURL, "scene_assembly", jobReqFor(entry, "scene_assembly"))
}

func (s *Set) assembleEpisodes(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.RenderURL, "episode_assembly", jobReqFor(entry, "episode_assembly"))
}

func (s *Set) publishEpisodes(ctx context.Context, entry *store.Entry) error {
	return s.client.post(ctx, s.cfg.Backends.PublisherURL, "episode_publish", jobReqFor(entry, "episode_publish"))
}

func jobReqFor(entry *store.Entry, kind string) jobRequest {
	return jobRequest{
		Kind:      kind,
		ProjectID: entry.ProjectID,
		EntityID:  entry.EntityID,
		Phase:     string(entry.Phase),
	}
}
