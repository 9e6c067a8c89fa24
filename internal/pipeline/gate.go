package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"showrunner/internal/catalog"
	"showrunner/internal/logging"
	"showrunner/internal/store"
)

// GateResult is the outcome of evaluating one entry's exit criteria. It is
// never persisted structurally; the tick stores its JSON form as the
// entry's gate snapshot.
type GateResult struct {
	Passed       bool        `json:"passed"`
	ActionNeeded bool        `json:"action_needed"`
	Reason       string      `json:"reason,omitempty"`
	Metrics      GateMetrics `json:"metrics"`
}

// GateMetrics carries the numbers behind a gate decision. Only the fields
// relevant to the evaluated phase are populated.
type GateMetrics struct {
	ApprovedCount   int  `json:"approved_count,omitempty"`
	TrainingTarget  int  `json:"training_target,omitempty"`
	ArtifactPresent bool `json:"artifact_present,omitempty"`
	ActiveJobs      int  `json:"active_jobs,omitempty"`
	SceneCount      int  `json:"scene_count,omitempty"`
	ShotsTotal      int  `json:"shots_total,omitempty"`
	ShotsCompleted  int  `json:"shots_completed,omitempty"`
	MissingAssets   int  `json:"missing_assets,omitempty"`
	BelowQuality    int  `json:"below_quality,omitempty"`
	AssemblyTotal   int  `json:"assembly_total,omitempty"`
	AssemblyDone    int  `json:"assembly_done,omitempty"`
	PublishedCount  int  `json:"published_count,omitempty"`
}

// Snapshot renders the result as the opaque JSON payload stored on the entry.
func (r GateResult) Snapshot() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// Progress reports the entry progress counters implied by the result, if
// the gate has meaningful ones for the phase.
func (r GateResult) Progress() (current, target int, ok bool) {
	switch {
	case r.Metrics.TrainingTarget > 0:
		return r.Metrics.ApprovedCount, r.Metrics.TrainingTarget, true
	case r.Metrics.ShotsTotal > 0:
		return r.Metrics.ShotsCompleted, r.Metrics.ShotsTotal, true
	case r.Metrics.AssemblyTotal > 0:
		done := r.Metrics.AssemblyDone
		if r.Metrics.PublishedCount > 0 {
			done = r.Metrics.PublishedCount
		}
		return done, r.Metrics.AssemblyTotal, true
	}
	return 0, 0, false
}

// Evaluator decides whether a phase's exit criteria are met. It is a pure
// read: nothing here ever writes to the phase store or the catalog.
type Evaluator struct {
	catalog      *catalog.Catalog
	qualityFloor float64
	logger       *slog.Logger
}

// NewEvaluator constructs a gate evaluator over the production catalog.
func NewEvaluator(cat *catalog.Catalog, qualityFloor float64, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		catalog:      cat,
		qualityFloor: qualityFloor,
		logger:       logging.NewComponentLogger(logger, "gate"),
	}
}

// Evaluate runs the gate for one entry. A read failure is conservative:
// the result neither passes nor requests work, so a transient error never
// spuriously triggers remediation or advancement.
func (e *Evaluator) Evaluate(ctx context.Context, entry *store.Entry, trainingTarget int) GateResult {
	result, err := e.evaluate(ctx, entry, trainingTarget)
	if err != nil {
		e.logger.Warn("gate evaluation read failed",
			logging.String(logging.FieldEntityType, string(entry.EntityType)),
			logging.Int64(logging.FieldEntityID, entry.EntityID),
			logging.String(logging.FieldPhase, string(entry.Phase)),
			logging.Error(err),
		)
		return GateResult{Reason: "gate read failed: " + err.Error()}
	}
	return result
}

func (e *Evaluator) evaluate(ctx context.Context, entry *store.Entry, trainingTarget int) (GateResult, error) {
	switch entry.EntityType {
	case store.EntityCharacter:
		return e.evaluateCharacter(ctx, entry, trainingTarget)
	case store.EntityProject:
		return e.evaluateProject(ctx, entry)
	}
	return GateResult{Reason: "unknown entity type"}, nil
}

func (e *Evaluator) evaluateCharacter(ctx context.Context, entry *store.Entry, trainingTarget int) (GateResult, error) {
	switch entry.Phase {
	case store.PhaseDataset:
		approved, err := e.catalog.ApprovedArtifactCount(ctx, entry.EntityID)
		if err != nil {
			return GateResult{}, err
		}
		passed := approved >= trainingTarget
		return GateResult{
			Passed:       passed,
			ActionNeeded: !passed,
			Metrics:      GateMetrics{ApprovedCount: approved, TrainingTarget: trainingTarget},
		}, nil

	case store.PhaseTraining:
		present, err := e.catalog.ModelArtifactExists(entry.EntityID)
		if err != nil {
			return GateResult{}, err
		}
		if present {
			return GateResult{Passed: true, Metrics: GateMetrics{ArtifactPresent: true}}, nil
		}
		active, err := e.catalog.ActiveTrainingJobCount(ctx, entry.EntityID)
		if err != nil {
			return GateResult{}, err
		}
		// A job already in flight means no artifact yet but also no new
		// trigger: re-dispatching would queue duplicate training runs.
		return GateResult{
			ActionNeeded: active == 0,
			Reason:       trainingReason(active),
			Metrics:      GateMetrics{ActiveJobs: active},
		}, nil

	case store.PhaseReady:
		return GateResult{Passed: true}, nil
	}
	return inertResult(entry), nil
}

func (e *Evaluator) evaluateProject(ctx context.Context, entry *store.Entry) (GateResult, error) {
	switch entry.Phase {
	case store.PhasePlan:
		count, err := e.catalog.SceneCount(ctx, entry.ProjectID)
		if err != nil {
			return GateResult{}, err
		}
		return GateResult{
			Passed:       count > 0,
			ActionNeeded: count == 0,
			Metrics:      GateMetrics{SceneCount: count},
		}, nil

	case store.PhasePrep:
		stats, err := e.catalog.ShotStats(ctx, entry.ProjectID)
		if err != nil {
			return GateResult{}, err
		}
		passed := stats.Total > 0 && stats.MissingAsset == 0
		return GateResult{
			Passed:       passed,
			ActionNeeded: !passed,
			Metrics: GateMetrics{
				ShotsTotal:     stats.Total,
				ShotsCompleted: stats.Completed,
				MissingAssets:  stats.MissingAsset,
			},
		}, nil

	case store.PhaseGenerate:
		stats, err := e.catalog.ShotStats(ctx, entry.ProjectID)
		if err != nil {
			return GateResult{}, err
		}
		passed := stats.Total > 0 && stats.Completed >= stats.Total
		return GateResult{
			Passed:       passed,
			ActionNeeded: !passed,
			Metrics: GateMetrics{
				ShotsTotal:     stats.Total,
				ShotsCompleted: stats.Completed,
			},
		}, nil

	case store.PhaseQC:
		below, err := e.catalog.ShotsBelowQuality(ctx, entry.ProjectID, e.qualityFloor)
		if err != nil {
			return GateResult{}, err
		}
		return GateResult{
			Passed:       below == 0,
			ActionNeeded: below > 0,
			Metrics:      GateMetrics{BelowQuality: below},
		}, nil

	case store.PhaseAssembleScenes:
		stats, err := e.catalog.SceneAssemblyStats(ctx, entry.ProjectID)
		if err != nil {
			return GateResult{}, err
		}
		return assemblyResult(stats), nil

	case store.PhaseAssembleEpisodes:
		stats, err := e.catalog.EpisodeAssemblyStats(ctx, entry.ProjectID)
		if err != nil {
			return GateResult{}, err
		}
		return assemblyResult(stats), nil

	case store.PhasePublish:
		stats, err := e.catalog.EpisodePublishStats(ctx, entry.ProjectID)
		if err != nil {
			return GateResult{}, err
		}
		passed := stats.Total > 0 && stats.Done >= stats.Total
		return GateResult{
			Passed:       passed,
			ActionNeeded: !passed,
			Metrics:      GateMetrics{AssemblyTotal: stats.Total, PublishedCount: stats.Done},
		}, nil
	}
	return inertResult(entry), nil
}

func assemblyResult(stats catalog.AssemblyStats) GateResult {
	passed := stats.Total > 0 && stats.Done >= stats.Total
	return GateResult{
		Passed:       passed,
		ActionNeeded: !passed,
		Metrics:      GateMetrics{AssemblyTotal: stats.Total, AssemblyDone: stats.Done},
	}
}

// inertResult covers (entity_type, phase) pairs outside the dispatch
// table: never passes, never triggers work.
func inertResult(entry *store.Entry) GateResult {
	return GateResult{Reason: "no gate defined for " + string(entry.EntityType) + "/" + string(entry.Phase)}
}

func trainingReason(activeJobs int) string {
	if activeJobs > 0 {
		return "training job in flight"
	}
	return "trained artifact missing"
}
