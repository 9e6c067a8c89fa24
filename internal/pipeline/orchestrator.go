package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"showrunner/internal/catalog"
	"showrunner/internal/config"
	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/notifications"
	"showrunner/internal/store"
)

// Orchestrator drives the production pipeline: it owns the enablement
// flag, runs the periodic tick, and exposes the manual operations. All
// mutable orchestration state lives on this object so tests can run
// isolated instances side by side.
type Orchestrator struct {
	cfg        *config.Config
	store      *store.Store
	catalog    *catalog.Catalog
	gate       *Evaluator
	dispatcher *Dispatcher
	advancer   *Advancer
	bus        *events.Bus
	notifier   notifications.Service
	logger     *slog.Logger

	mu             sync.RWMutex
	enabled        bool
	trainingTarget int
}

// New constructs an orchestrator and registers its event reactor on the bus.
func New(cfg *config.Config, st *store.Store, cat *catalog.Catalog, actions ActionSet, bus *events.Bus, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if bus == nil {
		bus = events.NewBus(logger)
	}
	o := &Orchestrator{
		cfg:            cfg,
		store:          st,
		catalog:        cat,
		gate:           NewEvaluator(cat, cfg.Pipeline.QualityFloor, logger),
		dispatcher:     NewDispatcher(st, actions, notifier, logger),
		advancer:       NewAdvancer(st, cat, bus, notifier, logger),
		bus:            bus,
		notifier:       notifier,
		logger:         logging.NewComponentLogger(logger, "orchestrator"),
		trainingTarget: cfg.Pipeline.TrainingTarget,
	}
	o.registerReactor()
	return o
}

// LoadState restores persisted daemon state: the enablement flag, the
// training target tunable, and a reconciliation pass that returns rows
// left active by a dead process to pending. Call once at process start.
func (o *Orchestrator) LoadState(ctx context.Context) error {
	if err := o.RefreshSettings(ctx); err != nil {
		return err
	}

	reset, err := o.store.ResetStaleActive(ctx)
	if err != nil {
		return fmt.Errorf("reconcile stale active entries: %w", err)
	}
	if reset > 0 {
		o.logger.Info("stale active entries reset to pending", logging.Int64("count", reset))
	}
	return nil
}

// RefreshSettings reloads the enablement flag and training target from
// the store without touching any rows. One-shot callers sharing the
// database with a running daemon use this instead of LoadState.
func (o *Orchestrator) RefreshSettings(ctx context.Context) error {
	enabled, err := o.store.Enabled(ctx)
	if err != nil {
		return fmt.Errorf("load enablement: %w", err)
	}
	target, ok, err := o.store.TrainingTarget(ctx)
	if err != nil {
		return fmt.Errorf("load training target: %w", err)
	}

	o.mu.Lock()
	o.enabled = enabled
	if ok {
		o.trainingTarget = target
	}
	o.mu.Unlock()
	return nil
}

// Enable persists and applies the pipeline enablement flag.
func (o *Orchestrator) Enable(ctx context.Context, enabled bool) error {
	if err := o.store.SetEnabled(ctx, enabled); err != nil {
		return err
	}
	o.mu.Lock()
	o.enabled = enabled
	o.mu.Unlock()

	action := "pipeline_disabled"
	if enabled {
		action = "pipeline_enabled"
	}
	if err := o.store.AppendAudit(ctx, "operator", action, nil); err != nil {
		o.logger.Warn("audit record not written", logging.Error(err))
	}
	o.logger.Info("pipeline enablement changed", logging.Bool("enabled", enabled))
	return nil
}

// IsEnabled reports the in-memory enablement flag.
func (o *Orchestrator) IsEnabled() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.enabled
}

// TrainingTarget returns the effective training target.
func (o *Orchestrator) TrainingTarget() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.trainingTarget
}

// Dispatcher exposes the work dispatcher so one-shot callers can wait
// for outstanding remediations before exiting. The daemon does not wait
// on shutdown; abandoned work is reconciled at the next start.
func (o *Orchestrator) Dispatcher() *Dispatcher {
	return o.dispatcher
}

// InitResult reports what InitializeProject created. A repeat call
// reports zeros: initialization is idempotent.
type InitResult struct {
	CharacterEntries int
	ProjectEntries   int
}

// InitializeProject opens the first-phase row for every designed
// character under the project and for the project itself. Safe to call
// repeatedly; existing rows are never touched. trainingTarget overrides
// the persisted tunable when positive.
func (o *Orchestrator) InitializeProject(ctx context.Context, projectID int64, trainingTarget int) (InitResult, error) {
	var result InitResult
	if projectID <= 0 {
		return result, Wrap(ErrValidation, "initialize", "", fmt.Sprintf("invalid project id %d", projectID), nil)
	}

	characters, err := o.catalog.CharactersWithDesign(ctx, projectID)
	if err != nil {
		return result, fmt.Errorf("list designed characters: %w", err)
	}
	if len(characters) == 0 {
		return result, Wrap(ErrNotFound, "initialize", "", fmt.Sprintf("project %d has no characters with a design", projectID), nil)
	}

	if trainingTarget > 0 {
		if err := o.store.SetTrainingTarget(ctx, trainingTarget); err != nil {
			return result, err
		}
		o.mu.Lock()
		o.trainingTarget = trainingTarget
		o.mu.Unlock()
	}

	firstCharacterPhase, _ := store.FirstPhase(store.EntityCharacter)
	for _, character := range characters {
		created, err := o.store.InsertIfAbsent(ctx, store.EntityCharacter, character.ID, projectID, firstCharacterPhase, store.StatusPending)
		if err != nil {
			return result, err
		}
		if created {
			result.CharacterEntries++
		}
	}

	firstProjectPhase, _ := store.FirstPhase(store.EntityProject)
	created, err := o.store.InsertIfAbsent(ctx, store.EntityProject, projectID, projectID, firstProjectPhase, store.StatusPending)
	if err != nil {
		return result, err
	}
	if created {
		result.ProjectEntries++
	}

	if err := o.store.AppendAudit(ctx, "operator", "pipeline_initialized", map[string]any{
		"project_id":        projectID,
		"character_entries": result.CharacterEntries,
		"project_entries":   result.ProjectEntries,
	}); err != nil {
		o.logger.Warn("audit record not written", logging.Error(err))
	}

	o.logger.Info("pipeline initialized",
		logging.Int64(logging.FieldProjectID, projectID),
		logging.Int("character_entries", result.CharacterEntries),
		logging.Int("project_entries", result.ProjectEntries),
	)
	return result, nil
}

// TickResult summarizes one evaluation pass.
type TickResult struct {
	Evaluated  int
	Advanced   int
	Dispatched int
	Timestamp  time.Time
}

// Tick runs one evaluation pass over every non-terminal entry. Persisted
// settings are re-read first, so enablement changes written by another
// process take effect on the next pass without a restart. The tick
// returns immediately when the pipeline is disabled; dispatched
// remediation runs detached and never blocks the sweep.
func (o *Orchestrator) Tick(ctx context.Context) (TickResult, error) {
	result := TickResult{Timestamp: time.Now().UTC()}
	if err := o.RefreshSettings(ctx); err != nil {
		return result, err
	}
	if !o.IsEnabled() {
		return result, nil
	}

	entries, err := o.store.ListForTick(ctx)
	if err != nil {
		return result, fmt.Errorf("load entries for tick: %w", err)
	}

	target := o.TrainingTarget()
	for _, entry := range entries {
		outcome, err := o.evaluateEntry(ctx, entry, target)
		if err != nil {
			o.logger.Warn("entry evaluation failed",
				logging.String(logging.FieldEntityType, string(entry.EntityType)),
				logging.Int64(logging.FieldEntityID, entry.EntityID),
				logging.String(logging.FieldPhase, string(entry.Phase)),
				logging.Error(err),
			)
			continue
		}
		result.Evaluated++
		switch outcome {
		case outcomeAdvanced:
			result.Advanced++
		case outcomeDispatched:
			result.Dispatched++
		}
	}

	o.logger.Debug("tick finished",
		logging.Int("evaluated", result.Evaluated),
		logging.Int("advanced", result.Advanced),
		logging.Int("dispatched", result.Dispatched),
	)
	return result, nil
}

type tickOutcome int

const (
	outcomeNone tickOutcome = iota
	outcomeAdvanced
	outcomeDispatched
)

func (o *Orchestrator) evaluateEntry(ctx context.Context, entry *store.Entry, trainingTarget int) (tickOutcome, error) {
	if entry.EntityType == store.EntityProject {
		blocked, err := o.reconcileProjectBlock(ctx, entry)
		if err != nil {
			return outcomeNone, err
		}
		if blocked {
			return outcomeNone, nil
		}
	}

	result := o.gate.Evaluate(ctx, entry, trainingTarget)

	now := time.Now().UTC()
	entry.LastCheckedAt = &now
	entry.GateSnapshot = result.Snapshot()
	if current, target, ok := result.Progress(); ok {
		entry.ProgressCurrent = current
		entry.ProgressTarget = target
	}
	if err := o.store.UpdateEntry(ctx, entry); err != nil {
		return outcomeNone, fmt.Errorf("persist gate snapshot: %w", err)
	}

	switch {
	case result.Passed:
		if err := o.advancer.Advance(ctx, entry); err != nil {
			return outcomeNone, err
		}
		return outcomeAdvanced, nil
	case result.ActionNeeded:
		launched, err := o.dispatcher.Dispatch(ctx, entry)
		if err != nil {
			return outcomeNone, err
		}
		if launched {
			return outcomeDispatched, nil
		}
	}
	return outcomeNone, nil
}

// reconcileProjectBlock forces a project entry to blocked while any of
// the project's characters is still mid-pipeline, and lifts the block
// once all have completed the terminal character phase. It reports
// whether the entry is (still) blocked.
func (o *Orchestrator) reconcileProjectBlock(ctx context.Context, entry *store.Entry) (bool, error) {
	incomplete, err := o.store.CharactersIncomplete(ctx, entry.ProjectID)
	if err != nil {
		return false, fmt.Errorf("count incomplete characters: %w", err)
	}

	if incomplete > 0 {
		if entry.Status != store.StatusBlocked {
			entry.Status = store.StatusBlocked
			entry.BlockedReason = store.BlockedReasonCharacters
			if err := o.store.UpdateEntry(ctx, entry); err != nil {
				return false, fmt.Errorf("block project entry: %w", err)
			}
			o.logger.Info("project phase blocked",
				logging.Int64(logging.FieldProjectID, entry.ProjectID),
				logging.String(logging.FieldPhase, string(entry.Phase)),
				logging.Int("characters_incomplete", incomplete),
			)
		}
		return true, nil
	}

	if entry.Status == store.StatusBlocked {
		entry.Status = store.StatusPending
		entry.BlockedReason = ""
		if err := o.store.UpdateEntry(ctx, entry); err != nil {
			return false, fmt.Errorf("unblock project entry: %w", err)
		}
		o.logger.Info("project phase unblocked",
			logging.Int64(logging.FieldProjectID, entry.ProjectID),
			logging.String(logging.FieldPhase, string(entry.Phase)),
		)
	}
	return false, nil
}
