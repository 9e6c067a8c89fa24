package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"showrunner/internal/logging"
	"showrunner/internal/notifications"
	"showrunner/internal/store"
)

// Dispatcher launches at most one remediation task per
// (entity_type, entity_id, phase) key. The registry of outstanding tasks
// is memory-only: a restart forgets it, and the next tick re-dispatches
// whatever still needs work.
type Dispatcher struct {
	store    *store.Store
	actions  ActionSet
	notifier notifications.Service
	logger   *slog.Logger

	mu      sync.Mutex
	running map[string]string // entry key -> dispatch id
	wg      sync.WaitGroup
}

// NewDispatcher constructs a work dispatcher.
func NewDispatcher(st *store.Store, actions ActionSet, notifier notifications.Service, logger *slog.Logger) *Dispatcher {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Dispatcher{
		store:    st,
		actions:  actions,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		running:  make(map[string]string),
	}
}

// Running reports whether a remediation task is registered for the key.
func (d *Dispatcher) Running(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.running[key]
	return ok
}

// OutstandingCount returns the number of registered remediation tasks.
func (d *Dispatcher) OutstandingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.running)
}

// Wait blocks until every outstanding remediation task has exited. Used
// on shutdown and in tests; new dispatches during the wait are included.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Dispatch starts the remediation for an entry unless one is already
// registered for its key. It reports whether a task was launched. The
// entry row is marked active before launch; StartedAt is set only when
// previously unset so retries keep the original start time.
func (d *Dispatcher) Dispatch(ctx context.Context, entry *store.Entry) (bool, error) {
	action, ok := d.actions.ActionFor(entry.EntityType, entry.Phase)
	if !ok {
		return false, nil
	}

	key := entry.Key()
	dispatchID := uuid.NewString()

	d.mu.Lock()
	if _, exists := d.running[key]; exists {
		d.mu.Unlock()
		return false, nil
	}
	d.running[key] = dispatchID
	d.mu.Unlock()

	entry.Status = store.StatusActive
	entry.BlockedReason = ""
	if entry.StartedAt == nil {
		now := time.Now().UTC()
		entry.StartedAt = &now
	}
	if err := d.store.UpdateEntry(ctx, entry); err != nil {
		d.unregister(key)
		return false, fmt.Errorf("mark entry active: %w", err)
	}

	d.logger.Info("remediation dispatched",
		logging.String(logging.FieldDispatchID, dispatchID),
		logging.String(logging.FieldEntityType, string(entry.EntityType)),
		logging.Int64(logging.FieldEntityID, entry.EntityID),
		logging.String(logging.FieldPhase, string(entry.Phase)),
	)

	// Detached from the caller: a remediation outlives the tick that
	// launched it and is abandoned only at process exit.
	taskCtx := context.WithoutCancel(ctx)
	snapshot := *entry
	d.wg.Add(1)
	go d.run(taskCtx, key, dispatchID, &snapshot, action)
	return true, nil
}

func (d *Dispatcher) run(ctx context.Context, key, dispatchID string, entry *store.Entry, action Action) {
	defer d.wg.Done()
	defer d.unregister(key)

	start := time.Now()
	err := d.guardedRun(ctx, entry, action)
	if err == nil {
		d.logger.Info("remediation finished",
			logging.String(logging.FieldDispatchID, dispatchID),
			logging.String(logging.FieldEntityType, string(entry.EntityType)),
			logging.Int64(logging.FieldEntityID, entry.EntityID),
			logging.String(logging.FieldPhase, string(entry.Phase)),
			logging.Duration("duration", time.Since(start)),
		)
		return
	}

	entry.MarkFailed(err.Error())
	if updateErr := d.store.UpdateEntry(ctx, entry); updateErr != nil {
		d.logger.Error("failed to persist remediation failure",
			logging.String(logging.FieldDispatchID, dispatchID),
			logging.Error(updateErr),
		)
	}
	d.logger.Error("remediation failed",
		logging.String(logging.FieldDispatchID, dispatchID),
		logging.String(logging.FieldEntityType, string(entry.EntityType)),
		logging.Int64(logging.FieldEntityID, entry.EntityID),
		logging.String(logging.FieldPhase, string(entry.Phase)),
		logging.Error(err),
	)
	if notifyErr := d.notifier.NotifyPipelineError(ctx, string(entry.EntityType), string(entry.Phase), entry.BlockedReason); notifyErr != nil {
		d.logger.Debug("failure notification not delivered", logging.Error(notifyErr))
	}
}

// guardedRun converts action panics into errors so the registry entry is
// cleared and the row is failed on every exit path.
func (d *Dispatcher) guardedRun(ctx context.Context, entry *store.Entry, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("remediation panic: %v", r)
		}
	}()
	return action.Run(ctx, entry)
}

func (d *Dispatcher) unregister(key string) {
	d.mu.Lock()
	delete(d.running, key)
	d.mu.Unlock()
}
