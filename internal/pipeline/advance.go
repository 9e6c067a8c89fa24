package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"showrunner/internal/catalog"
	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/notifications"
	"showrunner/internal/store"
)

// Advancer marks a phase complete and idempotently opens the next one in
// the entity type's fixed sequence.
type Advancer struct {
	store    *store.Store
	catalog  *catalog.Catalog
	bus      *events.Bus
	notifier notifications.Service
	logger   *slog.Logger
}

// NewAdvancer constructs a phase advancer.
func NewAdvancer(st *store.Store, cat *catalog.Catalog, bus *events.Bus, notifier notifications.Service, logger *slog.Logger) *Advancer {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Advancer{
		store:    st,
		catalog:  cat,
		bus:      bus,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "advance"),
	}
}

// Advance completes the entry and creates the next phase's row when one
// exists. Completing a character's training phase also links the trained
// model artifact onto the character record, once.
func (a *Advancer) Advance(ctx context.Context, entry *store.Entry) error {
	now := time.Now().UTC()
	entry.Status = store.StatusCompleted
	entry.CompletedAt = &now
	entry.BlockedReason = ""
	if err := a.store.UpdateEntry(ctx, entry); err != nil {
		return fmt.Errorf("complete entry: %w", err)
	}

	if entry.EntityType == store.EntityCharacter && entry.Phase == store.PhaseTraining {
		ref := a.catalog.ModelArtifactPath(entry.EntityID)
		if err := a.catalog.AttachModelArtifact(ctx, entry.EntityID, ref); err != nil {
			a.logger.Warn("model artifact link not recorded",
				logging.Int64(logging.FieldEntityID, entry.EntityID),
				logging.Error(err),
			)
		}
	}

	next, hasNext := store.NextPhase(entry.EntityType, entry.Phase)
	if hasNext {
		if _, err := a.store.InsertIfAbsent(ctx, entry.EntityType, entry.EntityID, entry.ProjectID, next, store.StatusPending); err != nil {
			return fmt.Errorf("open next phase: %w", err)
		}
	} else if entry.EntityType == store.EntityProject {
		if err := a.notifier.NotifyProjectCompleted(ctx, entry.ProjectID); err != nil {
			a.logger.Warn("project completion notification not sent",
				logging.Int64(logging.FieldProjectID, entry.ProjectID),
				logging.Error(err),
			)
		}
	}

	a.logger.Info("phase advanced",
		logging.String(logging.FieldEntityType, string(entry.EntityType)),
		logging.Int64(logging.FieldEntityID, entry.EntityID),
		logging.Int64(logging.FieldProjectID, entry.ProjectID),
		logging.String("completed_phase", string(entry.Phase)),
		logging.String("next_phase", string(next)),
	)

	a.bus.Publish(ctx, events.Event{
		Type:           events.TypePhaseAdvanced,
		ProjectID:      entry.ProjectID,
		EntityType:     string(entry.EntityType),
		EntityID:       entry.EntityID,
		CompletedPhase: string(entry.Phase),
		NextPhase:      string(next),
	})
	return nil
}
