package pipeline

import (
	"context"
	"fmt"
	"strings"

	"showrunner/internal/logging"
	"showrunner/internal/store"
)

// OverrideAction is an operator-issued transition that bypasses gate
// evaluation.
type OverrideAction string

const (
	// OverrideSkip permanently excludes the entry from tick evaluation.
	OverrideSkip OverrideAction = "skip"
	// OverrideReset returns the entry to a clean pending state.
	OverrideReset OverrideAction = "reset"
	// OverrideComplete asserts the phase's work is done and advances it.
	OverrideComplete OverrideAction = "complete"
)

// ParseOverrideAction converts a string into a known override action.
func ParseOverrideAction(value string) (OverrideAction, bool) {
	normalized := OverrideAction(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case OverrideSkip, OverrideReset, OverrideComplete:
		return normalized, true
	}
	return "", false
}

// Override applies an operator action to an existing entry. The entry
// must exist; overrides never create rows.
func (o *Orchestrator) Override(ctx context.Context, entityType store.EntityType, entityID int64, phase store.Phase, action OverrideAction) error {
	if !store.KnownPhase(entityType, phase) {
		return Wrap(ErrValidation, "override", "", fmt.Sprintf("unknown phase %q for %s", phase, entityType), nil)
	}

	entry, err := o.store.GetEntry(ctx, entityType, entityID, phase)
	if err != nil {
		return err
	}
	if entry == nil {
		return Wrap(ErrNotFound, "override", "", fmt.Sprintf("no entry for %s/%d/%s", entityType, entityID, phase), nil)
	}

	switch action {
	case OverrideSkip:
		entry.Status = store.StatusSkipped
		if err := o.store.UpdateEntry(ctx, entry); err != nil {
			return err
		}
	case OverrideReset:
		entry.Status = store.StatusPending
		entry.StartedAt = nil
		entry.CompletedAt = nil
		entry.BlockedReason = ""
		entry.GateSnapshot = ""
		if err := o.store.UpdateEntry(ctx, entry); err != nil {
			return err
		}
	case OverrideComplete:
		if err := o.advancer.Advance(ctx, entry); err != nil {
			return err
		}
	default:
		return Wrap(ErrValidation, "override", "", fmt.Sprintf("unknown action %q", action), nil)
	}

	if err := o.store.AppendAudit(ctx, "operator", "phase_override", map[string]any{
		"entity_type": entityType,
		"entity_id":   entityID,
		"phase":       phase,
		"action":      action,
	}); err != nil {
		o.logger.Warn("audit record not written", logging.Error(err))
	}

	o.logger.Info("phase override applied",
		logging.String(logging.FieldEntityType, string(entityType)),
		logging.Int64(logging.FieldEntityID, entityID),
		logging.String(logging.FieldPhase, string(phase)),
		logging.String("action", string(action)),
	)
	return nil
}
