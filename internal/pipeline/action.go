package pipeline

import (
	"context"

	"showrunner/internal/store"
)

// Action is one opaque remediation: an asynchronous call that tries to
// satisfy a gate. Actions own their own timeouts and must tolerate being
// triggered again after a crash.
type Action interface {
	Run(ctx context.Context, entry *store.Entry) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, entry *store.Entry) error

func (f ActionFunc) Run(ctx context.Context, entry *store.Entry) error {
	return f(ctx, entry)
}

// ActionSet resolves the remediation for a phase. A phase with no action
// (character/ready, or an unconfigured backend surface) reports ok=false
// and is left alone by the dispatcher.
type ActionSet interface {
	ActionFor(entityType store.EntityType, phase store.Phase) (Action, bool)
}
