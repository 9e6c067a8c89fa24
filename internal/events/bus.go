package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"showrunner/internal/logging"
)

// Type names a domain event.
type Type string

const (
	TypeArtifactApproved Type = "artifact_approved"
	TypeTrainingStarted  Type = "training_started"
	TypePlanningComplete Type = "planning_complete"
	TypeShotGenerated    Type = "shot_generated"
	TypeSceneReady       Type = "scene_ready"
	TypeEpisodeAssembled Type = "episode_assembled"
	TypeEpisodePublished Type = "episode_published"
	TypePhaseAdvanced    Type = "phase_advanced"
)

// Event carries a domain occurrence. Only the fields relevant to the
// event's type are set; the rest stay zero.
type Event struct {
	Type        Type
	ProjectID   int64
	CharacterID int64
	SceneID     int64
	EpisodeID   int64

	// Phase advancement details, set for TypePhaseAdvanced.
	EntityType     string
	EntityID       int64
	CompletedPhase string
	NextPhase      string
}

// Handler consumes one event. Returned errors are logged, never propagated.
type Handler func(ctx context.Context, event Event) error

// Bus fans events out to subscribers.
type Bus struct {
	logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Type][]Handler
}

// NewBus constructs an event bus. A nil logger falls back to a no-op.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger:   logging.NewComponentLogger(logger, "events"),
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for an event type. Subscription order is
// delivery order.
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers the event to every subscriber for its type. Each
// handler is isolated: failures and panics are logged and swallowed.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler{}, b.handlers[event.Type]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.deliver(ctx, event, handler)
	}
}

func (b *Bus) deliver(ctx context.Context, event Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				logging.String(logging.FieldEventType, string(event.Type)),
				logging.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	if err := handler(ctx, event); err != nil {
		b.logger.Warn("event handler failed",
			logging.String(logging.FieldEventType, string(event.Type)),
			logging.Error(err),
		)
	}
}
