package events_test

import (
	"context"
	"errors"
	"testing"

	"showrunner/internal/events"
	"showrunner/internal/logging"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	var order []string
	bus.Subscribe(events.TypeSceneReady, func(ctx context.Context, event events.Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(events.TypeSceneReady, func(ctx context.Context, event events.Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), events.Event{Type: events.TypeSceneReady, ProjectID: 1})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestPublishIsolatesFailingHandlers(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	var delivered bool
	bus.Subscribe(events.TypeEpisodePublished, func(ctx context.Context, event events.Event) error {
		return errors.New("handler broke")
	})
	bus.Subscribe(events.TypeEpisodePublished, func(ctx context.Context, event events.Event) error {
		delivered = true
		return nil
	})

	bus.Publish(context.Background(), events.Event{Type: events.TypeEpisodePublished})

	if !delivered {
		t.Fatal("a failing handler must not block its siblings")
	}
}

func TestPublishRecoversFromHandlerPanics(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	var delivered bool
	bus.Subscribe(events.TypeShotGenerated, func(ctx context.Context, event events.Event) error {
		panic("boom")
	})
	bus.Subscribe(events.TypeShotGenerated, func(ctx context.Context, event events.Event) error {
		delivered = true
		return nil
	})

	bus.Publish(context.Background(), events.Event{Type: events.TypeShotGenerated})

	if !delivered {
		t.Fatal("a panicking handler must not block its siblings")
	}
}

func TestPublishWithoutSubscribersIsANoOp(t *testing.T) {
	bus := events.NewBus(logging.NewNop())
	bus.Publish(context.Background(), events.Event{Type: events.TypeTrainingStarted})
}
