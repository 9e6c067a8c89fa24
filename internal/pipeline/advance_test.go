package pipeline_test

import (
	"context"
	"testing"

	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/notifications"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
	"showrunner/internal/testsupport"
)

func TestAdvanceOpensNextPhase(t *testing.T) {
	f := newFixture(t, nil)
	advancer := pipeline.NewAdvancer(f.store, f.cat, f.bus, nil, logging.NewNop())

	ctx := context.Background()
	entry := seedEntry(t, f.store, store.EntityProject, 1, store.PhasePlan)
	if err := advancer.Advance(ctx, entry); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	completed := f.mustEntry(t, store.EntityProject, 1, store.PhasePlan)
	if completed.Status != store.StatusCompleted {
		t.Fatalf("expected completed plan row, got %s", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be stamped")
	}

	next := f.mustEntry(t, store.EntityProject, 1, store.PhasePrep)
	if next.Status != store.StatusPending {
		t.Fatalf("expected pending prep row, got %s", next.Status)
	}
}

func TestAdvanceTerminalPhaseCreatesNoRow(t *testing.T) {
	f := newFixture(t, nil)
	advancer := pipeline.NewAdvancer(f.store, f.cat, f.bus, nil, logging.NewNop())

	ctx := context.Background()
	entry := seedEntry(t, f.store, store.EntityProject, 1, store.PhasePublish)
	if err := advancer.Advance(ctx, entry); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	entries, err := f.store.ListByProject(ctx, 1)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("terminal advance must not open a row, got %d entries", len(entries))
	}
}

func TestAdvanceIsIdempotentOnNextRow(t *testing.T) {
	f := newFixture(t, nil)
	advancer := pipeline.NewAdvancer(f.store, f.cat, f.bus, nil, logging.NewNop())

	ctx := context.Background()
	next := seedEntry(t, f.store, store.EntityCharacter, 1, store.PhaseTraining)
	next.Status = store.StatusActive
	if err := f.store.UpdateEntry(ctx, next); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}

	entry := seedEntry(t, f.store, store.EntityCharacter, 1, store.PhaseDataset)
	if err := advancer.Advance(ctx, entry); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	training := f.mustEntry(t, store.EntityCharacter, 1, store.PhaseTraining)
	if training.Status != store.StatusActive {
		t.Fatalf("existing next row must be untouched, got %s", training.Status)
	}
}

func TestAdvanceTrainingLinksArtifact(t *testing.T) {
	f := newFixture(t, nil)
	advancer := pipeline.NewAdvancer(f.store, f.cat, f.bus, nil, logging.NewNop())

	ctx := context.Background()
	charID := testsupport.NewCharacter(t, f.cat, 1, "hero", "design-1")
	testsupport.WriteFile(t, f.cat.ModelArtifactPath(charID))

	entry := seedEntry(t, f.store, store.EntityCharacter, charID, store.PhaseTraining)
	if err := advancer.Advance(ctx, entry); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	characters, err := f.cat.CharactersWithDesign(ctx, 1)
	if err != nil {
		t.Fatalf("CharactersWithDesign failed: %v", err)
	}
	if len(characters) != 1 {
		t.Fatalf("expected 1 character, got %d", len(characters))
	}
	if characters[0].ModelArtifact != f.cat.ModelArtifactPath(charID) {
		t.Fatalf("expected model artifact linked, got %q", characters[0].ModelArtifact)
	}
}

type completionNotifier struct {
	notifications.Service
	completed []int64
}

func (n *completionNotifier) NotifyProjectCompleted(ctx context.Context, projectID int64) error {
	n.completed = append(n.completed, projectID)
	return nil
}

func TestAdvanceTerminalProjectPhaseNotifiesCompletion(t *testing.T) {
	f := newFixture(t, nil)
	notifier := &completionNotifier{Service: notifications.NewNop()}
	advancer := pipeline.NewAdvancer(f.store, f.cat, f.bus, notifier, logging.NewNop())

	ctx := context.Background()
	mid := seedEntry(t, f.store, store.EntityProject, 1, store.PhaseQC)
	if err := advancer.Advance(ctx, mid); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if len(notifier.completed) != 0 {
		t.Fatalf("non-terminal advance must not notify, got %v", notifier.completed)
	}

	last := seedEntry(t, f.store, store.EntityProject, 1, store.PhasePublish)
	if err := advancer.Advance(ctx, last); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != 1 {
		t.Fatalf("expected completion notification for project 1, got %v", notifier.completed)
	}
}

func TestAdvancePublishesPhaseAdvancedEvent(t *testing.T) {
	f := newFixture(t, nil)
	advancer := pipeline.NewAdvancer(f.store, f.cat, f.bus, nil, logging.NewNop())

	var got events.Event
	f.bus.Subscribe(events.TypePhaseAdvanced, func(ctx context.Context, event events.Event) error {
		got = event
		return nil
	})

	entry := seedEntry(t, f.store, store.EntityProject, 1, store.PhaseQC)
	if err := advancer.Advance(context.Background(), entry); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}

	if got.Type != events.TypePhaseAdvanced {
		t.Fatalf("expected phase advanced event, got %+v", got)
	}
	if got.CompletedPhase != string(store.PhaseQC) || got.NextPhase != string(store.PhaseAssembleScenes) {
		t.Fatalf("unexpected event phases: %+v", got)
	}
}
