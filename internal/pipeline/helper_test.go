package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"showrunner/internal/catalog"
	"showrunner/internal/config"
	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
	"showrunner/internal/testsupport"
)

// stubActions records every remediation invocation and lets tests control
// the action outcome.
type stubActions struct {
	mu    sync.Mutex
	calls map[string]int
	run   func(ctx context.Context, entry *store.Entry) error
}

func newStubActions(run func(ctx context.Context, entry *store.Entry) error) *stubActions {
	if run == nil {
		run = func(context.Context, *store.Entry) error { return nil }
	}
	return &stubActions{calls: make(map[string]int), run: run}
}

func (s *stubActions) ActionFor(entityType store.EntityType, phase store.Phase) (pipeline.Action, bool) {
	if entityType == store.EntityCharacter && phase == store.PhaseReady {
		return nil, false
	}
	return pipeline.ActionFunc(func(ctx context.Context, entry *store.Entry) error {
		s.mu.Lock()
		s.calls[entry.Key()]++
		s.mu.Unlock()
		return s.run(ctx, entry)
	}), true
}

func (s *stubActions) callCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

type fixture struct {
	cfg   *config.Config
	store *store.Store
	cat   *catalog.Catalog
	bus   *events.Bus
	orch  *pipeline.Orchestrator
}

func newFixture(t *testing.T, actions pipeline.ActionSet, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	cat := testsupport.MustOpenCatalog(t, cfg, st)
	bus := events.NewBus(logging.NewNop())
	if actions == nil {
		actions = newStubActions(nil)
	}
	orch := pipeline.New(cfg, st, cat, actions, bus, nil, logging.NewNop())
	return &fixture{cfg: cfg, store: st, cat: cat, bus: bus, orch: orch}
}

func (f *fixture) enable(t *testing.T) {
	t.Helper()
	if err := f.orch.Enable(context.Background(), true); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
}

func (f *fixture) mustEntry(t *testing.T, entityType store.EntityType, entityID int64, phase store.Phase) *store.Entry {
	t.Helper()
	entry, err := f.store.GetEntry(context.Background(), entityType, entityID, phase)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry == nil {
		t.Fatalf("expected entry %s/%d/%s to exist", entityType, entityID, phase)
	}
	return entry
}

// completeCharacters marks every phase of the given characters completed
// so the project block lifts.
func (f *fixture) completeCharacters(t *testing.T, projectID int64, characterIDs ...int64) {
	t.Helper()
	ctx := context.Background()
	for _, id := range characterIDs {
		for _, phase := range store.Sequence(store.EntityCharacter) {
			if _, err := f.store.InsertIfAbsent(ctx, store.EntityCharacter, id, projectID, phase, store.StatusCompleted); err != nil {
				t.Fatalf("insert completed phase failed: %v", err)
			}
			entry := f.mustEntry(t, store.EntityCharacter, id, phase)
			entry.Status = store.StatusCompleted
			if err := f.store.UpdateEntry(ctx, entry); err != nil {
				t.Fatalf("complete phase failed: %v", err)
			}
		}
	}
}
