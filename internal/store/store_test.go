package store_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"showrunner/internal/store"
	"showrunner/internal/testsupport"
)

func TestInsertIfAbsentIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	created, err := st.InsertIfAbsent(ctx, store.EntityCharacter, 7, 1, store.PhaseDataset, store.StatusPending)
	if err != nil {
		t.Fatalf("InsertIfAbsent failed: %v", err)
	}
	if !created {
		t.Fatal("expected first insert to create a row")
	}

	entry, err := st.GetEntry(ctx, store.EntityCharacter, 7, store.PhaseDataset)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	entry.ProgressCurrent = 42
	entry.ProgressTarget = 100
	if err := st.UpdateEntry(ctx, entry); err != nil {
		t.Fatalf("UpdateEntry failed: %v", err)
	}

	created, err = st.InsertIfAbsent(ctx, store.EntityCharacter, 7, 1, store.PhaseDataset, store.StatusPending)
	if err != nil {
		t.Fatalf("repeat InsertIfAbsent failed: %v", err)
	}
	if created {
		t.Fatal("expected repeat insert to report no new row")
	}

	again, err := st.GetEntry(ctx, store.EntityCharacter, 7, store.PhaseDataset)
	if err != nil {
		t.Fatalf("GetEntry after repeat failed: %v", err)
	}
	if again.ProgressCurrent != 42 {
		t.Fatalf("repeat insert touched existing row: progress = %d", again.ProgressCurrent)
	}
}

func TestGetEntryMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	entry, err := st.GetEntry(context.Background(), store.EntityProject, 99, store.PhasePlan)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil for missing entry, got %#v", entry)
	}
}

func TestListForTickOrderAndExclusions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	seed := []struct {
		entityType store.EntityType
		entityID   int64
		projectID  int64
		phase      store.Phase
		status     store.Status
	}{
		{store.EntityProject, 2, 2, store.PhasePlan, store.StatusPending},
		{store.EntityCharacter, 10, 1, store.PhaseDataset, store.StatusFailed},
		{store.EntityCharacter, 11, 1, store.PhaseDataset, store.StatusCompleted},
		{store.EntityCharacter, 11, 1, store.PhaseTraining, store.StatusPending},
		{store.EntityProject, 1, 1, store.PhasePlan, store.StatusBlocked},
		{store.EntityCharacter, 12, 1, store.PhaseDataset, store.StatusSkipped},
	}
	for _, row := range seed {
		if _, err := st.InsertIfAbsent(ctx, row.entityType, row.entityID, row.projectID, row.phase, row.status); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	entries, err := st.ListForTick(ctx)
	if err != nil {
		t.Fatalf("ListForTick failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 evaluable entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Status.IsTerminal() {
			t.Fatalf("terminal entry leaked into tick list: %#v", entry)
		}
	}

	// The project row leads its own character rows within the sweep.
	if entries[0].EntityType != store.EntityProject || entries[0].ProjectID != 1 {
		t.Fatalf("expected project 1 project entry first, got %#v", entries[0])
	}
	if entries[1].EntityType != store.EntityCharacter || entries[1].EntityID != 10 {
		t.Fatalf("expected character 10 second, got %#v", entries[1])
	}
	if entries[2].EntityType != store.EntityCharacter || entries[2].EntityID != 11 {
		t.Fatalf("expected character 11 third, got %#v", entries[2])
	}
	if entries[3].ProjectID != 2 {
		t.Fatalf("expected project 2 last, got %#v", entries[3])
	}
}

func TestResetStaleActive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := st.InsertIfAbsent(ctx, store.EntityCharacter, 1, 1, store.PhaseDataset, store.StatusActive); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := st.InsertIfAbsent(ctx, store.EntityCharacter, 2, 1, store.PhaseDataset, store.StatusCompleted); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	reset, err := st.ResetStaleActive(ctx)
	if err != nil {
		t.Fatalf("ResetStaleActive failed: %v", err)
	}
	if reset != 1 {
		t.Fatalf("expected 1 reset row, got %d", reset)
	}

	entry, err := st.GetEntry(ctx, store.EntityCharacter, 1, store.PhaseDataset)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if entry.Status != store.StatusPending {
		t.Fatalf("expected pending after reset, got %s", entry.Status)
	}
}

func TestCharactersIncomplete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	// Character 1 fully done, character 2 still training.
	if _, err := st.InsertIfAbsent(ctx, store.EntityCharacter, 1, 1, store.PhaseReady, store.StatusCompleted); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := st.InsertIfAbsent(ctx, store.EntityCharacter, 2, 1, store.PhaseTraining, store.StatusActive); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	incomplete, err := st.CharactersIncomplete(ctx, 1)
	if err != nil {
		t.Fatalf("CharactersIncomplete failed: %v", err)
	}
	if incomplete != 1 {
		t.Fatalf("expected 1 incomplete character, got %d", incomplete)
	}

	if _, err := st.InsertIfAbsent(ctx, store.EntityCharacter, 2, 1, store.PhaseReady, store.StatusCompleted); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	incomplete, err = st.CharactersIncomplete(ctx, 1)
	if err != nil {
		t.Fatalf("CharactersIncomplete failed: %v", err)
	}
	if incomplete != 0 {
		t.Fatalf("expected 0 incomplete characters, got %d", incomplete)
	}
}

func TestTruncateReasonCapsLength(t *testing.T) {
	long := strings.Repeat("x", 2000)
	truncated := store.TruncateReason(long)
	if len(truncated) != 500 {
		t.Fatalf("expected 500 characters, got %d", len(truncated))
	}
	if short := store.TruncateReason("boom"); short != "boom" {
		t.Fatalf("short reason altered: %q", short)
	}
}

func TestTruncateReasonKeepsRuneBoundary(t *testing.T) {
	// 499 ASCII bytes followed by multi-byte runes puts a rune across
	// the 500-byte limit.
	long := strings.Repeat("x", 499) + strings.Repeat("é", 10)
	truncated := store.TruncateReason(long)
	if !utf8.ValidString(truncated) {
		t.Fatalf("truncated reason is not valid UTF-8: %q", truncated)
	}
	if len(truncated) != 499 {
		t.Fatalf("expected cut at rune boundary 499, got %d bytes", len(truncated))
	}
}

func TestMarkFailedTruncates(t *testing.T) {
	entry := &store.Entry{Status: store.StatusActive}
	entry.MarkFailed(strings.Repeat("y", 900))
	if entry.Status != store.StatusFailed {
		t.Fatalf("expected failed status, got %s", entry.Status)
	}
	if len(entry.BlockedReason) != 500 {
		t.Fatalf("expected truncated reason, got %d characters", len(entry.BlockedReason))
	}
}
