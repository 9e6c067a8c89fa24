package main

import (
	"io"
	"strings"
	"testing"
	"time"

	"showrunner/internal/store"
)

func TestPhaseLabel(t *testing.T) {
	cases := map[store.Phase]string{
		store.PhaseDataset:          "Dataset",
		store.PhaseAssembleScenes:   "Assemble Scenes",
		store.PhaseAssembleEpisodes: "Assemble Episodes",
		store.PhaseQC:               "Qc",
	}
	for phase, want := range cases {
		if got := phaseLabel(phase); got != want {
			t.Errorf("phaseLabel(%s) = %q, want %q", phase, got, want)
		}
	}
}

func TestParseProjectID(t *testing.T) {
	id, err := parseProjectID(" 42 ")
	if err != nil {
		t.Fatalf("parseProjectID failed: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
	for _, bad := range []string{"0", "-3", "abc", ""} {
		if _, err := parseProjectID(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestFormatProgress(t *testing.T) {
	if got := formatProgress(3, 10); got != "3/10" {
		t.Fatalf("expected 3/10, got %q", got)
	}
	if got := formatProgress(0, 0); got != "-" {
		t.Fatalf("expected dash for zero target, got %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(nil); got != "-" {
		t.Fatalf("expected dash for nil, got %q", got)
	}
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := formatTimestamp(&ts); !strings.Contains(got, "2026-03-14") {
		t.Fatalf("unexpected timestamp rendering: %q", got)
	}
}

func TestColorizeStatus(t *testing.T) {
	if got := colorizeStatus(store.StatusCompleted, false); got != "COMPLETED" {
		t.Fatalf("expected plain label, got %q", got)
	}
	got := colorizeStatus(store.StatusFailed, true)
	if !strings.HasPrefix(got, ansiRed) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected red wrapping, got %q", got)
	}
	if got := colorizeStatus(store.StatusPending, true); got != "PENDING" {
		t.Fatalf("expected no color for pending, got %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}
