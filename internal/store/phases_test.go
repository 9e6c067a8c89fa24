package store_test

import (
	"testing"

	"showrunner/internal/store"
)

func TestSequencesAreFixed(t *testing.T) {
	characters := store.Sequence(store.EntityCharacter)
	want := []store.Phase{store.PhaseDataset, store.PhaseTraining, store.PhaseReady}
	if len(characters) != len(want) {
		t.Fatalf("character sequence length = %d, want %d", len(characters), len(want))
	}
	for i, phase := range want {
		if characters[i] != phase {
			t.Fatalf("character phase %d = %s, want %s", i, characters[i], phase)
		}
	}

	projects := store.Sequence(store.EntityProject)
	if len(projects) != 7 {
		t.Fatalf("project sequence length = %d, want 7", len(projects))
	}
	if projects[0] != store.PhasePlan || projects[6] != store.PhasePublish {
		t.Fatalf("project sequence endpoints wrong: %v", projects)
	}
}

func TestNextPhaseWalksSequence(t *testing.T) {
	next, ok := store.NextPhase(store.EntityCharacter, store.PhaseDataset)
	if !ok || next != store.PhaseTraining {
		t.Fatalf("dataset -> %s (ok=%v), want training", next, ok)
	}

	if _, ok := store.NextPhase(store.EntityCharacter, store.PhaseReady); ok {
		t.Fatal("ready is terminal; expected no next phase")
	}
	if _, ok := store.NextPhase(store.EntityProject, store.PhasePublish); ok {
		t.Fatal("publish is terminal; expected no next phase")
	}
	if _, ok := store.NextPhase(store.EntityProject, store.PhaseTraining); ok {
		t.Fatal("training is not a project phase; expected no next phase")
	}
}

func TestKnownPhaseAndParse(t *testing.T) {
	if !store.KnownPhase(store.EntityProject, store.PhaseAssembleScenes) {
		t.Fatal("assemble_scenes should be known for projects")
	}
	if store.KnownPhase(store.EntityCharacter, store.PhaseQC) {
		t.Fatal("qc should not be known for characters")
	}

	phase, ok := store.ParsePhase(store.EntityProject, " QC ")
	if !ok || phase != store.PhaseQC {
		t.Fatalf("ParsePhase(\" QC \") = %s (ok=%v)", phase, ok)
	}
	if _, ok := store.ParsePhase(store.EntityCharacter, "publish"); ok {
		t.Fatal("publish should not parse for characters")
	}
}

func TestSequenceIsACopy(t *testing.T) {
	seq := store.Sequence(store.EntityCharacter)
	seq[0] = store.PhasePublish
	if fresh := store.Sequence(store.EntityCharacter); fresh[0] != store.PhaseDataset {
		t.Fatal("mutating a returned sequence leaked into the shared slice")
	}
}
