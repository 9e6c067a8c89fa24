package store

import "strings"

// Phase is one named stage in an entity type's fixed ordered sequence.
type Phase string

// Character phases.
const (
	PhaseDataset  Phase = "dataset"
	PhaseTraining Phase = "training"
	PhaseReady    Phase = "ready"
)

// Project phases.
const (
	PhasePlan             Phase = "plan"
	PhasePrep             Phase = "prep"
	PhaseGenerate         Phase = "generate"
	PhaseQC               Phase = "qc"
	PhaseAssembleScenes   Phase = "assemble_scenes"
	PhaseAssembleEpisodes Phase = "assemble_episodes"
	PhasePublish          Phase = "publish"
)

var characterPhases = []Phase{PhaseDataset, PhaseTraining, PhaseReady}

var projectPhases = []Phase{
	PhasePlan,
	PhasePrep,
	PhaseGenerate,
	PhaseQC,
	PhaseAssembleScenes,
	PhaseAssembleEpisodes,
	PhasePublish,
}

// Sequence returns the ordered phase list for an entity type.
func Sequence(entityType EntityType) []Phase {
	var src []Phase
	switch entityType {
	case EntityCharacter:
		src = characterPhases
	case EntityProject:
		src = projectPhases
	default:
		return nil
	}
	cp := make([]Phase, len(src))
	copy(cp, src)
	return cp
}

// FirstPhase returns the opening phase for an entity type.
func FirstPhase(entityType EntityType) (Phase, bool) {
	seq := sequenceFor(entityType)
	if len(seq) == 0 {
		return "", false
	}
	return seq[0], true
}

// NextPhase returns the phase following the given one, or false when the
// given phase is terminal or unknown for the entity type.
func NextPhase(entityType EntityType, phase Phase) (Phase, bool) {
	seq := sequenceFor(entityType)
	for i, p := range seq {
		if p == phase && i+1 < len(seq) {
			return seq[i+1], true
		}
	}
	return "", false
}

// KnownPhase reports whether phase belongs to the entity type's sequence.
func KnownPhase(entityType EntityType, phase Phase) bool {
	for _, p := range sequenceFor(entityType) {
		if p == phase {
			return true
		}
	}
	return false
}

// TerminalCharacterPhase is the phase a character must complete before its
// project's pipeline unblocks.
const TerminalCharacterPhase = PhaseReady

// ParsePhase converts a string into a phase known for the entity type.
func ParsePhase(entityType EntityType, value string) (Phase, bool) {
	normalized := Phase(strings.ToLower(strings.TrimSpace(value)))
	if !KnownPhase(entityType, normalized) {
		return "", false
	}
	return normalized, true
}

func sequenceFor(entityType EntityType) []Phase {
	switch entityType {
	case EntityCharacter:
		return characterPhases
	case EntityProject:
		return projectPhases
	}
	return nil
}
