package pipeline_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"showrunner/internal/logging"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
	"showrunner/internal/testsupport"
)

func newGateFixture(t *testing.T) (*fixture, *pipeline.Evaluator) {
	t.Helper()
	f := newFixture(t, nil)
	return f, pipeline.NewEvaluator(f.cat, f.cfg.Pipeline.QualityFloor, logging.NewNop())
}

func characterEntry(id int64, phase store.Phase) *store.Entry {
	return &store.Entry{EntityType: store.EntityCharacter, EntityID: id, ProjectID: 1, Phase: phase}
}

func projectEntry(projectID int64, phase store.Phase) *store.Entry {
	return &store.Entry{EntityType: store.EntityProject, EntityID: projectID, ProjectID: projectID, Phase: phase}
}

func TestGateDatasetCountsApprovedArtifacts(t *testing.T) {
	f, gate := newGateFixture(t)
	ctx := context.Background()

	charID := testsupport.NewCharacter(t, f.cat, 1, "hero", "design-1")
	testsupport.ApproveArtifacts(t, f.cat, charID, 3)

	result := gate.Evaluate(ctx, characterEntry(charID, store.PhaseDataset), 5)
	if result.Passed || !result.ActionNeeded {
		t.Fatalf("3/5 approved should need action, got %+v", result)
	}
	if result.Metrics.ApprovedCount != 3 || result.Metrics.TrainingTarget != 5 {
		t.Fatalf("unexpected metrics: %+v", result.Metrics)
	}

	testsupport.ApproveArtifacts(t, f.cat, charID, 2)
	result = gate.Evaluate(ctx, characterEntry(charID, store.PhaseDataset), 5)
	if !result.Passed || result.ActionNeeded {
		t.Fatalf("5/5 approved should pass, got %+v", result)
	}
}

func TestGateTrainingPhase(t *testing.T) {
	f, gate := newGateFixture(t)
	ctx := context.Background()

	charID := testsupport.NewCharacter(t, f.cat, 1, "hero", "design-1")
	entry := characterEntry(charID, store.PhaseTraining)

	// No artifact, no job: trigger training.
	result := gate.Evaluate(ctx, entry, 5)
	if result.Passed || !result.ActionNeeded {
		t.Fatalf("missing artifact should request action, got %+v", result)
	}

	// Job in flight: no new trigger, no pass.
	if _, err := f.cat.InsertTrainingJob(ctx, charID); err != nil {
		t.Fatalf("InsertTrainingJob failed: %v", err)
	}
	result = gate.Evaluate(ctx, entry, 5)
	if result.Passed || result.ActionNeeded {
		t.Fatalf("in-flight job should suppress action, got %+v", result)
	}
	if result.Metrics.ActiveJobs != 1 {
		t.Fatalf("expected 1 active job, got %+v", result.Metrics)
	}

	// Artifact on disk: pass regardless of job state.
	testsupport.WriteFile(t, f.cat.ModelArtifactPath(charID))
	result = gate.Evaluate(ctx, entry, 5)
	if !result.Passed {
		t.Fatalf("present artifact should pass, got %+v", result)
	}
}

func TestGateReadyAlwaysPasses(t *testing.T) {
	_, gate := newGateFixture(t)
	result := gate.Evaluate(context.Background(), characterEntry(1, store.PhaseReady), 5)
	if !result.Passed || result.ActionNeeded {
		t.Fatalf("ready gate must pass, got %+v", result)
	}
}

func TestGatePlanRequiresScenes(t *testing.T) {
	f, gate := newGateFixture(t)
	ctx := context.Background()

	entry := projectEntry(1, store.PhasePlan)
	result := gate.Evaluate(ctx, entry, 0)
	if result.Passed || !result.ActionNeeded {
		t.Fatalf("no scenes should request planning, got %+v", result)
	}

	if _, err := f.cat.CreateScene(ctx, 1); err != nil {
		t.Fatalf("CreateScene failed: %v", err)
	}
	result = gate.Evaluate(ctx, entry, 0)
	if !result.Passed {
		t.Fatalf("scenes present should pass, got %+v", result)
	}
}

func TestGateShotPhases(t *testing.T) {
	f, gate := newGateFixture(t)
	ctx := context.Background()

	sceneID, err := f.cat.CreateScene(ctx, 1)
	if err != nil {
		t.Fatalf("CreateScene failed: %v", err)
	}

	// Prep fails while a shot has no source asset.
	shotA, err := f.cat.CreateShot(ctx, sceneID, 1, "")
	if err != nil {
		t.Fatalf("CreateShot failed: %v", err)
	}
	shotB, err := f.cat.CreateShot(ctx, sceneID, 1, "asset-b")
	if err != nil {
		t.Fatalf("CreateShot failed: %v", err)
	}

	prep := gate.Evaluate(ctx, projectEntry(1, store.PhasePrep), 0)
	if prep.Passed || prep.Metrics.MissingAssets != 1 {
		t.Fatalf("expected 1 missing asset, got %+v", prep)
	}

	// Generate fails until every shot has an output.
	generate := gate.Evaluate(ctx, projectEntry(1, store.PhaseGenerate), 0)
	if generate.Passed || generate.Metrics.ShotsCompleted != 0 {
		t.Fatalf("expected 0/2 shots, got %+v", generate)
	}

	if err := f.cat.CompleteShot(ctx, shotA, "out-a.mp4", 0.9); err != nil {
		t.Fatalf("CompleteShot failed: %v", err)
	}
	if err := f.cat.CompleteShot(ctx, shotB, "out-b.mp4", 0.4); err != nil {
		t.Fatalf("CompleteShot failed: %v", err)
	}
	generate = gate.Evaluate(ctx, projectEntry(1, store.PhaseGenerate), 0)
	if !generate.Passed || generate.Metrics.ShotsCompleted != 2 {
		t.Fatalf("expected 2/2 shots to pass, got %+v", generate)
	}

	// QC fails while any completed shot sits below the quality floor (0.7).
	qc := gate.Evaluate(ctx, projectEntry(1, store.PhaseQC), 0)
	if qc.Passed || qc.Metrics.BelowQuality != 1 {
		t.Fatalf("expected 1 shot below floor, got %+v", qc)
	}

	if err := f.cat.CompleteShot(ctx, shotB, "out-b-v2.mp4", 0.8); err != nil {
		t.Fatalf("CompleteShot rerun failed: %v", err)
	}
	qc = gate.Evaluate(ctx, projectEntry(1, store.PhaseQC), 0)
	if !qc.Passed {
		t.Fatalf("all shots above floor should pass, got %+v", qc)
	}
}

func TestGateAssemblyAndPublish(t *testing.T) {
	f, gate := newGateFixture(t)
	ctx := context.Background()

	sceneID, err := f.cat.CreateScene(ctx, 1)
	if err != nil {
		t.Fatalf("CreateScene failed: %v", err)
	}

	scenes := gate.Evaluate(ctx, projectEntry(1, store.PhaseAssembleScenes), 0)
	if scenes.Passed {
		t.Fatalf("unassembled scene should not pass, got %+v", scenes)
	}
	if err := f.cat.MarkSceneAssembled(ctx, sceneID); err != nil {
		t.Fatalf("MarkSceneAssembled failed: %v", err)
	}
	scenes = gate.Evaluate(ctx, projectEntry(1, store.PhaseAssembleScenes), 0)
	if !scenes.Passed {
		t.Fatalf("assembled scene should pass, got %+v", scenes)
	}

	episodeID, err := f.cat.CreateEpisode(ctx, 1)
	if err != nil {
		t.Fatalf("CreateEpisode failed: %v", err)
	}
	episodes := gate.Evaluate(ctx, projectEntry(1, store.PhaseAssembleEpisodes), 0)
	if episodes.Passed {
		t.Fatalf("episode without final file should not pass, got %+v", episodes)
	}
	if err := f.cat.SetEpisodeFinalFile(ctx, episodeID, "episode-1.mp4"); err != nil {
		t.Fatalf("SetEpisodeFinalFile failed: %v", err)
	}
	episodes = gate.Evaluate(ctx, projectEntry(1, store.PhaseAssembleEpisodes), 0)
	if !episodes.Passed {
		t.Fatalf("episode with final file should pass, got %+v", episodes)
	}

	publish := gate.Evaluate(ctx, projectEntry(1, store.PhasePublish), 0)
	if publish.Passed {
		t.Fatalf("unpublished episode should not pass, got %+v", publish)
	}
	if err := f.cat.MarkEpisodePublished(ctx, episodeID); err != nil {
		t.Fatalf("MarkEpisodePublished failed: %v", err)
	}
	publish = gate.Evaluate(ctx, projectEntry(1, store.PhasePublish), 0)
	if !publish.Passed {
		t.Fatalf("published episode should pass, got %+v", publish)
	}
}

func TestGateUnknownPhaseIsInert(t *testing.T) {
	_, gate := newGateFixture(t)
	result := gate.Evaluate(context.Background(), characterEntry(1, store.PhaseQC), 5)
	if result.Passed || result.ActionNeeded {
		t.Fatalf("unknown pair must be inert, got %+v", result)
	}
	if !strings.Contains(result.Reason, "no gate defined") {
		t.Fatalf("expected inert reason, got %q", result.Reason)
	}
}

func TestGateSnapshotRoundTrips(t *testing.T) {
	result := pipeline.GateResult{
		Passed:  true,
		Metrics: pipeline.GateMetrics{ApprovedCount: 5, TrainingTarget: 5},
	}
	snapshot := result.Snapshot()
	if !strings.Contains(snapshot, `"passed":true`) {
		t.Fatalf("unexpected snapshot: %s", snapshot)
	}
	current, target, ok := result.Progress()
	if !ok || current != 5 || target != 5 {
		t.Fatalf("Progress() = %d/%d (ok=%v)", current, target, ok)
	}
}

func TestGateEvaluateNeverMutatesStore(t *testing.T) {
	f, gate := newGateFixture(t)
	ctx := context.Background()

	charID := testsupport.NewCharacter(t, f.cat, 1, "hero", "design-1")
	testsupport.ApproveArtifacts(t, f.cat, charID, 2)
	if _, err := f.cat.CreateScene(ctx, 1); err != nil {
		t.Fatalf("CreateScene failed: %v", err)
	}
	for _, phase := range store.Sequence(store.EntityCharacter) {
		seedEntry(t, f.store, store.EntityCharacter, charID, phase)
	}
	for _, phase := range store.Sequence(store.EntityProject) {
		seedEntry(t, f.store, store.EntityProject, 1, phase)
	}

	before, err := f.store.ListByProject(ctx, 1)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}

	for _, phase := range store.Sequence(store.EntityCharacter) {
		gate.Evaluate(ctx, characterEntry(charID, phase), 5)
	}
	for _, phase := range store.Sequence(store.EntityProject) {
		gate.Evaluate(ctx, projectEntry(1, phase), 5)
	}

	after, err := f.store.ListByProject(ctx, 1)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("evaluation mutated stored entries\nbefore: %+v\nafter:  %+v", before, after)
	}

	approved, err := f.cat.ApprovedArtifactCount(ctx, charID)
	if err != nil {
		t.Fatalf("ApprovedArtifactCount failed: %v", err)
	}
	if approved != 2 {
		t.Fatalf("evaluation changed dataset rows: %d approved", approved)
	}
	active, err := f.cat.ActiveTrainingJobCount(ctx, charID)
	if err != nil {
		t.Fatalf("ActiveTrainingJobCount failed: %v", err)
	}
	if active != 0 {
		t.Fatalf("evaluation queued a training job: %d active", active)
	}
}
