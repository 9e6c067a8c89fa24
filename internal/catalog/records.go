package catalog

import (
	"context"
	"fmt"
	"time"
)

// Write helpers used by ingest tooling and the event reactor's collaborators.
// Production content normally arrives through the generation backends, which
// share this database.

// CreateCharacter inserts a character; designRef may be empty for cast
// members that have not been designed yet.
func (c *Catalog) CreateCharacter(ctx context.Context, projectID int64, name, designRef string) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`INSERT INTO characters (project_id, name, design_ref, created_at) VALUES (?, ?, ?, ?)`,
		projectID, name, nullable(designRef), nowString(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert character: %w", err)
	}
	return res.LastInsertId()
}

// AddDatasetItem records one dataset artifact for a character.
func (c *Catalog) AddDatasetItem(ctx context.Context, characterID int64, status string) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`INSERT INTO dataset_items (character_id, status, created_at) VALUES (?, ?, ?)`,
		characterID, status, nowString(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert dataset item: %w", err)
	}
	return res.LastInsertId()
}

// SetTrainingJobStatus moves a training job through its lifecycle.
func (c *Catalog) SetTrainingJobStatus(ctx context.Context, jobID int64, status string) error {
	_, err := c.db.ExecContext(
		ctx,
		`UPDATE training_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		status, nowString(), jobID,
	)
	if err != nil {
		return fmt.Errorf("update training job: %w", err)
	}
	return nil
}

// CreateScene inserts a planned scene.
func (c *Catalog) CreateScene(ctx context.Context, projectID int64) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`INSERT INTO scenes (project_id, created_at) VALUES (?, ?)`,
		projectID, nowString(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert scene: %w", err)
	}
	return res.LastInsertId()
}

// MarkSceneAssembled records a scene's assembly.
func (c *Catalog) MarkSceneAssembled(ctx context.Context, sceneID int64) error {
	_, err := c.db.ExecContext(ctx, `UPDATE scenes SET status = 'assembled' WHERE id = ?`, sceneID)
	if err != nil {
		return fmt.Errorf("mark scene assembled: %w", err)
	}
	return nil
}

// CreateShot inserts a shot, optionally with its source asset.
func (c *Catalog) CreateShot(ctx context.Context, sceneID, projectID int64, sourceAsset string) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`INSERT INTO shots (scene_id, project_id, source_asset, created_at) VALUES (?, ?, ?, ?)`,
		sceneID, projectID, nullable(sourceAsset), nowString(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert shot: %w", err)
	}
	return res.LastInsertId()
}

// CompleteShot records a generated shot with its quality score.
func (c *Catalog) CompleteShot(ctx context.Context, shotID int64, outputFile string, quality float64) error {
	_, err := c.db.ExecContext(
		ctx,
		`UPDATE shots SET status = 'completed', output_file = ?, quality_score = ? WHERE id = ?`,
		outputFile, quality, shotID,
	)
	if err != nil {
		return fmt.Errorf("complete shot: %w", err)
	}
	return nil
}

// CreateEpisode inserts a planned episode.
func (c *Catalog) CreateEpisode(ctx context.Context, projectID int64) (int64, error) {
	res, err := c.db.ExecContext(
		ctx,
		`INSERT INTO episodes (project_id, created_at) VALUES (?, ?)`,
		projectID, nowString(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert episode: %w", err)
	}
	return res.LastInsertId()
}

// SetEpisodeFinalFile records an assembled episode's final artifact.
func (c *Catalog) SetEpisodeFinalFile(ctx context.Context, episodeID int64, finalFile string) error {
	_, err := c.db.ExecContext(
		ctx,
		`UPDATE episodes SET status = 'assembled', final_file = ? WHERE id = ?`,
		finalFile, episodeID,
	)
	if err != nil {
		return fmt.Errorf("set episode final file: %w", err)
	}
	return nil
}

// MarkEpisodePublished records an episode's publication time.
func (c *Catalog) MarkEpisodePublished(ctx context.Context, episodeID int64) error {
	_, err := c.db.ExecContext(
		ctx,
		`UPDATE episodes SET status = 'published', published_at = ? WHERE id = ?`,
		nowString(), episodeID,
	)
	if err != nil {
		return fmt.Errorf("mark episode published: %w", err)
	}
	return nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
