package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Catalog provides access to production data: characters, scenes, shots,
// episodes, and training jobs.
type Catalog struct {
	db        *sql.DB
	modelsDir string
	arch      string
}

// New wires a catalog onto an existing database handle. modelsDir is where
// trained character models live on disk; arch names the model architecture
// used in artifact filenames.
func New(db *sql.DB, modelsDir, arch string) (*Catalog, error) {
	if db == nil {
		return nil, errors.New("catalog requires a database handle")
	}
	c := &Catalog{db: db, modelsDir: modelsDir, arch: arch}
	if err := c.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS characters (
            id             INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id     INTEGER NOT NULL,
            name           TEXT NOT NULL,
            design_ref     TEXT,
            model_artifact TEXT,
            created_at     TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS dataset_items (
            id           INTEGER PRIMARY KEY AUTOINCREMENT,
            character_id INTEGER NOT NULL,
            status       TEXT NOT NULL DEFAULT 'pending',
            created_at   TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS training_jobs (
            id           INTEGER PRIMARY KEY AUTOINCREMENT,
            character_id INTEGER NOT NULL,
            status       TEXT NOT NULL DEFAULT 'queued',
            created_at   TEXT NOT NULL,
            updated_at   TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS scenes (
            id         INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL,
            status     TEXT NOT NULL DEFAULT 'planned',
            created_at TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS shots (
            id            INTEGER PRIMARY KEY AUTOINCREMENT,
            scene_id      INTEGER NOT NULL,
            project_id    INTEGER NOT NULL,
            status        TEXT NOT NULL DEFAULT 'pending',
            source_asset  TEXT,
            output_file   TEXT,
            quality_score REAL,
            created_at    TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS episodes (
            id           INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id   INTEGER NOT NULL,
            status       TEXT NOT NULL DEFAULT 'planned',
            final_file   TEXT,
            published_at TEXT,
            created_at   TEXT NOT NULL
        )`,
	}
	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure catalog schema: %w", err)
		}
	}
	return nil
}

// Character is a designed cast member eligible for the character pipeline.
type Character struct {
	ID            int64
	ProjectID     int64
	Name          string
	DesignRef     string
	ModelArtifact string
}

// CharactersWithDesign returns the project's characters that have a design
// reference. Characters without one never enter the pipeline.
func (c *Catalog) CharactersWithDesign(ctx context.Context, projectID int64) ([]Character, error) {
	rows, err := c.db.QueryContext(
		ctx,
		`SELECT id, project_id, name, COALESCE(design_ref, ''), COALESCE(model_artifact, '')
         FROM characters
         WHERE project_id = ? AND design_ref IS NOT NULL AND TRIM(design_ref) != ''
         ORDER BY id`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query characters: %w", err)
	}
	defer rows.Close()

	var characters []Character
	for rows.Next() {
		var ch Character
		if err := rows.Scan(&ch.ID, &ch.ProjectID, &ch.Name, &ch.DesignRef, &ch.ModelArtifact); err != nil {
			return nil, err
		}
		characters = append(characters, ch)
	}
	return characters, rows.Err()
}

// ApprovedArtifactCount counts a character's approved dataset items.
func (c *Catalog) ApprovedArtifactCount(ctx context.Context, characterID int64) (int, error) {
	var count int
	err := c.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM dataset_items WHERE character_id = ? AND status = 'approved'`,
		characterID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count approved dataset items: %w", err)
	}
	return count, nil
}

// ActiveTrainingJobCount counts training jobs queued or running for a character.
func (c *Catalog) ActiveTrainingJobCount(ctx context.Context, characterID int64) (int, error) {
	var count int
	err := c.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM training_jobs WHERE character_id = ? AND status IN ('queued', 'running')`,
		characterID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active training jobs: %w", err)
	}
	return count, nil
}

// InsertTrainingJob records a queued training job for a character.
func (c *Catalog) InsertTrainingJob(ctx context.Context, characterID int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := c.db.ExecContext(
		ctx,
		`INSERT INTO training_jobs (character_id, status, created_at, updated_at) VALUES (?, 'queued', ?, ?)`,
		characterID, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert training job: %w", err)
	}
	return res.LastInsertId()
}

// ModelArtifactPath returns where a character's trained model lives on disk.
func (c *Catalog) ModelArtifactPath(characterID int64) string {
	name := strconv.FormatInt(characterID, 10) + "-" + c.arch + ".safetensors"
	return filepath.Join(c.modelsDir, name)
}

// ModelArtifactExists reports whether the trained model file is on disk.
func (c *Catalog) ModelArtifactExists(characterID int64) (bool, error) {
	info, err := os.Stat(c.ModelArtifactPath(characterID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat model artifact: %w", err)
	}
	return !info.IsDir(), nil
}

// AttachModelArtifact links the trained model reference to the character
// record. The link is one-time: an already-set reference is preserved.
func (c *Catalog) AttachModelArtifact(ctx context.Context, characterID int64, ref string) error {
	_, err := c.db.ExecContext(
		ctx,
		`UPDATE characters SET model_artifact = ?
         WHERE id = ? AND (model_artifact IS NULL OR model_artifact = '')`,
		ref, characterID,
	)
	if err != nil {
		return fmt.Errorf("attach model artifact: %w", err)
	}
	return nil
}
