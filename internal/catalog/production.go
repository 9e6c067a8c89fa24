package catalog

import (
	"context"
	"fmt"
)

// ShotStats aggregates per-project shot counts for the prep and generate gates.
type ShotStats struct {
	Total        int
	Completed    int
	MissingAsset int
}

// AssemblyStats pairs a total with how many of it are done.
type AssemblyStats struct {
	Total int
	Done  int
}

// SceneCount returns the number of planned scenes for a project.
func (c *Catalog) SceneCount(ctx context.Context, projectID int64) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM scenes WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scenes: %w", err)
	}
	return count, nil
}

// ShotStats aggregates the project's shots: totals, completions, and shots
// still missing a source asset.
func (c *Catalog) ShotStats(ctx context.Context, projectID int64) (ShotStats, error) {
	var stats ShotStats
	err := c.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(CASE WHEN source_asset IS NULL OR source_asset = '' THEN 1 ELSE 0 END), 0)
         FROM shots WHERE project_id = ?`,
		projectID,
	).Scan(&stats.Total, &stats.Completed, &stats.MissingAsset)
	if err != nil {
		return ShotStats{}, fmt.Errorf("aggregate shots: %w", err)
	}
	return stats, nil
}

// ShotsBelowQuality counts completed shots whose quality score is below floor.
func (c *Catalog) ShotsBelowQuality(ctx context.Context, projectID int64, floor float64) (int, error) {
	var count int
	err := c.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM shots
         WHERE project_id = ? AND status = 'completed'
           AND (quality_score IS NULL OR quality_score < ?)`,
		projectID, floor,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count low quality shots: %w", err)
	}
	return count, nil
}

// SceneAssemblyStats reports how many scenes have been assembled.
func (c *Catalog) SceneAssemblyStats(ctx context.Context, projectID int64) (AssemblyStats, error) {
	return c.assemblyStats(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN status = 'assembled' THEN 1 ELSE 0 END), 0)
         FROM scenes WHERE project_id = ?`,
		projectID, "scenes",
	)
}

// EpisodeAssemblyStats reports how many episodes have a final artifact.
func (c *Catalog) EpisodeAssemblyStats(ctx context.Context, projectID int64) (AssemblyStats, error) {
	return c.assemblyStats(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN final_file IS NOT NULL AND final_file != '' THEN 1 ELSE 0 END), 0)
         FROM episodes WHERE project_id = ?`,
		projectID, "episodes",
	)
}

// EpisodePublishStats reports how many episodes have been published.
func (c *Catalog) EpisodePublishStats(ctx context.Context, projectID int64) (AssemblyStats, error) {
	return c.assemblyStats(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN published_at IS NOT NULL THEN 1 ELSE 0 END), 0)
         FROM episodes WHERE project_id = ?`,
		projectID, "episodes",
	)
}

func (c *Catalog) assemblyStats(ctx context.Context, query string, projectID int64, what string) (AssemblyStats, error) {
	var stats AssemblyStats
	err := c.db.QueryRowContext(ctx, query, projectID).Scan(&stats.Total, &stats.Done)
	if err != nil {
		return AssemblyStats{}, fmt.Errorf("aggregate %s: %w", what, err)
	}
	return stats, nil
}
