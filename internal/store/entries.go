package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const entryColumns = "id, entity_type, entity_id, project_id, phase, status, started_at, completed_at, last_checked_at, blocked_reason, gate_snapshot, progress_current, progress_target, created_at, updated_at"

// InsertIfAbsent creates a pipeline entry unless the (entity_type,
// entity_id, phase) row already exists. It reports whether a new row was
// created; an existing row is left untouched, progress included.
func (s *Store) InsertIfAbsent(ctx context.Context, entityType EntityType, entityID, projectID int64, phase Phase, status Status) (bool, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO pipeline_entries (
            entity_type, entity_id, project_id, phase, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (entity_type, entity_id, phase) DO NOTHING`,
		entityType,
		entityID,
		projectID,
		phase,
		status,
		now,
		now,
	)
	if err != nil {
		return false, fmt.Errorf("insert pipeline entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetEntry fetches a pipeline entry by its unique key.
func (s *Store) GetEntry(ctx context.Context, entityType EntityType, entityID int64, phase Phase) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+entryColumns+` FROM pipeline_entries WHERE entity_type = ? AND entity_id = ? AND phase = ?`,
		entityType, entityID, phase,
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline entry: %w", err)
	}
	return entry, nil
}

// UpdateEntry persists changes to an existing pipeline entry.
func (s *Store) UpdateEntry(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return errors.New("entry is nil")
	}
	ctx = ensureContext(ctx)
	entry.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE pipeline_entries
         SET status = ?, started_at = ?, completed_at = ?, last_checked_at = ?,
             blocked_reason = ?, gate_snapshot = ?, progress_current = ?,
             progress_target = ?, updated_at = ?
         WHERE id = ?`,
		entry.Status,
		nullableTime(entry.StartedAt),
		nullableTime(entry.CompletedAt),
		nullableTime(entry.LastCheckedAt),
		nullableString(entry.BlockedReason),
		nullableString(entry.GateSnapshot),
		entry.ProgressCurrent,
		entry.ProgressTarget,
		entry.UpdatedAt.Format(time.RFC3339Nano),
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update pipeline entry: %w", err)
	}
	return nil
}

// ListForTick returns every entry the tick should evaluate: everything not
// completed or skipped, in the fixed sweep order. Failed entries are
// included so they are retried at tick cadence.
func (s *Store) ListForTick(ctx context.Context) ([]*Entry, error) {
	return s.queryEntries(
		ctx,
		`SELECT `+entryColumns+` FROM pipeline_entries
         WHERE status NOT IN (?, ?)
         ORDER BY project_id, entity_type DESC, phase`,
		StatusCompleted, StatusSkipped,
	)
}

// ListByProject returns all entries belonging to a project, characters first.
func (s *Store) ListByProject(ctx context.Context, projectID int64) ([]*Entry, error) {
	return s.queryEntries(
		ctx,
		`SELECT `+entryColumns+` FROM pipeline_entries
         WHERE project_id = ?
         ORDER BY entity_type, entity_id, created_at`,
		projectID,
	)
}

// CharactersIncomplete counts the project's characters that have not yet
// completed the terminal character phase.
func (s *Store) CharactersIncomplete(ctx context.Context, projectID int64) (int, error) {
	ctx = ensureContext(ctx)
	var total, done int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(DISTINCT entity_id) FROM pipeline_entries WHERE project_id = ? AND entity_type = ?`,
		projectID, EntityCharacter,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count characters: %w", err)
	}
	err = s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(DISTINCT entity_id) FROM pipeline_entries
         WHERE project_id = ? AND entity_type = ? AND phase = ? AND status = ?`,
		projectID, EntityCharacter, TerminalCharacterPhase, StatusCompleted,
	).Scan(&done)
	if err != nil {
		return 0, fmt.Errorf("count completed characters: %w", err)
	}
	return total - done, nil
}

// ResetStaleActive returns entries left active by a previous process to
// pending. The work registry is memory-only, so nothing can still be
// running for them after a restart.
func (s *Store) ResetStaleActive(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE pipeline_entries SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusActive,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stale active entries: %w", err)
	}
	return res.RowsAffected()
}

// StatusCounts returns a count of entries grouped by status.
func (s *Store) StatusCounts(ctx context.Context) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM pipeline_entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("pipeline status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pipeline entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id              int64
		entityTypeStr   string
		entityID        int64
		projectID       int64
		phaseStr        string
		statusStr       string
		startedRaw      sql.NullString
		completedRaw    sql.NullString
		lastCheckedRaw  sql.NullString
		blockedReason   sql.NullString
		gateSnapshot    sql.NullString
		progressCurrent int
		progressTarget  int
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&entityTypeStr,
		&entityID,
		&projectID,
		&phaseStr,
		&statusStr,
		&startedRaw,
		&completedRaw,
		&lastCheckedRaw,
		&blockedReason,
		&gateSnapshot,
		&progressCurrent,
		&progressTarget,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:              id,
		EntityType:      EntityType(entityTypeStr),
		EntityID:        entityID,
		ProjectID:       projectID,
		Phase:           Phase(phaseStr),
		Status:          Status(statusStr),
		BlockedReason:   blockedReason.String,
		GateSnapshot:    gateSnapshot.String,
		ProgressCurrent: progressCurrent,
		ProgressTarget:  progressTarget,
	}
	entry.StartedAt = parseNullableTime(startedRaw)
	entry.CompletedAt = parseNullableTime(completedRaw)
	entry.LastCheckedAt = parseNullableTime(lastCheckedRaw)
	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	t, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
