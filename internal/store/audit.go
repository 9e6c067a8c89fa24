package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditRecord is one row of the append-only operational audit trail.
type AuditRecord struct {
	ID        int64
	Actor     string
	Action    string
	Detail    string
	CreatedAt time.Time
}

// AppendAudit records an operational event. Detail is marshaled to JSON;
// pass nil for actions that need no payload.
func (s *Store) AppendAudit(ctx context.Context, actor, action string, detail any) error {
	ctx = ensureContext(ctx)
	var detailJSON any
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
		detailJSON = string(data)
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO pipeline_audit (actor, action, detail, created_at) VALUES (?, ?, ?, ?)`,
		actor,
		action,
		detailJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// RecentAudit returns the newest audit records, most recent first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]AuditRecord, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, actor, action, detail, created_at FROM pipeline_audit ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var (
			record     AuditRecord
			detail     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&record.ID, &record.Actor, &record.Action, &detail, &createdRaw); err != nil {
			return nil, err
		}
		record.Detail = detail.String
		if created, err := parseTimeString(createdRaw); err == nil {
			record.CreatedAt = created
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
