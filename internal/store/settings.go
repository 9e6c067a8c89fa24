package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Setting keys persisted in pipeline_settings.
const (
	settingEnabled        = "pipeline_enabled"
	settingTrainingTarget = "training_target"
)

// GetSetting returns a raw setting value. ok is false when the key has
// never been persisted.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	ctx = ensureContext(ctx)
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM pipeline_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting writes a setting value, replacing any previous one.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO pipeline_settings (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Enabled reports the persisted pipeline enablement flag. A database that
// has never been enabled reports false.
func (s *Store) Enabled(ctx context.Context) (bool, error) {
	value, ok, err := s.GetSetting(ctx, settingEnabled)
	if err != nil || !ok {
		return false, err
	}
	return value == "true", nil
}

// SetEnabled persists the pipeline enablement flag.
func (s *Store) SetEnabled(ctx context.Context, enabled bool) error {
	return s.SetSetting(ctx, settingEnabled, strconv.FormatBool(enabled))
}

// TrainingTarget returns the persisted training target, or ok=false when
// the config default should apply.
func (s *Store) TrainingTarget(ctx context.Context) (int, bool, error) {
	value, ok, err := s.GetSetting(ctx, settingTrainingTarget)
	if err != nil || !ok {
		return 0, false, err
	}
	target, convErr := strconv.Atoi(value)
	if convErr != nil || target <= 0 {
		return 0, false, nil
	}
	return target, true, nil
}

// SetTrainingTarget persists the training target tunable.
func (s *Store) SetTrainingTarget(ctx context.Context, target int) error {
	return s.SetSetting(ctx, settingTrainingTarget, strconv.Itoa(target))
}
