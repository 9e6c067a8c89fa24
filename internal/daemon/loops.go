package daemon

import (
	"context"
	"log/slog"
	"time"

	"showrunner/internal/logging"
)

func (d *Daemon) tickLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.TickInterval) * time.Second
	retry := time.Duration(d.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = interval
	}
	logger := logging.NewComponentLogger(d.logger, "tick")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		wait := interval
		result, err := d.orchestrator.Tick(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return
		case err != nil:
			wait = retry
			logger.Warn("pipeline tick failed",
				logging.Error(err),
				slog.String(logging.FieldEventType, "tick_failed"),
				slog.String(logging.FieldErrorHint, "check pipeline database access"),
			)
		case result.Evaluated > 0:
			logger.Debug("pipeline tick complete",
				slog.Int("evaluated", result.Evaluated),
				slog.Int("advanced", result.Advanced),
				slog.Int("dispatched", result.Dispatched),
			)
		}
		timer.Reset(wait)
	}
}

// indexLoop refreshes the media index on its own cadence. It runs even
// while the pipeline is disabled so browse surfaces stay current.
func (d *Daemon) indexLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.IndexRefreshInterval) * time.Second
	if interval <= 0 {
		return
	}
	logger := logging.NewComponentLogger(d.logger, "indexer")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := d.indexer.RefreshIndex(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("index refresh failed",
				logging.Error(err),
				slog.String(logging.FieldEventType, "index_refresh_failed"),
			)
			continue
		}
		logger.Debug("index refresh complete")
	}
}
