package actions

import (
	"context"
	"time"

	"showrunner/internal/pipeline"
)

// RefreshIndex asks the library indexer to re-scan published content.
// Best effort: the caller logs failures and retries on its own interval.
func (s *Set) RefreshIndex(ctx context.Context) error {
	url := s.cfg.Backends.IndexerURL
	if url == "" {
		return pipeline.Wrap(pipeline.ErrExternalTool, "actions", "index_refresh", "indexer not configured", nil)
	}
	timeout := time.Duration(s.cfg.Backends.IndexRefreshTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	refreshCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.client.post(refreshCtx, url, "index_refresh", jobRequest{Kind: "index_refresh"})
}
