package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"showrunner/internal/config"
	"showrunner/internal/notifications"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
)

// Indexer refreshes the external media index. Failures are logged and
// retried on the next interval.
type Indexer interface {
	RefreshIndex(ctx context.Context) error
}

// Daemon coordinates the background pipeline loops and enforces
// single-instance execution.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *store.Store
	orchestrator *pipeline.Orchestrator
	indexer      Indexer
	logPath      string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Enabled      bool
	DatabasePath string
	LockFilePath string
	Outstanding  int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, orch *pipeline.Orchestrator, indexer Indexer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || orch == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, orchestrator, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "showrunnerd.lock")
	return &Daemon{
		cfg:          cfg,
		logger:       logger,
		store:        st,
		orchestrator: orch,
		indexer:      indexer,
		logPath:      filepath.Join(cfg.Paths.LogDir, "showrunner.log"),
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, restores persisted pipeline state, and
// launches the tick and index refresh loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another showrunner daemon instance is already running")
	}

	if err := d.orchestrator.LoadState(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("load pipeline state: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.tickLoop(runCtx)
	if d.indexer != nil {
		d.wg.Add(1)
		go d.indexLoop(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("showrunner daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop terminates the background loops and releases the daemon lock.
// In-flight remediation work is abandoned; startup reconciliation resets
// its rows on the next run.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.Any("error", err))
	}
	d.running.Store(false)
	d.logger.Info("showrunner daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// DatabaseHealth returns detailed database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	if d.store == nil {
		return store.DatabaseHealth{}, errors.New("phase store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Enabled:      d.orchestrator.IsEnabled(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		Outstanding:  d.orchestrator.Dispatcher().OutstandingCount(),
	}
}
