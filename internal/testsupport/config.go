package testsupport

import (
	"path/filepath"
	"testing"

	"showrunner/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ModelsDir = filepath.Join(base, "models")
	cfg.Workflow.TickInterval = 1
	cfg.Workflow.IndexRefreshInterval = 0
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithTrainingTarget sets the configured training target.
func WithTrainingTarget(target int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.TrainingTarget = target
	}
}

// WithBackends points every backend URL at the given base URL, typically
// an httptest server.
func WithBackends(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backends.RenderURL = baseURL
		cfg.Backends.TrainerURL = baseURL
		cfg.Backends.PlannerURL = baseURL
		cfg.Backends.PublisherURL = baseURL
		cfg.Backends.IndexerURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
