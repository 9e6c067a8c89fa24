package main

import (
	"context"
	"strings"
	"sync"

	"showrunner/internal/actions"
	"showrunner/internal/catalog"
	"showrunner/internal/config"
	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/notifications"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// runtime bundles the one-shot command dependencies. The CLI opens the
// same SQLite database the daemon uses; WAL mode and the busy timeout
// make concurrent access safe.
type runtime struct {
	cfg          *config.Config
	store        *store.Store
	orchestrator *pipeline.Orchestrator
}

func (c *commandContext) withRuntime(ctx context.Context, fn func(context.Context, *runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cat, err := catalog.New(st.DB(), cfg.Paths.ModelsDir, cfg.Pipeline.ModelArchitecture)
	if err != nil {
		return err
	}

	logger := logging.NewNop()
	bus := events.NewBus(logger)
	actionSet := actions.NewSet(cfg, cat, bus, logger)
	orch := pipeline.New(cfg, st, cat, actionSet, bus, notifications.NewService(cfg), logger)
	if err := orch.RefreshSettings(ctx); err != nil {
		return err
	}

	return fn(ctx, &runtime{cfg: cfg, store: st, orchestrator: orch})
}
