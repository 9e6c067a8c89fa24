package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"showrunner/internal/actions"
	"showrunner/internal/catalog"
	"showrunner/internal/config"
	"showrunner/internal/daemon"
	"showrunner/internal/events"
	"showrunner/internal/logging"
	"showrunner/internal/notifications"
	"showrunner/internal/pipeline"
	"showrunner/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open phase store", logging.Error(err))
		return
	}

	cat, err := catalog.New(st.DB(), cfg.Paths.ModelsDir, cfg.Pipeline.ModelArchitecture)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		_ = st.Close()
		return
	}

	bus := events.NewBus(logger)
	actionSet := actions.NewSet(cfg, cat, bus, logger)
	notifier := notifications.NewService(cfg)
	orch := pipeline.New(cfg, st, cat, actionSet, bus, notifier, logger)

	d, err := daemon.New(cfg, st, orch, actionSet, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("showrunnerd shutting down", slog.String(logging.FieldEventType, "daemon_shutdown"))
}
