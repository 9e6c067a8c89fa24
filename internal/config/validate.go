package config

import (
	"fmt"
	"strings"
)

// Validate rejects configurations the daemon cannot safely run with.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateWorkflow()
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.TrainingTarget <= 0 {
		return fmt.Errorf("pipeline.training_target must be positive, got %d", c.Pipeline.TrainingTarget)
	}
	if c.Pipeline.QualityFloor < 0 || c.Pipeline.QualityFloor > 1 {
		return fmt.Errorf("pipeline.quality_floor must be within [0, 1], got %g", c.Pipeline.QualityFloor)
	}
	if strings.TrimSpace(c.Pipeline.ModelArchitecture) == "" {
		return fmt.Errorf("pipeline.model_architecture must not be empty")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	intervals := map[string]int{
		"workflow.tick_interval":          c.Workflow.TickInterval,
		"workflow.index_refresh_interval": c.Workflow.IndexRefreshInterval,
		"workflow.error_retry_interval":   c.Workflow.ErrorRetryInterval,
		"backends.request_timeout":        c.Backends.RequestTimeout,
		"backends.render_concurrency":     c.Backends.RenderConcurrency,
		"backends.index_refresh_timeout":  c.Backends.IndexRefreshTimeout,
		"notifications.request_timeout":   c.Notifications.RequestTimeout,
	}
	for name, value := range intervals {
		if value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, value)
		}
	}
	return nil
}
