package config

import "strings"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackends()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	expand := func(value *string, fallback string) error {
		if strings.TrimSpace(*value) == "" {
			*value = fallback
		}
		expanded, err := expandPath(*value)
		if err != nil {
			return err
		}
		*value = expanded
		return nil
	}

	if err := expand(&c.Paths.DataDir, defaultDataDir); err != nil {
		return err
	}
	if err := expand(&c.Paths.LogDir, defaultLogDir); err != nil {
		return err
	}
	return expand(&c.Paths.ModelsDir, defaultModelsDir)
}

func (c *Config) normalizeBackends() {
	if c.Backends.RequestTimeout <= 0 {
		c.Backends.RequestTimeout = defaultBackendTimeout
	}
	if c.Backends.RenderConcurrency <= 0 {
		c.Backends.RenderConcurrency = defaultRenderConcurrency
	}
	if c.Backends.IndexRefreshTimeout <= 0 {
		c.Backends.IndexRefreshTimeout = defaultIndexRefreshTimeout
	}
	c.Backends.RenderURL = strings.TrimSpace(c.Backends.RenderURL)
	c.Backends.TrainerURL = strings.TrimSpace(c.Backends.TrainerURL)
	c.Backends.PlannerURL = strings.TrimSpace(c.Backends.PlannerURL)
	c.Backends.PublisherURL = strings.TrimSpace(c.Backends.PublisherURL)
	c.Backends.IndexerURL = strings.TrimSpace(c.Backends.IndexerURL)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.TickInterval <= 0 {
		c.Workflow.TickInterval = defaultTickInterval
	}
	if c.Workflow.IndexRefreshInterval <= 0 {
		c.Workflow.IndexRefreshInterval = defaultIndexRefreshInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
