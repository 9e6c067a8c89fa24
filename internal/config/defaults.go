package config

const (
	defaultDataDir              = "~/.local/share/showrunner"
	defaultLogDir               = "~/.local/share/showrunner/logs"
	defaultModelsDir            = "~/.local/share/showrunner/models"
	defaultBackendTimeout       = 600
	defaultRenderConcurrency    = 2
	defaultIndexRefreshTimeout  = 30
	defaultTrainingTarget       = 100
	defaultQualityFloor         = 0.7
	defaultModelArchitecture    = "sdxl-lora"
	defaultNotifyTimeout        = 10
	defaultTickInterval         = 60
	defaultIndexRefreshInterval = 900
	defaultErrorRetryInterval   = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ModelsDir: defaultModelsDir,
		},
		Backends: Backends{
			RequestTimeout:      defaultBackendTimeout,
			RenderConcurrency:   defaultRenderConcurrency,
			IndexRefreshTimeout: defaultIndexRefreshTimeout,
		},
		Pipeline: Pipeline{
			TrainingTarget:    defaultTrainingTarget,
			QualityFloor:      defaultQualityFloor,
			ModelArchitecture: defaultModelArchitecture,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Episodes:       true,
			Errors:         true,
		},
		Workflow: Workflow{
			TickInterval:         defaultTickInterval,
			IndexRefreshInterval: defaultIndexRefreshInterval,
			ErrorRetryInterval:   defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
