package config

const (
	defaultOutputDir     = "~/.local/share/rumen/bolus"
	defaultLogDir        = "~/.local/share/rumen/logs"
	defaultAPIBind       = "127.0.0.1:8037"
	defaultBaseURL       = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel         = "google/gemini-2.5-flash-lite"
	defaultTimeoutSecs   = 60
	defaultRetryAttempts = 3
	defaultRetryDelay    = 2
	defaultRetryMaxDelay = 30
	defaultTemperature   = 0.7
	defaultMaxTokens     = 2048
	defaultTopP          = 0.9
	defaultInterval      = 5
	defaultFileTimeout   = 30
	defaultQueueSize     = 16
	defaultWorkers       = 4
	defaultOutputFormat  = "markdown"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultBaseURL,
			Model:          defaultModel,
			TimeoutSeconds: defaultTimeoutSecs,
			RetryAttempts:  defaultRetryAttempts,
			RetryDelay:     defaultRetryDelay,
			RetryMaxDelay:  defaultRetryMaxDelay,
			Temperature:    defaultTemperature,
			MaxTokens:      defaultMaxTokens,
			TopP:           defaultTopP,
		},
		Monitor: Monitor{
			Interval:    defaultInterval,
			FileTimeout: defaultFileTimeout,
			QueueSize:   defaultQueueSize,
			Workers:     defaultWorkers,
		},
		Output: Output{
			Format: defaultOutputFormat,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
