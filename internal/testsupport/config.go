package testsupport

import (
	"path/filepath"
	"testing"

	"rumen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, registers one enabled folder named "notes", and
// applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.LLM.APIKey = "test"
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Folders = []config.Folder{
		{
			Name:               "notes",
			Path:               filepath.Join(base, "notes"),
			Enabled:            true,
			SystemPrompt:       "You are a summarizer.",
			UserPromptTemplate: "Summarize:\n\n{content}",
			Model:              cfgVal.LLM.Model,
			Temperature:        cfgVal.LLM.Temperature,
			MaxTokens:          cfgVal.LLM.MaxTokens,
			TopP:               cfgVal.LLM.TopP,
			OutputFormat:       cfgVal.Output.Format,
		},
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithAPIKey sets the LLM API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithBaseURL points the LLM client at the provided endpoint, typically an
// httptest server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithMonitor overrides the scan interval and stability window, in seconds.
func WithMonitor(interval, fileTimeout int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.Interval = interval
		b.cfg.Monitor.FileTimeout = fileTimeout
	}
}

// WithWorkers overrides worker pool sizing and queue capacity.
func WithWorkers(workers, queueSize int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Monitor.Workers = workers
		b.cfg.Monitor.QueueSize = queueSize
	}
}

// WithFolders replaces the default folder set. Paths are kept as provided so
// callers can point folders at their own temp directories.
func WithFolders(folders ...config.Folder) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Folders = folders
	}
}
