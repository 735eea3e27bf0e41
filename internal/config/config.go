package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// LLM contains the shared connection settings and generation defaults applied
// to every folder that does not override them.
type LLM struct {
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RetryAttempts  int     `toml:"retry_attempts"`
	RetryDelay     int     `toml:"retry_delay"`
	RetryMaxDelay  int     `toml:"retry_max_delay"`
	Temperature    float64 `toml:"temperature"`
	MaxTokens      int     `toml:"max_tokens"`
	TopP           float64 `toml:"top_p"`
}

// Monitor contains file watching cadence and worker pool sizing.
type Monitor struct {
	Interval    int `toml:"interval"`
	FileTimeout int `toml:"file_timeout"`
	QueueSize   int `toml:"queue_size"`
	Workers     int `toml:"workers"`
}

// Output contains the default result format.
type Output struct {
	Format string `toml:"format"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Folder describes one monitored input directory and the prompts and model
// parameters applied to files that arrive in it. Folders are immutable once
// loaded; changing one requires a daemon restart.
type Folder struct {
	Name               string  `toml:"name"`
	Path               string  `toml:"path"`
	Enabled            bool    `toml:"enabled"`
	SystemPrompt       string  `toml:"system_prompt"`
	SystemPromptFile   string  `toml:"system_prompt_file"`
	UserPromptTemplate string  `toml:"user_prompt_template"`
	UserPromptFile     string  `toml:"user_prompt_file"`
	Model              string  `toml:"model"`
	Temperature        float64 `toml:"temperature"`
	MaxTokens          int     `toml:"max_tokens"`
	TopP               float64 `toml:"top_p"`
	OutputFormat       string  `toml:"output_format"`
	OutputDir          string  `toml:"output_dir"`
}

// Config encapsulates all configuration values for Rumen.
//
// Configuration sections by subsystem:
//   - Paths: output/log directories and the API bind address
//   - LLM: provider connection settings, retry policy, generation defaults
//   - Monitor: scan interval, stability window, queue and worker sizing
//   - Output: default result format
//   - Logging: log format and level
//   - Folders: the monitored input directories and their prompts
type Config struct {
	Paths   Paths    `toml:"paths"`
	LLM     LLM      `toml:"llm"`
	Monitor Monitor  `toml:"monitor"`
	Output  Output   `toml:"output"`
	Logging Logging  `toml:"logging"`
	Folders []Folder `toml:"folders"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rumen/config.toml")
}

// Load locates, parses, normalizes, and validates a configuration file. The
// returned config has all path fields expanded and every folder's prompts and
// model parameters fully resolved.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rumen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation,
// including every enabled folder's input path and output override.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, folder := range c.EnabledFolders() {
		if err := os.MkdirAll(folder.Path, 0o755); err != nil {
			return fmt.Errorf("create folder %q input directory: %w", folder.Name, err)
		}
		if strings.TrimSpace(folder.OutputDir) != "" {
			if err := os.MkdirAll(folder.OutputDir, 0o755); err != nil {
				return fmt.Errorf("create folder %q output directory: %w", folder.Name, err)
			}
		}
	}
	return nil
}

// EnabledFolders returns the folders that should be monitored.
func (c *Config) EnabledFolders() []Folder {
	enabled := make([]Folder, 0, len(c.Folders))
	for _, folder := range c.Folders {
		if folder.Enabled {
			enabled = append(enabled, folder)
		}
	}
	return enabled
}

// FolderByName looks up a folder by its configured name.
func (c *Config) FolderByName(name string) (Folder, bool) {
	for _, folder := range c.Folders {
		if strings.EqualFold(folder.Name, strings.TrimSpace(name)) {
			return folder, true
		}
	}
	return Folder{}, false
}

// ResolveOutputDir returns the directory results for the folder are written
// to: the folder's override when set, else the global output directory.
func (c *Config) ResolveOutputDir(folder Folder) string {
	if strings.TrimSpace(folder.OutputDir) != "" {
		return folder.OutputDir
	}
	return c.Paths.OutputDir
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
