package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeMonitor()
	c.normalizeOutput()
	c.normalizeLogging()
	return c.normalizeFolders()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		for _, name := range []string{"RUMEN_API_KEY", "OPENROUTER_API_KEY"} {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = value
				break
			}
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultTimeoutSecs
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultRetryAttempts
	}
	if c.LLM.RetryDelay <= 0 {
		c.LLM.RetryDelay = defaultRetryDelay
	}
	if c.LLM.RetryMaxDelay <= 0 {
		c.LLM.RetryMaxDelay = defaultRetryMaxDelay
	}
	if c.LLM.Temperature <= 0 {
		c.LLM.Temperature = defaultTemperature
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	if c.LLM.TopP <= 0 {
		c.LLM.TopP = defaultTopP
	}
}

func (c *Config) normalizeMonitor() {
	if c.Monitor.Interval <= 0 {
		c.Monitor.Interval = defaultInterval
	}
	if c.Monitor.FileTimeout <= 0 {
		c.Monitor.FileTimeout = defaultFileTimeout
	}
	if c.Monitor.QueueSize <= 0 {
		c.Monitor.QueueSize = defaultQueueSize
	}
	if c.Monitor.Workers <= 0 {
		c.Monitor.Workers = defaultWorkers
	}
}

func (c *Config) normalizeOutput() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
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

// normalizeFolders expands paths, loads referenced prompt files, and fills
// unset per-folder model parameters from the [llm] defaults so downstream
// code never consults two sources.
func (c *Config) normalizeFolders() error {
	for i := range c.Folders {
		folder := &c.Folders[i]
		folder.Name = strings.TrimSpace(folder.Name)

		var err error
		if folder.Path, err = expandPath(folder.Path); err != nil {
			return fmt.Errorf("folder %q path: %w", folder.Name, err)
		}
		if strings.TrimSpace(folder.OutputDir) != "" {
			if folder.OutputDir, err = expandPath(folder.OutputDir); err != nil {
				return fmt.Errorf("folder %q output_dir: %w", folder.Name, err)
			}
		}

		if folder.SystemPrompt == "" && folder.SystemPromptFile != "" {
			if folder.SystemPrompt, err = loadPromptFile(folder.SystemPromptFile); err != nil {
				return fmt.Errorf("folder %q system_prompt_file: %w", folder.Name, err)
			}
		}
		if folder.UserPromptTemplate == "" && folder.UserPromptFile != "" {
			if folder.UserPromptTemplate, err = loadPromptFile(folder.UserPromptFile); err != nil {
				return fmt.Errorf("folder %q user_prompt_file: %w", folder.Name, err)
			}
		}

		if strings.TrimSpace(folder.Model) == "" {
			folder.Model = c.LLM.Model
		}
		if folder.Temperature <= 0 {
			folder.Temperature = c.LLM.Temperature
		}
		if folder.MaxTokens <= 0 {
			folder.MaxTokens = c.LLM.MaxTokens
		}
		if folder.TopP <= 0 {
			folder.TopP = c.LLM.TopP
		}
		folder.OutputFormat = strings.ToLower(strings.TrimSpace(folder.OutputFormat))
		if folder.OutputFormat == "" {
			folder.OutputFormat = c.Output.Format
		}
	}
	return nil
}

func loadPromptFile(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("prompt file %s is empty", expanded)
	}
	return prompt, nil
}
