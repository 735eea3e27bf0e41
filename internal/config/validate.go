package config

import (
	"errors"
	"fmt"
	"strings"
)

// PlaceholderContent is the marker in a user prompt template that file
// content is substituted into.
const PlaceholderContent = "{content}"

var knownOutputFormats = map[string]struct{}{
	"markdown": {},
	"json":     {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateFolders()
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/rumen/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set RUMEN_API_KEY env var or edit %s (create with 'rumen config init')", defaultPath)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.TopP < 0 || c.LLM.TopP > 1 {
		return errors.New("llm.top_p must be between 0 and 1")
	}
	return ensurePositiveMap(map[string]int{
		"llm.timeout_seconds": c.LLM.TimeoutSeconds,
		"llm.retry_attempts":  c.LLM.RetryAttempts,
		"llm.retry_delay":     c.LLM.RetryDelay,
		"llm.retry_max_delay": c.LLM.RetryMaxDelay,
		"llm.max_tokens":      c.LLM.MaxTokens,
	})
}

func (c *Config) validateMonitor() error {
	return ensurePositiveMap(map[string]int{
		"monitor.interval":     c.Monitor.Interval,
		"monitor.file_timeout": c.Monitor.FileTimeout,
		"monitor.queue_size":   c.Monitor.QueueSize,
		"monitor.workers":      c.Monitor.Workers,
	})
}

func (c *Config) validateOutput() error {
	if _, ok := knownOutputFormats[c.Output.Format]; !ok {
		return fmt.Errorf("output.format: unsupported value %q (markdown or json)", c.Output.Format)
	}
	return nil
}

func (c *Config) validateFolders() error {
	seen := map[string]struct{}{}
	for _, folder := range c.Folders {
		if !folder.Enabled {
			continue
		}
		if folder.Name == "" {
			return errors.New("every enabled folder needs a name")
		}
		key := strings.ToLower(folder.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("folder %q is configured twice", folder.Name)
		}
		seen[key] = struct{}{}

		if strings.TrimSpace(folder.Path) == "" {
			return fmt.Errorf("folder %q: path must be set", folder.Name)
		}
		if strings.TrimSpace(folder.SystemPrompt) == "" {
			return fmt.Errorf("folder %q: system_prompt (or system_prompt_file) must be set", folder.Name)
		}
		if strings.TrimSpace(folder.UserPromptTemplate) == "" {
			return fmt.Errorf("folder %q: user_prompt_template (or user_prompt_file) must be set", folder.Name)
		}
		if !strings.Contains(folder.UserPromptTemplate, PlaceholderContent) {
			return fmt.Errorf("folder %q: user_prompt_template must contain the %s placeholder", folder.Name, PlaceholderContent)
		}
		if _, ok := knownOutputFormats[folder.OutputFormat]; !ok {
			return fmt.Errorf("folder %q: output_format: unsupported value %q (markdown or json)", folder.Name, folder.OutputFormat)
		}
		if folder.Temperature < 0 || folder.Temperature > 2 {
			return fmt.Errorf("folder %q: temperature must be between 0 and 2", folder.Name)
		}
		if folder.TopP < 0 || folder.TopP > 1 {
			return fmt.Errorf("folder %q: top_p must be between 0 and 1", folder.Name)
		}
		if folder.MaxTokens <= 0 {
			return fmt.Errorf("folder %q: max_tokens must be positive", folder.Name)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
