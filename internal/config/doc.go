// Package config loads, normalizes, and validates Rumen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, honours the RUMEN_API_KEY/OPENROUTER_API_KEY
// environment fallbacks, and resolves per-folder prompts (inline or loaded
// from referenced files) plus model parameters inherited from the global
// [llm] table. The folder list is an immutable snapshot for the process
// lifetime; a configuration change requires a restart.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, resolved prompts, and clear validation errors.
package config
