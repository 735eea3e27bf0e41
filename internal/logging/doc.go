// Package logging builds the slog loggers used across the Rumen daemon and CLI.
//
// It offers a console handler that renders compact key=value lines with the
// component attribute folded into the message prefix, a JSON handler for
// machine-readable output, typed attribute helpers, and shared field names so
// pipeline events stay greppable. Tests use NewNop to silence output.
package logging
