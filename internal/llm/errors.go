package llm

import (
	"errors"
	"fmt"
)

// ErrorClass partitions transformation failures into the two retry policies.
type ErrorClass string

const (
	// ClassTransient covers network failures, timeouts, rate limits, and
	// server-side errors. Transient failures are retried with backoff.
	ClassTransient ErrorClass = "transient"
	// ClassPermanent covers authentication failures, malformed requests,
	// and non-retryable quota errors. Permanent failures are never retried.
	ClassPermanent ErrorClass = "permanent"
)

// ClassifiedError wraps a transformation failure with its retry class and the
// number of attempts that were made before giving up.
type ClassifiedError struct {
	Class    ErrorClass
	Attempts int
	Err      error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s failure after %d attempt(s): %v", e.Class, e.Attempts, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify extracts the error class from err. ok is false when err carries no
// classification (for example a context cancellation during shutdown).
func Classify(err error) (ErrorClass, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Class, true
	}
	return "", false
}

// Attempts reports how many attempts a failed call made; zero when unknown.
func Attempts(err error) int {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Attempts
	}
	return 0
}
