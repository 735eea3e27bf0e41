// Package llm wraps a single call to an OpenAI-compatible chat-completion
// API with retry, capped exponential backoff, and error classification.
//
// Failures are partitioned into transient (network errors, timeouts, rate
// limits, 5xx responses) and permanent (authentication, malformed requests,
// hard quota errors). Transient failures are retried up to the configured
// attempt ceiling with the delay doubling per attempt; permanent failures are
// surfaced immediately. Every failed call reports how many attempts were
// made. The client never retries indefinitely and never swallows a permanent
// error.
package llm
