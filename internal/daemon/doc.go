// Package daemon combines the folder watcher, dispatcher, job store, and
// HTTP API into a single lifecycle with flock-based locking to prevent
// multiple concurrent instances.
package daemon
