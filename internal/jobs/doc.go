// Package jobs persists the processing history for every file the daemon
// picks up. Each promoted file becomes a job row that moves through the
// queued, processing, retrying, completed, and failed statuses; the SQLite
// store survives restarts so operators can inspect past runs.
package jobs
