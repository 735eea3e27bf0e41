package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a processing job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusRetrying   Status = "retrying"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the error message recorded when stale jobs from a
// previous run are failed at startup. DaemonStopClass is the matching error
// class: the source file is still present, so a later run can reprocess it.
const (
	DaemonStopReason = "daemon stopped before the job finished"
	DaemonStopClass  = "transient"
)

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusRetrying,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsActive reports whether a status describes a job the pipeline still owns.
func (s Status) IsActive() bool {
	return !s.IsTerminal()
}

// Job records one file's transformation attempt lifecycle.
type Job struct {
	ID           string
	SourcePath   string
	Folder       string
	Status       Status
	Attempts     int
	ErrorClass   string
	ErrorMessage string
	OutputPath   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SetProcessing marks the job as picked up by a worker.
func (j *Job) SetProcessing() {
	j.Status = StatusProcessing
	j.ErrorClass = ""
	j.ErrorMessage = ""
}

// SetRetrying records a transient attempt failure that will be retried.
func (j *Job) SetRetrying(attempts int, message string) {
	j.Status = StatusRetrying
	j.Attempts = attempts
	j.ErrorMessage = message
}

// SetCompleted marks the job as finished with its persisted output.
func (j *Job) SetCompleted(outputPath string, attempts int) {
	j.Status = StatusCompleted
	j.Attempts = attempts
	j.OutputPath = outputPath
	j.ErrorClass = ""
	j.ErrorMessage = ""
}

// SetFailed marks the job as terminally failed with the classified cause.
func (j *Job) SetFailed(class string, attempts int, message string) {
	j.Status = StatusFailed
	if attempts > j.Attempts {
		j.Attempts = attempts
	}
	j.ErrorClass = class
	j.ErrorMessage = message
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Completed  int
	Failed     int
}
