package api

import "time"

// Job is the wire representation of one processing job.
type Job struct {
	ID           string    `json:"id"`
	SourcePath   string    `json:"source_path"`
	Folder       string    `json:"folder"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	ErrorClass   string    `json:"error_class,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobListResponse wraps the jobs listing endpoint payload.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job payload.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobCounts aggregates job totals per lifecycle state.
type JobCounts struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// DaemonStatus is the response of the status endpoint.
type DaemonStatus struct {
	Running      bool      `json:"running"`
	PID          int       `json:"pid"`
	Folders      int       `json:"folders"`
	InFlight     int       `json:"in_flight"`
	Jobs         JobCounts `json:"jobs"`
	JobDBPath    string    `json:"job_db_path"`
	LockFilePath string    `json:"lock_file_path"`
}

// HealthResponse is the response of the health endpoint.
type HealthResponse struct {
	Status string    `json:"status"`
	Jobs   JobCounts `json:"jobs"`
}

// Folder describes one monitored folder.
type Folder struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Enabled      bool   `json:"enabled"`
	Model        string `json:"model"`
	OutputFormat string `json:"output_format"`
	OutputDir    string `json:"output_dir"`
}

// FolderListResponse wraps the folders endpoint payload.
type FolderListResponse struct {
	Folders []Folder `json:"folders"`
}

// Result describes one persisted result file.
type Result struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ResultListResponse wraps the results endpoint payload.
type ResultListResponse struct {
	Results []Result `json:"results"`
}

// ProcessRequest asks the daemon to transform content immediately using a
// folder's prompts, without going through the watch pipeline.
type ProcessRequest struct {
	Folder   string `json:"folder"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content"`
}

// ProcessResponse reports the outcome of an immediate transform.
type ProcessResponse struct {
	JobID      string `json:"job_id"`
	OutputPath string `json:"output_path"`
	Attempts   int    `json:"attempts"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
