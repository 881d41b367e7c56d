package models

import "time"

// JobStatus represents the lifecycle state of a sync job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// SyncMode selects how the note set for a job is determined
type SyncMode string

const (
	// SyncModeFull processes every note currently present at the source
	SyncModeFull SyncMode = "full"
	// SyncModeIncremental processes only notes modified after their stored watermark
	SyncModeIncremental SyncMode = "incremental"
)

// ValidMode reports whether m is one of the known sync modes
func ValidMode(m SyncMode) bool {
	return m == SyncModeFull || m == SyncModeIncremental
}

// SyncJob represents one sync execution attempt for a user
type SyncJob struct {
	JobID          string     `json:"job_id"`
	UserID         string     `json:"user_id"`
	Mode           SyncMode   `json:"mode"`
	Status         JobStatus  `json:"status"`
	TotalNotes     int        `json:"total_notes"`
	ProcessedNotes int        `json:"processed_notes"`
	FailedNotes    int        `json:"failed_notes"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job has reached a final state
func (j *SyncJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobFilter narrows and paginates job listings
type JobFilter struct {
	UserID string
	Status JobStatus
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}
