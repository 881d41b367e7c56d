package models

import "time"

// LogLevel is the severity of a sync log entry
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// SyncLogEntry is one append-only diagnostic record for a job
type SyncLogEntry struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	NoteID    string    `json:"note_id,omitempty"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
