package models

import "time"

// SyncState links one source note to its destination page for a user.
// Unique per (user_id, note_id); the SourceModifiedAt watermark decides
// whether the note needs re-processing in incremental mode.
type SyncState struct {
	UserID           string    `json:"user_id"`
	NoteID           string    `json:"note_id"`
	PageID           string    `json:"page_id"`
	SourceModifiedAt time.Time `json:"source_modified_at"`
	LastSyncedAt     time.Time `json:"last_synced_at"`
}
