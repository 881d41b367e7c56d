package models

import "time"

// NoteImage is one image attachment on a note, already uploaded to object
// storage by the extraction service and addressable by URL.
type NoteImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Note is a single note as returned by the extraction service
type Note struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Body       string      `json:"body"`
	Labels     []string    `json:"labels"`
	CreatedAt  time.Time   `json:"created_at"`
	ModifiedAt time.Time   `json:"modified_at"`
	Images     []NoteImage `json:"images"`
}
