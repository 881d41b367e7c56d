package sync

import (
	"context"

	"github.com/notesync/notesync/internal/models"
)

// ExtractionClient fetches the current note set for a user from the
// note-extraction collaborator.
type ExtractionClient interface {
	FetchNotes(ctx context.Context, userID string) ([]models.Note, error)
}

// WriterClient creates or updates the destination page for one note and
// returns the destination page id. Passing an existing page id makes the
// call an update; repeating it never produces a duplicate page.
type WriterClient interface {
	WritePage(ctx context.Context, containerID string, note models.Note, existingPageID string) (string, error)
}

// ExtractorFactory builds an extraction client bound to one user's
// decrypted source token. Tokens live only for the call chain of a job,
// so clients are constructed per job rather than at startup.
type ExtractorFactory func(sourceToken string) ExtractionClient

// WriterFactory builds a writer client bound to one user's decrypted
// destination token.
type WriterFactory func(destinationToken string) WriterClient
