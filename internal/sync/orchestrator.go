package sync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notesync/notesync/internal/crypto"
	"github.com/notesync/notesync/internal/db"
	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// Orchestrator drives the fetch→transform→write pipeline for one job:
// load credentials, compute the note delta against stored watermarks, fan
// each note out to a bounded worker pool, and finalize the job record.
type Orchestrator struct {
	store          db.Store
	vault          *crypto.Vault
	newExtractor   ExtractorFactory
	newWriter      WriterFactory
	workers        int
	requestTimeout time.Duration
	logger         *logrus.Logger
}

// NewOrchestrator creates a sync orchestrator
func NewOrchestrator(
	store db.Store,
	vault *crypto.Vault,
	newExtractor ExtractorFactory,
	newWriter WriterFactory,
	workers int,
	requestTimeout time.Duration,
	logger *logrus.Logger,
) *Orchestrator {
	if workers <= 0 {
		workers = 4
	}
	if requestTimeout <= 0 {
		requestTimeout = 60 * time.Second
	}
	return &Orchestrator{
		store:          store,
		vault:          vault,
		newExtractor:   newExtractor,
		newWriter:      newWriter,
		workers:        workers,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// RunSync executes one job to a terminal state. Fatal errors (credentials,
// note-set fetch) fail the whole job; a single note's failure is isolated,
// logged and counted, and the job still completes.
func (o *Orchestrator) RunSync(ctx context.Context, job *models.SyncJob) {
	logger := o.logger.WithFields(logrus.Fields{
		"job_id":  job.JobID,
		"user_id": job.UserID,
		"mode":    job.Mode,
	})
	logger.Info("Starting sync job")

	// Credential record must exist before the job ever reaches running.
	cred, err := o.store.GetCredential(ctx, job.UserID)
	if err != nil {
		logger.WithError(err).Error("No usable credentials for user")
		o.failJob(ctx, job, "", err.Error())
		return
	}

	if err := o.store.MarkJobRunning(ctx, job.JobID); err != nil {
		logger.WithError(err).Error("Failed to mark job running")
		return
	}
	o.addLog(ctx, job.JobID, "", models.LogLevelInfo,
		fmt.Sprintf("Starting %s sync for user %s", job.Mode, job.UserID))

	creds, err := o.decryptCredentials(job.UserID, cred)
	if err != nil {
		logger.WithError(err).Error("Failed to decrypt credentials")
		o.failJob(ctx, job, "", err.Error())
		return
	}

	extractor := o.newExtractor(creds.SourceToken)
	fetchCtx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	notes, err := extractor.FetchNotes(fetchCtx, job.UserID)
	cancel()
	if err != nil {
		logger.WithError(err).Error("Failed to fetch note set")
		o.failJob(ctx, job, "", fmt.Sprintf("failed to fetch notes: %v", err))
		return
	}

	states, err := o.store.GetWatermarks(ctx, job.UserID)
	if err != nil {
		logger.WithError(err).Error("Failed to load sync state")
		o.failJob(ctx, job, "", fmt.Sprintf("failed to load sync state: %v", err))
		return
	}

	if job.Mode == models.SyncModeIncremental {
		notes = filterModified(notes, states)
	}

	if err := o.store.SetJobTotal(ctx, job.JobID, len(notes)); err != nil {
		logger.WithError(err).Error("Failed to set job total")
		o.failJob(ctx, job, "", fmt.Sprintf("failed to record note total: %v", err))
		return
	}
	o.addLog(ctx, job.JobID, "", models.LogLevelInfo,
		fmt.Sprintf("Fetched %d notes to process", len(notes)))

	writer := o.newWriter(creds.DestinationToken)

	var processed, failed int64
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.workers)

	for _, note := range notes {
		note := note
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if o.processNote(ctx, writer, job, note, states[note.ID], creds.ContainerID) {
				atomic.AddInt64(&processed, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
		}()
	}
	wg.Wait()

	summary := fmt.Sprintf("Sync completed: %d processed, %d failed",
		atomic.LoadInt64(&processed), atomic.LoadInt64(&failed))
	o.addLog(ctx, job.JobID, "", models.LogLevelInfo, summary)

	// Per-note failures do not fail the job; partial success is a
	// first-class outcome visible through the counters.
	if err := o.store.FinishJob(ctx, job.JobID, models.JobStatusCompleted, ""); err != nil {
		// Job stays running and inspectable; an operator abort is the
		// recovery path when the final status cannot be persisted.
		logger.WithError(err).Error("Failed to persist final job status")
		return
	}
	logger.WithFields(logrus.Fields{
		"processed": atomic.LoadInt64(&processed),
		"failed":    atomic.LoadInt64(&failed),
	}).Info("Sync job completed")
}

// processNote writes one note to the destination and records its linkage.
// Returns true on success. Failures never propagate past this boundary.
func (o *Orchestrator) processNote(
	ctx context.Context,
	writer WriterClient,
	job *models.SyncJob,
	note models.Note,
	state *models.SyncState,
	containerID string,
) bool {
	logger := o.logger.WithFields(logrus.Fields{
		"job_id":  job.JobID,
		"note_id": note.ID,
	})

	var existingPageID string
	if state != nil {
		existingPageID = state.PageID
	}

	callCtx, cancel := context.WithTimeout(ctx, o.requestTimeout)
	pageID, err := writer.WritePage(callCtx, containerID, note, existingPageID)
	cancel()
	if err != nil {
		logger.WithError(err).Error("Failed to write destination page")
		o.addLog(ctx, job.JobID, note.ID, models.LogLevelError,
			fmt.Sprintf("Failed to sync note %s: %v", note.ID, err))
		o.incrementProgress(ctx, job.JobID, 0, 1)
		return false
	}

	if err := o.store.UpsertState(ctx, &models.SyncState{
		UserID:           job.UserID,
		NoteID:           note.ID,
		PageID:           pageID,
		SourceModifiedAt: note.ModifiedAt,
	}); err != nil {
		// The page was written but the linkage was not. The next run
		// repeats the write as a create-or-update, so nothing is lost.
		logger.WithError(err).Error("Failed to upsert sync state")
		o.addLog(ctx, job.JobID, note.ID, models.LogLevelError,
			fmt.Sprintf("Failed to record sync state for note %s: %v", note.ID, err))
		o.incrementProgress(ctx, job.JobID, 0, 1)
		return false
	}

	o.addLog(ctx, job.JobID, note.ID, models.LogLevelInfo,
		fmt.Sprintf("Synced note %s to page %s", note.ID, pageID))
	o.incrementProgress(ctx, job.JobID, 1, 0)
	return true
}

func (o *Orchestrator) decryptCredentials(userID string, cred *models.Credential) (*models.DecryptedCredentials, error) {
	sourceToken, err := o.vault.Decrypt(cred.SourceToken)
	if err != nil {
		return nil, apperrors.NewCredentialsInvalidError(userID, err)
	}
	destinationToken, err := o.vault.Decrypt(cred.DestinationToken)
	if err != nil {
		return nil, apperrors.NewCredentialsInvalidError(userID, err)
	}
	return &models.DecryptedCredentials{
		SourceToken:      sourceToken,
		DestinationToken: destinationToken,
		ContainerID:      cred.ContainerID,
	}, nil
}

// filterModified keeps notes that are new or strictly newer than their
// stored watermark. Notes absent from the fetched set are left untouched;
// deletion propagation is not handled.
func filterModified(notes []models.Note, states map[string]*models.SyncState) []models.Note {
	filtered := make([]models.Note, 0, len(notes))
	for _, note := range notes {
		state, ok := states[note.ID]
		if !ok || note.ModifiedAt.After(state.SourceModifiedAt) {
			filtered = append(filtered, note)
		}
	}
	return filtered
}

// failJob transitions the job to failed with an error summary. Errors
// persisting the terminal state leave the job running for inspection.
func (o *Orchestrator) failJob(ctx context.Context, job *models.SyncJob, noteID, message string) {
	o.addLog(ctx, job.JobID, noteID, models.LogLevelError, message)
	if err := o.store.FinishJob(ctx, job.JobID, models.JobStatusFailed, message); err != nil {
		o.logger.WithFields(logrus.Fields{
			"job_id": job.JobID,
		}).WithError(err).Error("Failed to persist failed job status")
	}
}

func (o *Orchestrator) addLog(ctx context.Context, jobID, noteID string, level models.LogLevel, message string) {
	entry := &models.SyncLogEntry{
		JobID:   jobID,
		NoteID:  noteID,
		Level:   level,
		Message: message,
	}
	if err := o.store.AddLog(ctx, entry); err != nil {
		o.logger.WithField("job_id", jobID).WithError(err).Warn("Failed to append sync log entry")
	}
}

func (o *Orchestrator) incrementProgress(ctx context.Context, jobID string, processed, failed int) {
	if err := o.store.IncrementJobProgress(ctx, jobID, processed, failed); err != nil {
		o.logger.WithField("job_id", jobID).WithError(err).Warn("Failed to increment job progress")
	}
}
