package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// fakeStore is an in-memory db.Store with the same transition rules as the
// Postgres implementation: conditional insert for single-flight, terminal
// states written exactly once, counters only bumped while running.
type fakeStore struct {
	mu     stdsync.Mutex
	jobs   map[string]*models.SyncJob
	states map[string]map[string]*models.SyncState
	creds  map[string]*models.Credential
	logs   []*models.SyncLogEntry
	nextID int64

	failFinish   bool
	failUpsertOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:   make(map[string]*models.SyncJob),
		states: make(map[string]map[string]*models.SyncState),
		creds:  make(map[string]*models.Credential),
	}
}

func (f *fakeStore) CreateJob(_ context.Context, job *models.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.jobs {
		if existing.UserID == job.UserID && !existing.IsTerminal() {
			return apperrors.NewAlreadyRunningError(job.UserID)
		}
	}
	job.CreatedAt = time.Now()
	copied := *job
	f.jobs[job.JobID] = &copied
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, jobID string) (*models.SyncJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sync job not found: %s", jobID), nil)
	}
	copied := *job
	return &copied, nil
}

func (f *fakeStore) ListJobs(_ context.Context, filter models.JobFilter) ([]*models.SyncJob, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var jobs []*models.SyncJob
	for _, job := range f.jobs {
		if filter.UserID != "" && job.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs, int64(len(jobs)), nil
}

func (f *fakeStore) MarkJobRunning(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok || job.Status != models.JobStatusQueued {
		return apperrors.NewInvalidStateError(fmt.Sprintf("job %s is not queued", jobID))
	}
	job.Status = models.JobStatusRunning
	return nil
}

func (f *fakeStore) SetJobTotal(_ context.Context, jobID string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[jobID]; ok {
		job.TotalNotes = total
	}
	return nil
}

func (f *fakeStore) IncrementJobProgress(_ context.Context, jobID string, processed, failed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job, ok := f.jobs[jobID]; ok && job.Status == models.JobStatusRunning {
		job.ProcessedNotes += processed
		job.FailedNotes += failed
	}
	return nil
}

func (f *fakeStore) FinishJob(_ context.Context, jobID string, status models.JobStatus, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFinish {
		return apperrors.NewInternalError("store unavailable", nil)
	}
	job, ok := f.jobs[jobID]
	if !ok || job.IsTerminal() {
		return apperrors.NewInvalidStateError(fmt.Sprintf("job %s is already terminal", jobID))
	}
	job.Status = status
	job.ErrorMessage = errorMessage
	now := time.Now()
	job.CompletedAt = &now
	return nil
}

func (f *fakeStore) GetWatermarks(_ context.Context, userID string) (map[string]*models.SyncState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	states := make(map[string]*models.SyncState)
	for noteID, state := range f.states[userID] {
		copied := *state
		states[noteID] = &copied
	}
	return states, nil
}

func (f *fakeStore) UpsertState(_ context.Context, state *models.SyncState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsertOn == state.NoteID {
		return apperrors.NewInternalError("store unavailable", nil)
	}
	if f.states[state.UserID] == nil {
		f.states[state.UserID] = make(map[string]*models.SyncState)
	}
	copied := *state
	copied.LastSyncedAt = time.Now()
	f.states[state.UserID][state.NoteID] = &copied
	return nil
}

func (f *fakeStore) DeleteAllState(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deleted := int64(len(f.states[userID]))
	delete(f.states, userID)
	return deleted, nil
}

func (f *fakeStore) SaveCredential(_ context.Context, cred *models.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *cred
	copied.UpdatedAt = time.Now()
	f.creds[cred.UserID] = &copied
	return nil
}

func (f *fakeStore) GetCredential(_ context.Context, userID string) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.creds[userID]
	if !ok {
		return nil, apperrors.NewCredentialsMissingError(userID)
	}
	copied := *cred
	return &copied, nil
}

func (f *fakeStore) DeleteCredential(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.creds[userID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("no credentials found for user %s", userID), nil)
	}
	delete(f.creds, userID)
	return nil
}

func (f *fakeStore) AddLog(_ context.Context, entry *models.SyncLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	copied := *entry
	copied.ID = f.nextID
	copied.CreatedAt = time.Now()
	f.logs = append(f.logs, &copied)
	return nil
}

func (f *fakeStore) ListLogs(_ context.Context, jobID string) ([]*models.SyncLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []*models.SyncLogEntry
	for _, entry := range f.logs {
		if entry.JobID == jobID {
			copied := *entry
			entries = append(entries, &copied)
		}
	}
	return entries, nil
}

func (f *fakeStore) stateFor(userID, noteID string) *models.SyncState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state, ok := f.states[userID][noteID]; ok {
		copied := *state
		return &copied
	}
	return nil
}

func (f *fakeStore) stateCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states[userID])
}

// fakeExtractor returns a fixed note set or error
type fakeExtractor struct {
	notes []models.Note
	err   error
}

func (f *fakeExtractor) FetchNotes(_ context.Context, _ string) ([]models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.notes, nil
}

// writeCall records one WritePage invocation
type writeCall struct {
	containerID    string
	noteID         string
	existingPageID string
}

// fakeWriter records calls and can fail specific note ids
type fakeWriter struct {
	mu        stdsync.Mutex
	calls     []writeCall
	failNotes map[string]error
}

func (f *fakeWriter) WritePage(_ context.Context, containerID string, note models.Note, existingPageID string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, writeCall{
		containerID:    containerID,
		noteID:         note.ID,
		existingPageID: existingPageID,
	})
	f.mu.Unlock()

	if err, ok := f.failNotes[note.ID]; ok {
		return "", err
	}
	if existingPageID != "" {
		return existingPageID, nil
	}
	return "page-" + note.ID, nil
}

func (f *fakeWriter) callsFor(noteID string) []writeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var calls []writeCall
	for _, call := range f.calls {
		if call.noteID == noteID {
			calls = append(calls, call)
		}
	}
	return calls
}
