package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notesync/notesync/internal/db"
	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// Supervisor is the entry point for job management: it creates job records,
// launches the orchestrator asynchronously, and exposes status polling,
// listing, retry and the operator escape hatches.
type Supervisor struct {
	store      db.Store
	orch       *Orchestrator
	jobTimeout time.Duration
	logger     *logrus.Logger
}

// NewSupervisor creates a job supervisor
func NewSupervisor(store db.Store, orch *Orchestrator, jobTimeout time.Duration, logger *logrus.Logger) *Supervisor {
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Minute
	}
	return &Supervisor{
		store:      store,
		orch:       orch,
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// CreateJob validates the request, inserts the queued job row and launches
// the sync in the background. The caller is never blocked on completion.
// An active job for the same user fails the insert with ALREADY_RUNNING.
func (s *Supervisor) CreateJob(ctx context.Context, userID string, mode models.SyncMode) (*models.SyncJob, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("user_id must not be empty", nil)
	}
	if !models.ValidMode(mode) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown sync mode %q", mode), nil)
	}

	job := &models.SyncJob{
		JobID:  uuid.NewString(),
		UserID: userID,
		Mode:   mode,
		Status: models.JobStatusQueued,
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"job_id":  job.JobID,
		"user_id": userID,
		"mode":    mode,
	}).Info("Sync job created")

	go s.runJob(job)

	return job, nil
}

// runJob executes the orchestrator detached from the request context.
// A panic is turned into a failed job rather than crashing the process.
func (s *Supervisor) runJob(job *models.SyncJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("job_id", job.JobID).Errorf("Sync job panicked: %v", r)
			if err := s.store.FinishJob(ctx, job.JobID, models.JobStatusFailed,
				fmt.Sprintf("internal error: %v", r)); err != nil {
				s.logger.WithField("job_id", job.JobID).WithError(err).Error("Failed to persist failed job status after panic")
			}
		}
	}()

	s.orch.RunSync(ctx, job)
}

// GetJob returns the job record for status polling
func (s *Supervisor) GetJob(ctx context.Context, jobID string) (*models.SyncJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid job id %q", jobID), err)
	}
	return s.store.GetJob(ctx, jobID)
}

// ListJobs returns jobs newest-first with optional filters and pagination
func (s *Supervisor) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.SyncJob, int64, error) {
	if filter.Status != "" {
		switch filter.Status {
		case models.JobStatusQueued, models.JobStatusRunning, models.JobStatusCompleted, models.JobStatusFailed:
		default:
			return nil, 0, apperrors.NewValidationError(fmt.Sprintf("unknown status %q", filter.Status), nil)
		}
	}
	return s.store.ListJobs(ctx, filter)
}

// RetryJob creates a new job with the same user and mode as a failed one.
// Only failed jobs may be retried.
func (s *Supervisor) RetryJob(ctx context.Context, jobID string) (*models.SyncJob, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status != models.JobStatusFailed {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("job %s is %s; only failed jobs can be retried", jobID, job.Status))
	}

	return s.CreateJob(ctx, job.UserID, job.Mode)
}

// AbortJob force-fails a non-terminal job. Best effort: in-flight worker
// calls are not interrupted, the status row is simply overridden.
func (s *Supervisor) AbortJob(ctx context.Context, jobID string) error {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return err
	}

	if err := s.store.FinishJob(ctx, jobID, models.JobStatusFailed, "aborted by operator"); err != nil {
		return err
	}

	s.logger.WithField("job_id", jobID).Warn("Sync job aborted by operator")
	return nil
}

// GetJobLogs returns the ordered diagnostic trail for a job
func (s *Supervisor) GetJobLogs(ctx context.Context, jobID string) ([]*models.SyncLogEntry, error) {
	if _, err := s.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListLogs(ctx, jobID)
}

// ResetUserState deletes every note↔page linkage for a user so the next
// full sync re-creates destination pages. Intentional operator escape
// hatch, not part of the normal sync flow.
func (s *Supervisor) ResetUserState(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, apperrors.NewValidationError("user_id must not be empty", nil)
	}

	deleted, err := s.store.DeleteAllState(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"deleted": deleted,
	}).Warn("Sync state reset by operator")

	return deleted, nil
}
