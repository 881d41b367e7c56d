package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// activeJobIndex is the partial unique index that enforces at most one
// queued/running job per user across all orchestrator replicas.
const activeJobIndex = "uq_sync_jobs_active_user"

// CreateJob inserts a new job row in queued state. The single-flight rule is
// a database constraint, not a check-then-act: a concurrent insert for the
// same user surfaces as a unique violation and is mapped to ALREADY_RUNNING.
func (s *PostgresStore) CreateJob(ctx context.Context, job *models.SyncJob) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sync_jobs (job_id, user_id, mode, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at`,
		job.JobID, job.UserID, job.Mode, job.Status,
	).Scan(&job.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == activeJobIndex {
			return apperrors.NewAlreadyRunningError(job.UserID)
		}
		return fmt.Errorf("failed to create sync job: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*models.SyncJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_id, user_id, mode, status, total_notes, processed_notes,
			failed_notes, error_message, created_at, completed_at
		FROM sync_jobs WHERE job_id = $1`, jobID)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("sync job not found: %s", jobID), err)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get sync job: %w", err)
	}

	return job, nil
}

// ListJobs returns jobs newest-first with optional user/status/date filters
func (s *PostgresStore) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.SyncJob, int64, error) {
	baseQuery := `
		SELECT job_id, user_id, mode, status, total_notes, processed_notes,
			failed_notes, error_message, created_at, completed_at
		FROM sync_jobs WHERE 1=1`

	args := []interface{}{}
	argCount := 0

	if filter.UserID != "" {
		argCount++
		baseQuery += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, filter.UserID)
	}

	if filter.Status != "" {
		argCount++
		baseQuery += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filter.Status)
	}

	if filter.Since != nil {
		argCount++
		baseQuery += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.Since)
	}

	if filter.Until != nil {
		argCount++
		baseQuery += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *filter.Until)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS count_query", baseQuery)
	var total int64
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sync jobs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	baseQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount+1, argCount+2)
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sync jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sync job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating sync job rows: %w", err)
	}

	return jobs, total, nil
}

// MarkJobRunning transitions a queued job to running
func (s *PostgresStore) MarkJobRunning(ctx context.Context, jobID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs SET status = $2
		WHERE job_id = $1 AND status = $3`,
		jobID, models.JobStatusRunning, models.JobStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewInvalidStateError(fmt.Sprintf("job %s is not queued", jobID))
	}

	return nil
}

func (s *PostgresStore) SetJobTotal(ctx context.Context, jobID string, total int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs SET total_notes = $2 WHERE job_id = $1`,
		jobID, total)
	if err != nil {
		return fmt.Errorf("failed to set job total: %w", err)
	}
	return nil
}

// IncrementJobProgress atomically bumps the progress counters. Increments
// happen in SQL rather than read-modify-write in memory because multiple
// note workers update the same row concurrently.
func (s *PostgresStore) IncrementJobProgress(ctx context.Context, jobID string, processed, failed int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET processed_notes = processed_notes + $2,
			failed_notes = failed_notes + $3
		WHERE job_id = $1 AND status = $4`,
		jobID, processed, failed, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to increment job progress: %w", err)
	}
	return nil
}

// FinishJob transitions a job to exactly one terminal state exactly once.
// A job that is already terminal is never mutated again.
func (s *PostgresStore) FinishJob(ctx context.Context, jobID string, status models.JobStatus, errorMessage string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sync_jobs
		SET status = $2, error_message = NULLIF($3, ''), completed_at = NOW()
		WHERE job_id = $1 AND status IN ($4, $5)`,
		jobID, status, errorMessage, models.JobStatusQueued, models.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewInvalidStateError(fmt.Sprintf("job %s is already terminal", jobID))
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.SyncJob, error) {
	var job models.SyncJob
	var errorMessage sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(
		&job.JobID,
		&job.UserID,
		&job.Mode,
		&job.Status,
		&job.TotalNotes,
		&job.ProcessedNotes,
		&job.FailedNotes,
		&errorMessage,
		&job.CreatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}

	if errorMessage.Valid {
		job.ErrorMessage = errorMessage.String
	}
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}
