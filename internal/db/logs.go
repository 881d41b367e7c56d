package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/notesync/notesync/internal/models"
)

// AddLog appends one immutable diagnostic entry for a job
func (s *PostgresStore) AddLog(ctx context.Context, entry *models.SyncLogEntry) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sync_logs (job_id, note_id, level, message, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NOW())
		RETURNING id, created_at`,
		entry.JobID, entry.NoteID, entry.Level, entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add sync log: %w", err)
	}
	return nil
}

// ListLogs returns the log trail for a job ordered oldest-first
func (s *PostgresStore) ListLogs(ctx context.Context, jobID string) ([]*models.SyncLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, note_id, level, message, created_at
		FROM sync_logs WHERE job_id = $1
		ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.SyncLogEntry
	for rows.Next() {
		var entry models.SyncLogEntry
		var noteID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.JobID,
			&noteID,
			&entry.Level,
			&entry.Message,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync log row: %w", err)
		}
		if noteID.Valid {
			entry.NoteID = noteID.String
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log rows: %w", err)
	}

	return entries, nil
}
