package db

import (
	"context"
	"fmt"

	"github.com/notesync/notesync/internal/models"
)

// GetWatermarks loads the full sync-state map for a user, keyed by note id
func (s *PostgresStore) GetWatermarks(ctx context.Context, userID string) (map[string]*models.SyncState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, note_id, page_id, source_modified_at, last_synced_at
		FROM sync_state WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync state: %w", err)
	}
	defer rows.Close()

	states := make(map[string]*models.SyncState)
	for rows.Next() {
		var state models.SyncState
		if err := rows.Scan(
			&state.UserID,
			&state.NoteID,
			&state.PageID,
			&state.SourceModifiedAt,
			&state.LastSyncedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync state row: %w", err)
		}
		states[state.NoteID] = &state
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync state rows: %w", err)
	}

	return states, nil
}

// UpsertState writes the linkage row for one note as a single atomic
// insert-or-update on the (user_id, note_id) unique key.
func (s *PostgresStore) UpsertState(ctx context.Context, state *models.SyncState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (user_id, note_id, page_id, source_modified_at, last_synced_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, note_id) DO UPDATE SET
			page_id = EXCLUDED.page_id,
			source_modified_at = EXCLUDED.source_modified_at,
			last_synced_at = NOW()`,
		state.UserID, state.NoteID, state.PageID, state.SourceModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert sync state: %w", err)
	}
	return nil
}

// DeleteAllState removes every linkage row for a user. Operator reset path:
// the next full sync re-creates destination pages from scratch.
func (s *PostgresStore) DeleteAllState(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sync_state WHERE user_id = $1", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sync state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}
