package db

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// SaveCredential upserts the encrypted credential bundle for a user.
// Token columns always hold vault ciphertext; the store never sees plaintext.
func (s *PostgresStore) SaveCredential(ctx context.Context, cred *models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (user_id, source_token, destination_token, container_id, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			source_token = EXCLUDED.source_token,
			destination_token = EXCLUDED.destination_token,
			container_id = EXCLUDED.container_id,
			updated_at = NOW()`,
		cred.UserID, cred.SourceToken, cred.DestinationToken, cred.ContainerID)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCredential(ctx context.Context, userID string) (*models.Credential, error) {
	var cred models.Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, source_token, destination_token, container_id, updated_at
		FROM credentials WHERE user_id = $1`, userID).Scan(
		&cred.UserID,
		&cred.SourceToken,
		&cred.DestinationToken,
		&cred.ContainerID,
		&cred.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewCredentialsMissingError(userID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return &cred, nil
}

func (s *PostgresStore) DeleteCredential(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("no credentials found for user %s", userID), nil)
	}

	return nil
}
