package sync

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/notesync/notesync/internal/crypto"
	"github.com/notesync/notesync/internal/db"
	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// CredentialService handles the administrative credential surface: plaintext
// tokens in, vault ciphertext at rest, masked info out. The orchestrator
// only ever reads credentials; all writes go through here.
type CredentialService struct {
	store  db.Store
	vault  *crypto.Vault
	logger *logrus.Logger
}

// NewCredentialService creates a credential service
func NewCredentialService(store db.Store, vault *crypto.Vault, logger *logrus.Logger) *CredentialService {
	return &CredentialService{
		store:  store,
		vault:  vault,
		logger: logger,
	}
}

// Save encrypts and upserts a user's credential bundle
func (c *CredentialService) Save(ctx context.Context, userID string, input models.CredentialInput) error {
	if userID == "" {
		return apperrors.NewValidationError("user_id must not be empty", nil)
	}
	if input.SourceToken == "" || input.DestinationToken == "" {
		return apperrors.NewValidationError("source_token and destination_token must not be empty", nil)
	}
	if input.ContainerID == "" {
		return apperrors.NewValidationError("container_id must not be empty", nil)
	}

	sourceCT, err := c.vault.Encrypt(input.SourceToken)
	if err != nil {
		return apperrors.NewInternalError("failed to encrypt source token", err)
	}
	destCT, err := c.vault.Encrypt(input.DestinationToken)
	if err != nil {
		return apperrors.NewInternalError("failed to encrypt destination token", err)
	}

	if err := c.store.SaveCredential(ctx, &models.Credential{
		UserID:           userID,
		SourceToken:      sourceCT,
		DestinationToken: destCT,
		ContainerID:      input.ContainerID,
	}); err != nil {
		return err
	}

	c.logger.WithField("user_id", userID).Info("Credentials saved")
	return nil
}

// Get returns the masked credential view. Token material never leaves the
// store through this path.
func (c *CredentialService) Get(ctx context.Context, userID string) (*models.CredentialInfo, error) {
	cred, err := c.store.GetCredential(ctx, userID)
	if err != nil {
		if apperrors.IsCredentialsMissing(err) {
			return nil, apperrors.NewNotFoundError("no credentials found for user "+userID, err)
		}
		return nil, err
	}

	return &models.CredentialInfo{
		UserID:              cred.UserID,
		ContainerID:         cred.ContainerID,
		HasSourceToken:      cred.SourceToken != "",
		HasDestinationToken: cred.DestinationToken != "",
		UpdatedAt:           cred.UpdatedAt,
	}, nil
}

// Delete removes a user's credential bundle
func (c *CredentialService) Delete(ctx context.Context, userID string) error {
	if err := c.store.DeleteCredential(ctx, userID); err != nil {
		return err
	}
	c.logger.WithField("user_id", userID).Warn("Credentials deleted")
	return nil
}
