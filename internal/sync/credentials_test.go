package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

func TestCredentialSaveEncryptsAtRest(t *testing.T) {
	store := newFakeStore()
	vault := newTestVault(t)
	svc := NewCredentialService(store, vault, testLogger())

	err := svc.Save(context.Background(), testUserID, models.CredentialInput{
		SourceToken:      testSourceToken,
		DestinationToken: testDestToken,
		ContainerID:      testContainerID,
	})
	require.NoError(t, err)

	cred, err := store.GetCredential(context.Background(), testUserID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(cred.SourceToken, "v1:"))
	assert.NotContains(t, cred.SourceToken, testSourceToken)
	assert.NotContains(t, cred.DestinationToken, testDestToken)
	assert.Equal(t, testContainerID, cred.ContainerID)

	// The stored ciphertext round-trips through the vault
	plain, err := vault.Decrypt(cred.SourceToken)
	require.NoError(t, err)
	assert.Equal(t, testSourceToken, plain)
}

func TestCredentialSaveValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewCredentialService(store, newTestVault(t), testLogger())

	for _, input := range []models.CredentialInput{
		{DestinationToken: testDestToken, ContainerID: testContainerID},
		{SourceToken: testSourceToken, ContainerID: testContainerID},
		{SourceToken: testSourceToken, DestinationToken: testDestToken},
	} {
		err := svc.Save(context.Background(), testUserID, input)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidInput(err))
	}

	err := svc.Save(context.Background(), "", models.CredentialInput{
		SourceToken:      testSourceToken,
		DestinationToken: testDestToken,
		ContainerID:      testContainerID,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
}

func TestCredentialGetMasksTokens(t *testing.T) {
	store := newFakeStore()
	vault := newTestVault(t)
	svc := NewCredentialService(store, vault, testLogger())
	saveTestCredentials(t, store, vault)

	info, err := svc.Get(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, testUserID, info.UserID)
	assert.Equal(t, testContainerID, info.ContainerID)
	assert.True(t, info.HasSourceToken)
	assert.True(t, info.HasDestinationToken)
}

func TestCredentialGetMissing(t *testing.T) {
	store := newFakeStore()
	svc := NewCredentialService(store, newTestVault(t), testLogger())

	_, err := svc.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCredentialDelete(t *testing.T) {
	store := newFakeStore()
	vault := newTestVault(t)
	svc := NewCredentialService(store, vault, testLogger())
	saveTestCredentials(t, store, vault)

	require.NoError(t, svc.Delete(context.Background(), testUserID))

	err := svc.Delete(context.Background(), testUserID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
