package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/notesync/notesync/internal/errors"
)

func newTestVault(t *testing.T) *Vault {
	key, err := GenerateKey()
	require.NoError(t, err)
	vault, err := NewVault(key)
	require.NoError(t, err)
	return vault
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	vault := newTestVault(t)

	for _, plaintext := range []string{
		"a",
		"some-oauth-token-value",
		"token with spaces and unicode ☃",
		strings.Repeat("x", 4096),
	} {
		ct, err := vault.Encrypt(plaintext)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ct, "v1:"))
		assert.NotContains(t, ct, plaintext)

		got, err := vault.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptEmptyPlaintext(t *testing.T) {
	vault := newTestVault(t)

	ct, err := vault.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, ct)

	got, err := vault.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncryptNoncesDiffer(t *testing.T) {
	vault := newTestVault(t)

	ct1, err := vault.Encrypt("same-plaintext")
	require.NoError(t, err)
	ct2, err := vault.Encrypt("same-plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, ct1, ct2)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	vault := newTestVault(t)

	ct, err := vault.Encrypt("secret-token")
	require.NoError(t, err)

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ct, "v1:"))
	require.NoError(t, err)
	payload[len(payload)-1] ^= 0xff
	tampered := "v1:" + base64.StdEncoding.EncodeToString(payload)

	got, err := vault.Decrypt(tampered)
	require.Error(t, err)
	assert.True(t, apperrors.IsDecryption(err))
	assert.Empty(t, got)
}

func TestDecryptWrongKey(t *testing.T) {
	vault1 := newTestVault(t)
	vault2 := newTestVault(t)

	ct, err := vault1.Encrypt("secret-token")
	require.NoError(t, err)

	_, err = vault2.Decrypt(ct)
	require.Error(t, err)
	assert.True(t, apperrors.IsDecryption(err))
}

func TestDecryptMalformedCiphertext(t *testing.T) {
	vault := newTestVault(t)

	for _, ct := range []string{
		"not-an-envelope",
		"v2:AAAA",
		"v1:%%%not-base64%%%",
		"v1:" + base64.StdEncoding.EncodeToString([]byte("short")),
	} {
		_, err := vault.Decrypt(ct)
		require.Error(t, err, "ciphertext %q", ct)
		assert.True(t, apperrors.IsDecryption(err), "ciphertext %q", ct)
	}
}

func TestNewVaultRejectsBadKeys(t *testing.T) {
	_, err := NewVault("not base64!!!")
	assert.Error(t, err)

	_, err = NewVault(base64.StdEncoding.EncodeToString([]byte("too-short")))
	assert.Error(t, err)
}
