package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/notesync/notesync/internal/errors"
)

// envelopeVersion prefixes every ciphertext so the token format can evolve
// without guessing at decrypt time.
const envelopeVersion = "v1"

// Vault encrypts and decrypts per-user secrets with XChaCha20-Poly1305,
// keyed by a single process-wide key loaded at startup. Key rotation is an
// offline re-encrypt; there is no dual-key support.
type Vault struct {
	aead cipher.AEAD
}

// NewVault builds a vault from a base64-encoded 32-byte key.
func NewVault(keyB64 string) (*Vault, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key encoding: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// GenerateKey returns a new random base64-encoded vault key.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext into a versioned envelope: "v1:" + base64(nonce||ct).
// Empty plaintext maps to an empty ciphertext.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return envelopeVersion + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed, tampered or wrong-key ciphertext
// yields a DECRYPTION_ERROR and never partial plaintext.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	version, payload, found := strings.Cut(ciphertext, ":")
	if !found {
		return "", errors.NewDecryptionError("ciphertext has no version prefix", nil)
	}
	if version != envelopeVersion {
		return "", errors.NewDecryptionError(fmt.Sprintf("unsupported envelope version %q", version), nil)
	}
	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", errors.NewDecryptionError("ciphertext is not valid base64", err)
	}
	if len(sealed) < v.aead.NonceSize() {
		return "", errors.NewDecryptionError("ciphertext shorter than nonce", nil)
	}
	nonce, ct := sealed[:v.aead.NonceSize()], sealed[v.aead.NonceSize():]
	plaintext, err := v.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errors.NewDecryptionError("authentication failed", err)
	}
	return string(plaintext), nil
}
