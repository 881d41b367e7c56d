package models

import "time"

// Credential is the persisted per-user secret bundle. Token fields hold
// vault ciphertext, never plaintext.
type Credential struct {
	UserID           string    `json:"user_id"`
	SourceToken      string    `json:"-"`
	DestinationToken string    `json:"-"`
	ContainerID      string    `json:"container_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CredentialInput carries plaintext tokens from the admin API to the
// credential service. It is never persisted as-is.
type CredentialInput struct {
	SourceToken      string `json:"source_token"`
	DestinationToken string `json:"destination_token"`
	ContainerID      string `json:"container_id"`
}

// DecryptedCredentials holds token plaintext for the duration of a single
// orchestrator call chain.
type DecryptedCredentials struct {
	SourceToken      string
	DestinationToken string
	ContainerID      string
}

// CredentialInfo is the masked view exposed by the admin API.
type CredentialInfo struct {
	UserID              string    `json:"user_id"`
	ContainerID         string    `json:"container_id"`
	HasSourceToken      bool      `json:"has_source_token"`
	HasDestinationToken bool      `json:"has_destination_token"`
	UpdatedAt           time.Time `json:"updated_at"`
}
