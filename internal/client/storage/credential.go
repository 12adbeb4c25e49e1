package storage

import (
	"context"
)

//go:generate moq -out credential_mock.go . CredentialStorage

// KeyAccessToken is the well-known key holding the current credential.
const KeyAccessToken = "access_token"

// ChangeEvent describes a mutation of the durable store.
// Deleted is true when the key was removed; Value is empty in that case.
type ChangeEvent struct {
	Key     string
	Value   string
	Deleted bool
}

// CredentialStorage defines interface for storing the bearer credential on client.
// One value exists per store; every consumer opened on the same store observes
// mutations made by the others through Watch.
type CredentialStorage interface {
	// SaveCredential stores the access token, replacing the previous one
	SaveCredential(ctx context.Context, token string) error

	// GetCredential returns the stored access token
	// Returns ErrCredentialNotFound if nothing is stored
	GetCredential(ctx context.Context) (string, error)

	// DeleteCredential removes the stored access token
	// Returns ErrCredentialNotFound if nothing is stored
	DeleteCredential(ctx context.Context) error

	// Watch registers fn to be called after every committed change.
	// The returned func unregisters it.
	Watch(fn func(ChangeEvent)) (cancel func())
}
