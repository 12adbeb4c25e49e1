package storage

import "errors"

// Common client storage errors
var (
	// ErrCredentialNotFound indicates that no access token is stored
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
