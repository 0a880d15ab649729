// Package common defines shared constants and sentinel errors used across
// the messenger components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal       = errors.New("internal error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrStorageFailure = errors.New("storage failure")

	// Validation errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// Crypto errors.
	ErrUnsupportedAlgorithm = errors.New("unsupported encryption algorithm")
	ErrEncryptionFailed     = errors.New("encryption failed")
	ErrDecryptionFailed     = errors.New("decryption failed")
	ErrKeyMaterialMissing   = errors.New("key material missing or malformed")
	ErrMessageTooLong       = errors.New("message too long for algorithm")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
