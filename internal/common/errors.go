package common

import "errors"

// Callers should use errors.Is to match these values.
var (
	// Repository-level errors.
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrPreconditionFailed = errors.New("no record matched the update precondition")

	// Payload errors.
	ErrSanitizationRejected = errors.New("unsafe payload")
	ErrMissingFields        = errors.New("missing fields")
	ErrValidationFailed     = errors.New("validation failed")

	// Cryptographic errors.
	ErrDecryptionFailed = errors.New("invalid ciphertext")

	// Session and account errors.
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenMismatch    = errors.New("token does not match identity")
	ErrAccountNotActive = errors.New("active admin not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrTooManyAttempts  = errors.New("too many attempts")

	// Service-level errors.
	ErrInternal = errors.New("internal error")
)
