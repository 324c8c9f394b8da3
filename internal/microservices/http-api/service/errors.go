package service

import "errors"

// Sentinel errors for the credential subsystem. Lookup failures on presented
// tokens are merged into ErrInvalidToken / ErrInvalidResetToken so callers
// cannot tell absent from expired.
var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
	ErrRevokedToken         = errors.New("token has been revoked")
	ErrTokenNotFound        = errors.New("token not found")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
	ErrTooManyResetRequests = errors.New("too many outstanding reset requests")
	ErrDeliveryFailed       = errors.New("could not deliver password reset email")
	ErrTokenGeneration      = errors.New("could not generate a unique token")
)
