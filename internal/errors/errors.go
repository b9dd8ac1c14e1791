package errors

import (
	"errors"
)

// Common error types for the seller session service
var (
	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrNotFound           = errors.New("not found")

	// Session errors
	ErrMalformedRecord = errors.New("malformed session record")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
