// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels shared by the auth, dialog, and social services. The
// excluded transport layer maps these to response codes.
var (
	// ErrUnauthenticated covers every credential failure (missing, malformed,
	// expired, revoked, inactive subject). Callers must not be able to tell
	// which case applied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the caller is authenticated but is not the owner
	// of the entity it tried to mutate.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates rejected input (moderation failure, malformed
	// request). Wrap it with the rejection reason.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates a temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")
)
