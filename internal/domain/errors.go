package domain

import "errors"

// Error kinds surfaced to the request layer. Wrap these with context via
// fmt.Errorf and %w; the HTTP boundary classifies with errors.Is.
var (
	// ErrNotFound marks a missing account or message.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized marks a credential failure: bad shared-secret token
	// or a stored secret that no longer decrypts under the active key.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation marks missing or out-of-range request parameters,
	// including an account with no usable credentials.
	ErrValidation = errors.New("invalid request")

	// ErrUpstream marks an unreachable mail server or a non-success
	// response from the provider API.
	ErrUpstream = errors.New("upstream unavailable")
)
