package memory

import "errors"

var (
	// ErrNotConfigured is returned when memory operations are attempted
	// but no memory driver has been configured.
	ErrNotConfigured = errors.New("memory not configured")

	// ErrStoreUnavailable is returned when the memory backend cannot be
	// reached or rejects a request.
	ErrStoreUnavailable = errors.New("memory store unavailable")
)
