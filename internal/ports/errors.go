package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these sentinels so the
// core can branch on errors.Is without knowing the storage or transport.
var (
	// General errors
	ErrInvalidRequest  = errors.New("invalid request parameters")
	ErrNotFound        = errors.New("resource not found")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Persistence errors. A failed write after an in-memory mutation is
	// surfaced with ErrStorageUnavailable; the mutation is not rolled back.
	ErrStorageUnavailable = errors.New("durable storage unavailable")
	ErrCorruptState       = errors.New("persisted state is corrupt")

	// Feed errors
	ErrConnectionFailed = errors.New("failed to connect to the price feed")
	ErrFeedClosed       = errors.New("price feed closed unexpectedly")
)
