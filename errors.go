package cosmoq

import "errors"

var (
	// Configuration errors.
	ErrNilConfig       = errors.New("cosmoq: layout configuration is nil")
	ErrUnsupportedKind = errors.New("cosmoq: unsupported entity kind")

	// Not found errors.
	ErrJobNotFound    = errors.New("cosmoq: job not found")
	ErrServerNotFound = errors.New("cosmoq: server not found")
	ErrEntryNotFound  = errors.New("cosmoq: collection entry not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("cosmoq: job already exists")
	ErrLockHeld         = errors.New("cosmoq: lock already held")
	ErrLockNotHeld      = errors.New("cosmoq: lock not held")
)
