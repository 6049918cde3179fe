package domain

import "errors"

// Sentinel outcomes shared between the list-storage adapter and the core.
// The repository wraps provider-specific failures into these so the
// conversation layer can branch without knowing the backend.
var (
	// ErrDuplicateItem indicates the link is already on the list.
	ErrDuplicateItem = errors.New("item already listed")
	// ErrUnauthorized indicates the storage backend rejected our credentials.
	ErrUnauthorized = errors.New("not authorized to write to the list")
)
