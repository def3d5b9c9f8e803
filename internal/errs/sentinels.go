// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across store/cache/transport layers.
var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLoading indicates the directory is still being seeded; mutations are refused.
	ErrLoading = errors.New("directory is loading")

	// ErrFetchFailed indicates the seed fetch failed; the directory stays empty.
	ErrFetchFailed = errors.New("failed to fetch users")

	// ErrCreateFailed indicates a create did not commit (persist or strict mirror failure).
	ErrCreateFailed = errors.New("failed to add user")

	// ErrUpdateFailed indicates an edit could not be persisted.
	ErrUpdateFailed = errors.New("failed to update user")

	// ErrDeleteFailed indicates a delete could not be persisted.
	ErrDeleteFailed = errors.New("failed to delete user")

	// ErrInvalidPage indicates a negative page index.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidPageSize indicates a page size outside the allowed set.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrCacheVersion indicates a persisted snapshot written by a newer schema.
	ErrCacheVersion = errors.New("unsupported cache version")

	// ErrCacheSealed indicates a sealed cache that cannot be opened with the configured passphrase.
	ErrCacheSealed = errors.New("cache is sealed")
)
