package services

import "errors"

// Sentinel errors shared by the service layer. Handlers translate these
// into HTTP statuses; anything else is an internal error.
var (
	// ErrNotFound: the referenced entity does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConflict: a unique relationship (follow, block, report, reaction)
	// already exists.
	ErrConflict = errors.New("already exists")

	// ErrValidation: rejected before any store mutation.
	ErrValidation = errors.New("invalid input")

	// ErrNoMorePages: the requested page is past the end of the result set.
	// Not a failure; handlers answer with the no-more-pages sentinel so
	// clients can tell it apart from an empty result.
	ErrNoMorePages = errors.New("no more pages")
)
