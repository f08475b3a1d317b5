package domain

import "errors"

var (
	// ErrEmptyQuery signals a query that is empty after trimming.
	ErrEmptyQuery = errors.New("query must not be empty")
	// ErrQueryTooLong signals a query exceeding the maximum length.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidSearchType signals an unknown search type value.
	ErrInvalidSearchType = errors.New("invalid search type")
	// ErrInvalidLimit signals a limit outside the accepted range.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrEmbedding signals an embedding model or provider failure.
	// Fatal for semantic mode; hybrid degrades to keyword-only.
	ErrEmbedding = errors.New("embedding failure")
	// ErrIndexUnavailable signals that the index store is unreachable
	// or a query against it failed.
	ErrIndexUnavailable = errors.New("index store unavailable")
)
