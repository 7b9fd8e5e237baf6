package domain

import "errors"

var (
	// ErrInvalidQuery is returned when the product query is malformed (empty name)
	ErrInvalidQuery = errors.New("invalid product query")

	// ErrSourceTimeout is returned when a source adapter exceeds its per-attempt deadline
	ErrSourceTimeout = errors.New("source request timed out")

	// ErrSourceFailure is returned when a source adapter fails for any non-timeout reason
	ErrSourceFailure = errors.New("source request failed")

	// ErrResultNotFound is returned when a query ID has no cached result (unknown or expired)
	ErrResultNotFound = errors.New("search result not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
