package domain

import (
	"context"
	"time"
)

// SourceAdapter is the pluggable contract for one external price source.
// Fetch must honor ctx cancellation and return promptly when the deadline
// passes. "No results" is a nil error with an empty slice; any failure
// (network, malformed response, rate limiting) is surfaced as an error so
// the orchestrator can tell "source has nothing" from "source is broken".
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, query ProductQuery) ([]RawOffer, error)
}

// CacheRepository defines the interface for caching aggregation results
type CacheRepository interface {
	Get(ctx context.Context, key string) (*AggregationResult, error)
	Set(ctx context.Context, key string, value *AggregationResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
