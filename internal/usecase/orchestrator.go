package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pricehunt/backend/internal/domain"
)

// Defaults for the fetch orchestrator
const (
	defaultAdapterTimeout = 10 * time.Second
	defaultMaxRetries     = 2
)

// OrchestratorConfig holds configuration for the fetch orchestrator
type OrchestratorConfig struct {
	// AdapterTimeout bounds a single fetch attempt against one source
	AdapterTimeout time.Duration
	// MaxRetries is the number of additional attempts after the first
	MaxRetries int
	// GlobalCeiling bounds the whole fan-out; zero means 2x AdapterTimeout
	GlobalCeiling time.Duration
	// EnableDebugLogging logs per-attempt outcomes
	EnableDebugLogging bool
}

// FetchOrchestrator runs all source adapters concurrently, tolerating
// per-source timeouts and failures. A single source exhausting its retries
// never aborts the overall request; the orchestrator returns whatever was
// collected when every adapter has resolved or the global ceiling elapses.
type FetchOrchestrator struct {
	adapterTimeout     time.Duration
	maxRetries         int
	globalCeiling      time.Duration
	enableDebugLogging bool
}

// NewFetchOrchestrator creates a new fetch orchestrator with the given configuration
func NewFetchOrchestrator(config OrchestratorConfig) *FetchOrchestrator {
	timeout := config.AdapterTimeout
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}

	retries := config.MaxRetries
	if retries < 0 {
		retries = defaultMaxRetries
	}

	ceiling := config.GlobalCeiling
	if ceiling <= 0 {
		ceiling = 2 * timeout
	}

	return &FetchOrchestrator{
		adapterTimeout:     timeout,
		maxRetries:         retries,
		globalCeiling:      ceiling,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// fetchOutcome is the fan-in unit: one adapter's final result
type fetchOutcome struct {
	sourceName string
	offers     []domain.RawOffer
	err        error
}

// Aggregate dispatches every adapter concurrently and collects partial
// results. All-sources-failed yields an empty offer slice and
// SourcesSucceeded == 0, never an error. Cancelling ctx propagates to every
// in-flight attempt and returns what was collected so far.
func (o *FetchOrchestrator) Aggregate(
	ctx context.Context,
	query domain.ProductQuery,
	adapters []domain.SourceAdapter,
) ([]domain.RawOffer, domain.FetchStats) {
	stats := domain.FetchStats{SourcesQueried: len(adapters)}
	if len(adapters) == 0 {
		return nil, stats
	}

	fetchCtx, cancel := context.WithTimeout(ctx, o.globalCeiling)
	defer cancel()

	// Buffered so late finishers never block after the collector gives up
	outcomes := make(chan fetchOutcome, len(adapters))
	for _, adapter := range adapters {
		go func(a domain.SourceAdapter) {
			offers, err := o.fetchWithRetry(fetchCtx, a, query)
			outcomes <- fetchOutcome{sourceName: a.Name(), offers: offers, err: err}
		}(adapter)
	}

	// Single-collector fan-in: no shared mutable state across goroutines
	var collected []domain.RawOffer
	resolved := make(map[string]bool, len(adapters))

collect:
	for i := 0; i < len(adapters); i++ {
		select {
		case outcome := <-outcomes:
			resolved[outcome.sourceName] = true
			if outcome.err != nil {
				log.Printf("[FETCH] Source %q failed: %v", outcome.sourceName, outcome.err)
				stats.FailedSources = append(stats.FailedSources, outcome.sourceName)
				continue
			}
			stats.SourcesSucceeded++
			collected = append(collected, outcome.offers...)
		case <-fetchCtx.Done():
			break collect
		}
	}

	// Sources still in flight when the ceiling elapsed count as failed
	for _, adapter := range adapters {
		if !resolved[adapter.Name()] {
			log.Printf("[FETCH] Source %q did not resolve before the global ceiling", adapter.Name())
			stats.FailedSources = append(stats.FailedSources, adapter.Name())
		}
	}

	return collected, stats
}

// fetchWithRetry runs one adapter with a per-attempt timeout and exponential
// backoff between attempts, giving up after maxRetries additional attempts
func (o *FetchOrchestrator) fetchWithRetry(
	ctx context.Context,
	adapter domain.SourceAdapter,
	query domain.ProductQuery,
) ([]domain.RawOffer, error) {
	var lastErr error

	for attempt := 1; attempt <= o.maxRetries+1; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, classifyFetchError(ctx.Err())
			case <-time.After(exponentialBackoff(attempt - 1)):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.adapterTimeout)
		offers, err := adapter.Fetch(attemptCtx, query)
		cancel()

		if err == nil {
			if o.enableDebugLogging {
				log.Printf("[FETCH] Source %q returned %d offers (attempt %d)", adapter.Name(), len(offers), attempt)
			}
			return stampSource(adapter.Name(), offers), nil
		}

		lastErr = classifyFetchError(err)
		if o.enableDebugLogging {
			log.Printf("[FETCH] Source %q attempt %d failed: %v", adapter.Name(), attempt, err)
		}

		// The parent deadline passing means retrying cannot help
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// classifyFetchError maps adapter errors onto the source error taxonomy
func classifyFetchError(err error) error {
	if errors.Is(err, domain.ErrSourceTimeout) || errors.Is(err, domain.ErrSourceFailure) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrSourceTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
}

// stampSource normalizes SourceName on every offer to the adapter that
// produced it, so a misbehaving adapter cannot impersonate another source
func stampSource(sourceName string, offers []domain.RawOffer) []domain.RawOffer {
	for i := range offers {
		offers[i].SourceName = sourceName
	}
	return offers
}

// exponentialBackoff returns the wait before retry n: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return 500 * time.Millisecond << (attempt - 1)
}
