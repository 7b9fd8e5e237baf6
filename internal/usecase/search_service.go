package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricehunt/backend/internal/domain"
)

// Browse endpoint tunables: the similar-products browse accepts looser
// matches than the main search, and both listings cap caller-supplied limits.
const (
	similarBrowseThreshold = 0.3

	defaultSimilarLimit = 10
	maxSimilarLimit     = 50
	defaultDealsLimit   = 5
	maxDealsLimit       = 20
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	AdapterTimeout     time.Duration
	MaxRetries         int
	MergeThreshold     float64
	ExactThreshold     float64
	SimilarThreshold   float64
	MaxSimilarProducts int
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// SearchService runs the full offer aggregation pipeline:
// fetch -> validate -> deduplicate -> score -> rank, and caches the result
// under a query ID so it can be retrieved afterwards.
type SearchService struct {
	adapters     []domain.SourceAdapter
	cache        domain.CacheRepository
	orchestrator *FetchOrchestrator
	scorer       *SimilarityScorer
	dedup        *Deduplicator
	ranker       *Ranker
	cacheTTL     time.Duration
}

// NewSearchService creates a search service with dependencies
func NewSearchService(
	cache domain.CacheRepository,
	adapters []domain.SourceAdapter,
	trust *domain.TrustTable,
	config SearchServiceConfig,
) *SearchService {
	scorer := NewSimilarityScorer()

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 1 * time.Hour
	}

	return &SearchService{
		adapters: adapters,
		cache:    cache,
		orchestrator: NewFetchOrchestrator(OrchestratorConfig{
			AdapterTimeout:     config.AdapterTimeout,
			MaxRetries:         config.MaxRetries,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		scorer: scorer,
		dedup:  NewDeduplicator(config.MergeThreshold, scorer),
		ranker: NewRanker(RankerConfig{
			ExactThreshold:     config.ExactThreshold,
			SimilarThreshold:   config.SimilarThreshold,
			MaxSimilarProducts: config.MaxSimilarProducts,
		}, trust),
		cacheTTL: cacheTTL,
	}
}

// Search aggregates offers for a product query across all registered
// sources. Partial and empty results are normal outcomes; the only error a
// caller sees is ErrInvalidQuery.
func (s *SearchService) Search(ctx context.Context, query domain.ProductQuery) (*domain.AggregationResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	queryID := uuid.NewString()
	log.Printf("[SEARCH] %s: query %q across %d sources", queryID, query.Name, len(s.adapters))

	groups, stats := s.collectGroups(ctx, query)
	for i := range groups {
		score, err := s.scorer.Score(query, groups[i].Representative())
		if err != nil {
			// Query already validated; a scoring failure here is a bug
			return nil, err
		}
		groups[i].SimilarityScore = score
	}

	exact, similar := s.ranker.Rank(groups)

	result := &domain.AggregationResult{
		QueryID:          queryID,
		ExactMatches:     exact,
		SimilarProducts:  similar,
		SourcesQueried:   stats.SourcesQueried,
		SourcesSucceeded: stats.SourcesSucceeded,
		ElapsedSeconds:   time.Since(start).Seconds(),
	}

	if err := s.cache.Set(ctx, resultCacheKey(queryID), result, s.cacheTTL); err != nil {
		log.Printf("[SEARCH] %s: failed to cache result: %v", queryID, err)
	}

	log.Printf("[SEARCH] %s: %d exact, %d similar from %d/%d sources in %.2fs",
		queryID, len(exact), len(similar), stats.SourcesSucceeded, stats.SourcesQueried, result.ElapsedSeconds)

	return result, nil
}

// FindSimilar searches all sources for products resembling a product name.
// The match bar is the browse threshold on title similarity, far below the
// main search thresholds, so near matches surface. Results are ordered by the
// ranking keys and capped at limit (default 10, max 50); TotalFound reports
// the pre-cap count.
func (s *SearchService) FindSimilar(ctx context.Context, name, category string, limit int) (*domain.SimilarProductsResult, error) {
	query := domain.ProductQuery{Name: name, Category: category}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultSimilarLimit, maxSimilarLimit)

	start := time.Now()
	queryID := uuid.NewString()
	log.Printf("[SEARCH] %s: similar-products browse for %q across %d sources", queryID, name, len(s.adapters))

	groups, _ := s.collectGroups(ctx, query)

	var kept []domain.MatchGroup
	for i := range groups {
		sim := s.scorer.TitleSimilarity(name, groups[i].Representative().Title)
		if sim > similarBrowseThreshold {
			groups[i].SimilarityScore = sim
			kept = append(kept, groups[i])
		}
	}
	s.ranker.sortBucket(kept)

	total := len(kept)
	if len(kept) > limit {
		kept = kept[:limit]
	}

	return &domain.SimilarProductsResult{
		QueryID:         queryID,
		ProductName:     name,
		SimilarProducts: kept,
		TotalFound:      total,
		ElapsedSeconds:  time.Since(start).Seconds(),
	}, nil
}

// BestDeals aggregates a generic popular-products query, optionally narrowed
// by category, and returns the cheapest firmly in-stock groups, capped at
// limit (default 5, max 20).
func (s *SearchService) BestDeals(ctx context.Context, category string, limit int) (*domain.BestDealsResult, error) {
	limit = clampLimit(limit, defaultDealsLimit, maxDealsLimit)

	query := domain.ProductQuery{Name: "popular products", Category: category}
	groups, _ := s.collectGroups(ctx, query)

	var deals []domain.MatchGroup
	for _, group := range groups {
		if group.HasInStockMember() {
			deals = append(deals, group)
		}
	}
	s.ranker.sortBucket(deals)

	if len(deals) > limit {
		deals = deals[:limit]
	}

	return &domain.BestDealsResult{
		BestDeals:  deals,
		Category:   category,
		TotalDeals: len(deals),
	}, nil
}

// Lookup retrieves a previously produced result by query ID. Unknown or
// expired IDs yield ErrResultNotFound.
func (s *SearchService) Lookup(ctx context.Context, queryID string) (*domain.AggregationResult, error) {
	result, err := s.cache.Get(ctx, resultCacheKey(queryID))
	if err != nil {
		return nil, domain.ErrResultNotFound
	}
	return result, nil
}

// collectGroups runs the shared front half of every search flavor:
// fetch from all sources, drop contract-violating offers, deduplicate.
// Scoring is left to the caller, which knows what it is comparing against.
func (s *SearchService) collectGroups(ctx context.Context, query domain.ProductQuery) ([]domain.MatchGroup, domain.FetchStats) {
	offers, stats := s.orchestrator.Aggregate(ctx, query, s.adapters)
	return s.dedup.Group(validOffers(offers)), stats
}

func resultCacheKey(queryID string) string {
	return "search:" + queryID
}

// clampLimit normalizes a caller-supplied result cap
func clampLimit(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

// validOffers drops offers that violate the adapter contract (negative
// price, missing URL or title) without aborting the rest of the aggregation
func validOffers(offers []domain.RawOffer) []domain.RawOffer {
	valid := offers[:0]
	for _, offer := range offers {
		if offer.Price < 0 {
			log.Printf("[SEARCH] Dropping offer with negative price from %q: %s", offer.SourceName, offer.URL)
			continue
		}
		if strings.TrimSpace(offer.URL) == "" || strings.TrimSpace(offer.Title) == "" {
			log.Printf("[SEARCH] Dropping offer with missing url/title from %q", offer.SourceName)
			continue
		}
		valid = append(valid, offer)
	}
	return valid
}
