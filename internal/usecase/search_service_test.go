package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pricehunt/backend/internal/domain"
)

// fakeCache is an in-memory CacheRepository without expiry, for tests
type fakeCache struct {
	items  map[string]*domain.AggregationResult
	setErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*domain.AggregationResult)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*domain.AggregationResult, error) {
	result, ok := c.items[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return result, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value *domain.AggregationResult, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.items[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	delete(c.items, key)
	return nil
}

func newTestService(adapters []domain.SourceAdapter, cache domain.CacheRepository) *SearchService {
	trust := domain.NewTrustTable(map[string]float64{
		"megamart": 0.9,
		"shopium":  0.8,
		"dealz":    0.3,
	}, 0.5)
	return NewSearchService(cache, adapters, trust, SearchServiceConfig{
		AdapterTimeout: time.Second,
		MaxRetries:     0,
	})
}

func TestSearch(t *testing.T) {
	t.Run("rejects a query without a product name", func(t *testing.T) {
		service := newTestService(nil, newFakeCache())

		_, err := service.Search(context.Background(), domain.ProductQuery{Brand: "Apple"})

		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("error = %v, want ErrInvalidQuery", err)
		}
	})

	t.Run("no adapters yields an empty result, not an error", func(t *testing.T) {
		service := newTestService(nil, newFakeCache())

		result, err := service.Search(context.Background(), domain.ProductQuery{Name: "anything"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.QueryID == "" {
			t.Error("QueryID is empty")
		}
		if len(result.ExactMatches) != 0 || len(result.SimilarProducts) != 0 {
			t.Errorf("result has matches from zero sources: %+v", result)
		}
		if result.SourcesQueried != 0 || result.SourcesSucceeded != 0 {
			t.Errorf("stats = %d/%d, want 0/0", result.SourcesSucceeded, result.SourcesQueried)
		}
	})

	t.Run("aggregates, merges and classifies across sources", func(t *testing.T) {
		offerA := offerFrom("megamart", "https://megamart.example/p/1", "iPhone 15 Pro Max 256GB Space Black", 1199.99)
		offerA.Brand = "Apple"
		offerA.Category = "Electronics"
		offerB := offerFrom("shopium", "https://shopium.example/p/9", "iPhone 15 Pro Max 256GB", 1149.99)
		offerB.Brand = "Apple"
		offerB.Category = "Electronics"
		offerC := offerFrom("dealz", "https://dealz.example/p/7", "iPhone 15 Pro 128GB", 999.99)
		offerC.Brand = "Apple"
		offerC.Category = "Electronics"

		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{offerA}},
			&stubAdapter{name: "shopium", offers: []domain.RawOffer{offerB}},
			&stubAdapter{name: "dealz", offers: []domain.RawOffer{offerC}},
		}
		service := newTestService(adapters, newFakeCache())

		query := domain.ProductQuery{
			Name:     "iPhone 15 Pro Max 256GB",
			Brand:    "Apple",
			Category: "Electronics",
		}
		result, err := service.Search(context.Background(), query)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.ExactMatches) != 1 {
			t.Fatalf("len(ExactMatches) = %d, want 1", len(result.ExactMatches))
		}
		if len(result.SimilarProducts) != 1 {
			t.Fatalf("len(SimilarProducts) = %d, want 1", len(result.SimilarProducts))
		}

		exact := result.ExactMatches[0]
		if len(exact.Members) != 2 {
			t.Errorf("exact group has %d members, want the two 256GB listings merged", len(exact.Members))
		}
		if !exact.IsExactMatch {
			t.Error("exact group not flagged IsExactMatch")
		}
		if price, source := exact.EffectivePrice(); price != 1149.99 || source != "shopium" {
			t.Errorf("effective price = %v from %s, want 1149.99 from shopium", price, source)
		}

		similar := result.SimilarProducts[0]
		if similar.Representative().Title != "iPhone 15 Pro 128GB" {
			t.Errorf("similar representative = %q, want the 128GB model", similar.Representative().Title)
		}
		if similar.SimilarityScore >= exact.SimilarityScore {
			t.Errorf("similar score %v not below exact score %v", similar.SimilarityScore, exact.SimilarityScore)
		}

		if result.SourcesQueried != 3 || result.SourcesSucceeded != 3 {
			t.Errorf("stats = %d/%d, want 3/3", result.SourcesSucceeded, result.SourcesQueried)
		}
	})

	t.Run("failed sources are reported but do not fail the search", func(t *testing.T) {
		offer := offerFrom("healthy", "https://h/1", "Desk Lamp", 19.99)
		offer.Brand = "Lumina"
		offer.Category = "Home"
		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "healthy", offers: []domain.RawOffer{offer}},
			&stubAdapter{name: "broken", err: errors.New("http 503")},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.Search(context.Background(), domain.ProductQuery{Name: "Desk Lamp", Brand: "Lumina", Category: "Home"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.SourcesQueried != 2 || result.SourcesSucceeded != 1 {
			t.Errorf("stats = %d/%d, want 1/2", result.SourcesSucceeded, result.SourcesQueried)
		}
		if len(result.ExactMatches) != 1 {
			t.Errorf("len(ExactMatches) = %d, want 1 from the healthy source", len(result.ExactMatches))
		}
	})

	t.Run("contract-violating offers are dropped", func(t *testing.T) {
		negative := offerFrom("dealz", "https://d/1", "Desk Lamp", -5)
		noURL := offerFrom("dealz", "", "Desk Lamp", 9.99)
		noTitle := offerFrom("dealz", "https://d/3", "   ", 9.99)
		good := offerFrom("dealz", "https://d/4", "Desk Lamp", 19.99)

		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "dealz", offers: []domain.RawOffer{negative, noURL, noTitle, good}},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.Search(context.Background(), domain.ProductQuery{Name: "Desk Lamp"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.SimilarProducts) != 1 {
			t.Fatalf("len(SimilarProducts) = %d, want 1", len(result.SimilarProducts))
		}
		group := result.SimilarProducts[0]
		if len(group.Members) != 1 {
			t.Errorf("group members = %d, want only the valid offer", len(group.Members))
		}
		if group.Representative().URL != "https://d/4" {
			t.Errorf("kept offer = %s, want https://d/4", group.Representative().URL)
		}
	})

	t.Run("cache write failure is not fatal", func(t *testing.T) {
		cache := newFakeCache()
		cache.setErr = errors.New("cache unavailable")
		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{offerFrom("megamart", "https://m/1", "Desk Lamp", 19.99)}},
		}
		service := newTestService(adapters, cache)

		result, err := service.Search(context.Background(), domain.ProductQuery{Name: "Desk Lamp"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.SimilarProducts) != 1 {
			t.Errorf("len(SimilarProducts) = %d, want 1", len(result.SimilarProducts))
		}
	})

	t.Run("each search gets a distinct query ID", func(t *testing.T) {
		service := newTestService(nil, newFakeCache())

		first, _ := service.Search(context.Background(), domain.ProductQuery{Name: "anything"})
		second, _ := service.Search(context.Background(), domain.ProductQuery{Name: "anything"})

		if first.QueryID == second.QueryID {
			t.Errorf("query IDs collide: %s", first.QueryID)
		}
	})
}

func TestFindSimilar(t *testing.T) {
	t.Run("keeps near matches and drops unrelated products", func(t *testing.T) {
		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{
				offerFrom("megamart", "https://m/1", "Desk Lamp", 19.99),
				offerFrom("megamart", "https://m/2", "LED Desk Lamp with Stand", 34.99),
				offerFrom("megamart", "https://m/3", "Ceramic Mug", 9.99),
			}},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.FindSimilar(context.Background(), "Desk Lamp", "", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.TotalFound != 2 {
			t.Fatalf("TotalFound = %d, want 2 (the mug is unrelated)", result.TotalFound)
		}
		if len(result.SimilarProducts) != 2 {
			t.Fatalf("len(SimilarProducts) = %d, want 2", len(result.SimilarProducts))
		}
		for _, g := range result.SimilarProducts {
			if g.Representative().Title == "Ceramic Mug" {
				t.Error("unrelated product survived the browse threshold")
			}
		}
		if result.ProductName != "Desk Lamp" || result.QueryID == "" {
			t.Errorf("result metadata = %+v, want product name echoed and a query ID", result)
		}
	})

	t.Run("caps results at the limit but reports the full count", func(t *testing.T) {
		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{
				offerFrom("megamart", "https://m/1", "Red Desk Lamp", 30),
				offerFrom("megamart", "https://m/2", "Blue Desk Lamp", 20),
				offerFrom("megamart", "https://m/3", "Green Desk Lamp", 10),
			}},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.FindSimilar(context.Background(), "Desk Lamp", "", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.TotalFound != 3 {
			t.Errorf("TotalFound = %d, want 3", result.TotalFound)
		}
		if len(result.SimilarProducts) != 2 {
			t.Fatalf("len(SimilarProducts) = %d, want 2", len(result.SimilarProducts))
		}
		// The cap applies after the price ordering
		first, _ := result.SimilarProducts[0].EffectivePrice()
		second, _ := result.SimilarProducts[1].EffectivePrice()
		if first != 10 || second != 20 {
			t.Errorf("prices = %v, %v, want the two cheapest (10, 20)", first, second)
		}
	})

	t.Run("empty product name is ErrInvalidQuery", func(t *testing.T) {
		service := newTestService(nil, newFakeCache())

		_, err := service.FindSimilar(context.Background(), "  ", "", 0)
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("error = %v, want ErrInvalidQuery", err)
		}
	})
}

func TestBestDeals(t *testing.T) {
	t.Run("returns in-stock groups ordered by price", func(t *testing.T) {
		outOfStock := offerFrom("dealz", "https://d/1", "Floor Lamp", 5)
		outOfStock.Availability = domain.AvailabilityOutOfStock

		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{offerFrom("megamart", "https://m/1", "Desk Lamp", 25)}},
			&stubAdapter{name: "shopium", offers: []domain.RawOffer{offerFrom("shopium", "https://s/1", "Ceramic Mug", 15)}},
			&stubAdapter{name: "dealz", offers: []domain.RawOffer{outOfStock}},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.BestDeals(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.TotalDeals != 2 {
			t.Fatalf("TotalDeals = %d, want 2 (out-of-stock excluded)", result.TotalDeals)
		}
		first, _ := result.BestDeals[0].EffectivePrice()
		second, _ := result.BestDeals[1].EffectivePrice()
		if first != 15 || second != 25 {
			t.Errorf("prices = %v, %v, want ascending (15, 25)", first, second)
		}
	})

	t.Run("limited stock is not a deal", func(t *testing.T) {
		limited := offerFrom("megamart", "https://m/1", "Desk Lamp", 25)
		limited.Availability = domain.AvailabilityLimitedStock

		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{limited}},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.BestDeals(context.Background(), "", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TotalDeals != 0 {
			t.Errorf("TotalDeals = %d, want 0", result.TotalDeals)
		}
	})

	t.Run("caps the listing at the limit", func(t *testing.T) {
		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{
				offerFrom("megamart", "https://m/1", "Desk Lamp", 25),
				offerFrom("megamart", "https://m/2", "Ceramic Mug", 15),
			}},
		}
		service := newTestService(adapters, newFakeCache())

		result, err := service.BestDeals(context.Background(), "", 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TotalDeals != 1 || len(result.BestDeals) != 1 {
			t.Fatalf("result = %+v, want exactly one deal", result)
		}
		price, _ := result.BestDeals[0].EffectivePrice()
		if price != 15 {
			t.Errorf("kept deal price = %v, want the cheapest (15)", price)
		}
	})
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{"zero uses the fallback", 0, 10},
		{"negative uses the fallback", -3, 10},
		{"in range passes through", 25, 25},
		{"above the ceiling is clamped", 200, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampLimit(tt.limit, 10, 50); got != tt.expected {
				t.Errorf("clampLimit(%d) = %d, want %d", tt.limit, got, tt.expected)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	t.Run("returns a previously produced result", func(t *testing.T) {
		adapters := []domain.SourceAdapter{
			&stubAdapter{name: "megamart", offers: []domain.RawOffer{offerFrom("megamart", "https://m/1", "Desk Lamp", 19.99)}},
		}
		service := newTestService(adapters, newFakeCache())

		searched, err := service.Search(context.Background(), domain.ProductQuery{Name: "Desk Lamp"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		found, err := service.Lookup(context.Background(), searched.QueryID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if found.QueryID != searched.QueryID {
			t.Errorf("QueryID = %s, want %s", found.QueryID, searched.QueryID)
		}
		if len(found.SimilarProducts) != len(searched.SimilarProducts) {
			t.Errorf("looked-up result differs from the searched one")
		}
	})

	t.Run("unknown ID yields ErrResultNotFound", func(t *testing.T) {
		service := newTestService(nil, newFakeCache())

		_, err := service.Lookup(context.Background(), "no-such-id")

		if !errors.Is(err, domain.ErrResultNotFound) {
			t.Errorf("error = %v, want ErrResultNotFound", err)
		}
	})
}
