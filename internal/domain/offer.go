package domain

import (
	"strings"
	"time"
)

// Availability describes the stock state reported by a source
type Availability string

const (
	AvailabilityInStock      Availability = "in_stock"
	AvailabilityLimitedStock Availability = "limited_stock"
	AvailabilityOutOfStock   Availability = "out_of_stock"
	AvailabilityUnknown      Availability = "unknown"
)

// ParseAvailability maps a source-reported availability string to the enum.
// Anything unrecognized becomes AvailabilityUnknown rather than an error.
func ParseAvailability(s string) Availability {
	switch Availability(strings.ToLower(strings.TrimSpace(s))) {
	case AvailabilityInStock:
		return AvailabilityInStock
	case AvailabilityLimitedStock:
		return AvailabilityLimitedStock
	case AvailabilityOutOfStock:
		return AvailabilityOutOfStock
	default:
		return AvailabilityUnknown
	}
}

// RawOffer is a single listing as returned by one source adapter, before
// deduplication. URL is unique within one source's result set.
type RawOffer struct {
	SourceName   string       `json:"sourceName"`
	Title        string       `json:"title"`
	Brand        string       `json:"brand,omitempty"`
	Category     string       `json:"category,omitempty"`
	Description  string       `json:"description,omitempty"`
	Price        float64      `json:"price"`
	Currency     string       `json:"currency"`
	URL          string       `json:"url"`
	Availability Availability `json:"availability"`
	ObservedAt   time.Time    `json:"observedAt"`
}

// MatchGroup is the unit of ranking: one or more RawOffers judged to refer to
// the same physical product. Members keep insertion order; Members[0] is the
// representative whose descriptive text was used for scoring.
type MatchGroup struct {
	Members         []RawOffer `json:"members"`
	SimilarityScore float64    `json:"similarityScore"`
	IsExactMatch    bool       `json:"isExactMatch"`
}

// Representative returns the offer whose text represents the group
func (g *MatchGroup) Representative() RawOffer {
	return g.Members[0]
}

// EffectivePrice returns the lowest in-stock price in the group along with
// the source providing it. When no member is in stock, the lowest price of
// any availability is used instead.
func (g *MatchGroup) EffectivePrice() (float64, string) {
	minInStock, minInStockSource := -1.0, ""
	minAny, minAnySource := -1.0, ""

	for _, m := range g.Members {
		if minAny < 0 || m.Price < minAny {
			minAny = m.Price
			minAnySource = m.SourceName
		}
		if m.Availability != AvailabilityInStock && m.Availability != AvailabilityLimitedStock {
			continue
		}
		if minInStock < 0 || m.Price < minInStock {
			minInStock = m.Price
			minInStockSource = m.SourceName
		}
	}

	if minInStock >= 0 {
		return minInStock, minInStockSource
	}
	return minAny, minAnySource
}

// HasInStockMember reports whether any member is reported firmly in stock.
// Limited stock does not count; a deal that may be gone is not a deal.
func (g *MatchGroup) HasInStockMember() bool {
	for _, m := range g.Members {
		if m.Availability == AvailabilityInStock {
			return true
		}
	}
	return false
}

// FetchStats reports per-source outcomes of one aggregation pass
type FetchStats struct {
	SourcesQueried   int      `json:"sourcesQueried"`
	SourcesSucceeded int      `json:"sourcesSucceeded"`
	FailedSources    []string `json:"failedSources,omitempty"`
}

// AggregationResult is the engine's output. ExactMatches and SimilarProducts
// partition the produced groups with no overlap; both are ordered by the
// ranking keys. An all-sources-failed pass is a valid result with
// SourcesSucceeded == 0, not an error.
type AggregationResult struct {
	QueryID          string       `json:"queryId"`
	ExactMatches     []MatchGroup `json:"exactMatches"`
	SimilarProducts  []MatchGroup `json:"similarProducts"`
	SourcesQueried   int          `json:"sourcesQueried"`
	SourcesSucceeded int          `json:"sourcesSucceeded"`
	ElapsedSeconds   float64      `json:"elapsedSeconds"`
}

// SimilarProductsResult is the output of a similar-products browse: groups
// that cleared the browse threshold, ordered and capped. TotalFound counts
// matches before the cap.
type SimilarProductsResult struct {
	QueryID         string       `json:"queryId"`
	ProductName     string       `json:"productName"`
	SimilarProducts []MatchGroup `json:"similarProducts"`
	TotalFound      int          `json:"totalFound"`
	ElapsedSeconds  float64      `json:"elapsedSeconds"`
}

// BestDealsResult is the output of a best-deals listing: the cheapest
// in-stock groups across all sources.
type BestDealsResult struct {
	BestDeals  []MatchGroup `json:"bestDeals"`
	Category   string       `json:"category,omitempty"`
	TotalDeals int          `json:"totalDeals"`
}
