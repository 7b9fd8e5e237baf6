package usecase

import (
	"regexp"
	"strings"

	"github.com/pricehunt/backend/internal/domain"
)

// Sub-score weights for the similarity blend. They sum to 1 so the final
// score stays in [0,1].
const (
	weightTitle       = 0.50
	weightBrand       = 0.25
	weightCategory    = 0.15
	weightDescription = 0.10

	// neutralSubScore is used when a field is absent on either side;
	// absence is never scored as a match or a mismatch.
	neutralSubScore = 0.5
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^\w\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)

	// sizePatternRegex matches size/pack patterns that add retail noise to
	// listing titles ("2 pack", "24 ct", "16.9 fl oz")
	sizePatternRegex = regexp.MustCompile(
		`(?i)\b\d+\.?\d*\s*(?:fl\s*oz|oz|ml|liters?|lbs?|pounds?|ct|count|pk|pack|ea|each)\b`,
	)
)

// SimilarityScorer compares candidate offers against a product query. It is
// pure and deterministic: no I/O, no mutable state.
type SimilarityScorer struct{}

// NewSimilarityScorer creates a new similarity scorer
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Score computes the weighted similarity of a candidate offer to the query.
// Returns a value in [0,1]. Fails with ErrInvalidQuery when the query name is
// empty; callers are expected to validate upstream.
func (s *SimilarityScorer) Score(query domain.ProductQuery, candidate domain.RawOffer) (float64, error) {
	if query.Name == "" {
		return 0, domain.ErrInvalidQuery
	}

	queryText := query.Name
	if query.ExtractedText != "" {
		queryText += " " + query.ExtractedText
	}

	// Descriptions are scored by their own sub-score only; mixing them into
	// the title comparison would skew it whenever one side is wordier.
	titleScore := tokenSimilarity(queryText, candidate.Title)
	brandScore := exactFieldSubScore(query.Brand, candidate.Brand)
	categoryScore := exactFieldSubScore(query.Category, candidate.Category)

	descriptionScore := neutralSubScore
	if query.Description != "" && candidate.Description != "" {
		descriptionScore = tokenSimilarity(query.Description, candidate.Description)
	}

	score := titleScore*weightTitle +
		brandScore*weightBrand +
		categoryScore*weightCategory +
		descriptionScore*weightDescription

	return score, nil
}

// TitleSimilarity exposes the bag-of-words similarity used for title
// comparison, shared with the deduplicator so grouping and scoring agree on
// what "the same text" means.
func (s *SimilarityScorer) TitleSimilarity(a, b string) float64 {
	return tokenSimilarity(a, b)
}

// exactFieldSubScore scores optional exact-match fields (brand, category):
// 1.0 if both present and case-insensitively equal, 0.0 if both present and
// unequal, neutral if either side is absent.
func exactFieldSubScore(queryValue, candidateValue string) float64 {
	if queryValue == "" || candidateValue == "" {
		return neutralSubScore
	}
	if strings.EqualFold(strings.TrimSpace(queryValue), strings.TrimSpace(candidateValue)) {
		return 1.0
	}
	return 0.0
}

// tokenSimilarity is a symmetric bag-of-words similarity over the token sets
// of two strings: the mean of Jaccard similarity and the overlap coefficient.
// A title that only appends a variant token scores high; a short title that
// is a strict subset of a much longer one does not score 1.0.
func tokenSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}

	jaccard := float64(intersection) / float64(union)
	overlap := float64(intersection) / float64(smaller)

	return (jaccard + overlap) / 2
}

// tokenSet tokenizes a string into a set of normalized lowercase tokens.
// Retail size/pack noise is stripped first so "iPhone 15 128GB, 2 Pack" and
// "iPhone 15 128GB" tokenize identically.
func tokenSet(s string) map[string]bool {
	cleaned := sizePatternRegex.ReplaceAllString(s, " ")
	cleaned = punctuationRegex.ReplaceAllString(strings.ToLower(cleaned), " ")
	cleaned = multipleSpacesRegex.ReplaceAllString(cleaned, " ")

	set := make(map[string]bool)
	for _, token := range strings.Fields(cleaned) {
		set[token] = true
	}
	return set
}
