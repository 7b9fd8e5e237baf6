package usecase

import (
	"sort"

	"github.com/pricehunt/backend/internal/domain"
)

// Default classification thresholds and result caps
const (
	defaultExactThreshold   = 0.85
	defaultSimilarThreshold = 0.5
	defaultMaxSimilar       = 10
)

// RankerConfig holds configuration for the classifier/ranker
type RankerConfig struct {
	// ExactThreshold is the similarity score at or above which a group is an exact match
	ExactThreshold float64
	// SimilarThreshold is the score at or above which a group is kept as similar
	SimilarThreshold float64
	// MaxSimilarProducts caps the similar bucket after ordering
	MaxSimilarProducts int
}

// Ranker classifies scored match groups into exact and similar buckets and
// orders each bucket deterministically. Groups scoring below the similar
// threshold are dropped entirely.
type Ranker struct {
	exactThreshold     float64
	similarThreshold   float64
	maxSimilarProducts int
	trust              *domain.TrustTable
}

// NewRanker creates a ranker with the given thresholds and trust table
func NewRanker(config RankerConfig, trust *domain.TrustTable) *Ranker {
	exact := config.ExactThreshold
	if exact <= 0 {
		exact = defaultExactThreshold
	}
	similar := config.SimilarThreshold
	if similar <= 0 {
		similar = defaultSimilarThreshold
	}
	maxSimilar := config.MaxSimilarProducts
	if maxSimilar <= 0 {
		maxSimilar = defaultMaxSimilar
	}

	return &Ranker{
		exactThreshold:     exact,
		similarThreshold:   similar,
		maxSimilarProducts: maxSimilar,
		trust:              trust,
	}
}

// Rank partitions groups into (exact, similar) and sorts each bucket by the
// composite key: ascending effective price, then descending similarity, then
// descending trust weight of the source providing the effective price. The
// sort is stable, so remaining ties keep group-creation order.
func (r *Ranker) Rank(groups []domain.MatchGroup) ([]domain.MatchGroup, []domain.MatchGroup) {
	var exact, similar []domain.MatchGroup

	for _, group := range groups {
		switch {
		case group.SimilarityScore >= r.exactThreshold:
			group.IsExactMatch = true
			exact = append(exact, group)
		case group.SimilarityScore >= r.similarThreshold:
			similar = append(similar, group)
		}
		// Below the similar threshold the group is noise, not a third bucket
	}

	r.sortBucket(exact)
	r.sortBucket(similar)

	if len(similar) > r.maxSimilarProducts {
		similar = similar[:r.maxSimilarProducts]
	}

	return exact, similar
}

// rankKey is the precomputed composite ordering key for one group
type rankKey struct {
	price float64
	score float64
	trust float64
}

func (r *Ranker) sortBucket(groups []domain.MatchGroup) {
	type keyedGroup struct {
		group domain.MatchGroup
		key   rankKey
	}

	keyed := make([]keyedGroup, len(groups))
	for i := range groups {
		price, source := groups[i].EffectivePrice()
		keyed[i] = keyedGroup{
			group: groups[i],
			key: rankKey{
				price: price,
				score: groups[i].SimilarityScore,
				trust: r.trust.Weight(source),
			},
		}
	}

	sort.SliceStable(keyed, func(i, j int) bool {
		a, b := keyed[i].key, keyed[j].key
		if a.price != b.price {
			return a.price < b.price
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.trust > b.trust
	})

	for i := range keyed {
		groups[i] = keyed[i].group
	}
}
