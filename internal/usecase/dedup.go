package usecase

import (
	"sort"

	"github.com/pricehunt/backend/internal/domain"
)

// defaultMergeThreshold is the title similarity above which two offers are
// considered the same physical listing
const defaultMergeThreshold = 0.85

// Deduplicator merges offers from different sources that describe the same
// physical product into MatchGroups. Grouping is deterministic: offers are
// put into canonical (sourceName, url) order before clustering, so the
// arrival order of concurrent source responses cannot change the output.
type Deduplicator struct {
	mergeThreshold float64
	scorer         *SimilarityScorer
}

// NewDeduplicator creates a deduplicator with the given merge threshold.
// A non-positive threshold selects the default.
func NewDeduplicator(mergeThreshold float64, scorer *SimilarityScorer) *Deduplicator {
	if mergeThreshold <= 0 {
		mergeThreshold = defaultMergeThreshold
	}
	return &Deduplicator{
		mergeThreshold: mergeThreshold,
		scorer:         scorer,
	}
}

// Group clusters offers greedily: each offer joins the existing group whose
// representative title it is most similar to, provided that similarity
// exceeds the merge threshold; otherwise it starts a new group. Ties go to
// the earliest group. Offers from a single source are merged like any other
// pair; a source emitting duplicate URLs violates the adapter contract, and
// merging the duplicates is the safe response.
func (d *Deduplicator) Group(offers []domain.RawOffer) []domain.MatchGroup {
	if len(offers) == 0 {
		return nil
	}

	canonical := make([]domain.RawOffer, len(offers))
	copy(canonical, offers)
	sort.Slice(canonical, func(i, j int) bool {
		if canonical[i].SourceName != canonical[j].SourceName {
			return canonical[i].SourceName < canonical[j].SourceName
		}
		return canonical[i].URL < canonical[j].URL
	})

	var groups []domain.MatchGroup
	for _, offer := range canonical {
		bestIdx := -1
		bestSim := 0.0

		for i := range groups {
			sim := d.scorer.TitleSimilarity(groups[i].Representative().Title, offer.Title)
			if sim > d.mergeThreshold && sim > bestSim {
				bestIdx = i
				bestSim = sim
			}
		}

		if bestIdx >= 0 {
			groups[bestIdx].Members = append(groups[bestIdx].Members, offer)
			continue
		}
		groups = append(groups, domain.MatchGroup{Members: []domain.RawOffer{offer}})
	}

	return groups
}
