package domain

// TrustTable is the static per-source reliability table. It is loaded once at
// startup from configuration and read-only afterwards; unknown sources fall
// back to the default weight rather than being rejected.
type TrustTable struct {
	weights       map[string]float64
	defaultWeight float64
}

// NewTrustTable builds a trust table from a source->weight map and a default
// weight for sources not in the map. Weights outside [0,1] are clamped.
func NewTrustTable(weights map[string]float64, defaultWeight float64) *TrustTable {
	t := &TrustTable{
		weights:       make(map[string]float64, len(weights)),
		defaultWeight: clampWeight(defaultWeight),
	}
	for source, w := range weights {
		t.weights[source] = clampWeight(w)
	}
	return t
}

// Weight returns the trust weight for a source, or the default weight when
// the source is not in the table.
func (t *TrustTable) Weight(sourceName string) float64 {
	if w, ok := t.weights[sourceName]; ok {
		return w
	}
	return t.defaultWeight
}

func clampWeight(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}
