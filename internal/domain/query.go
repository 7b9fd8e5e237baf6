package domain

import "strings"

// ProductQuery is the normalized product description produced by the
// recognition step. Name is the only required field; scoring degrades
// gracefully when the optional fields are absent.
type ProductQuery struct {
	Name          string `json:"name" binding:"required"`
	Brand         string `json:"brand,omitempty"`
	Category      string `json:"category,omitempty"`
	Description   string `json:"description,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// Validate checks the ProductQuery invariants
func (q *ProductQuery) Validate() error {
	if q == nil || strings.TrimSpace(q.Name) == "" {
		return ErrInvalidQuery
	}
	return nil
}
