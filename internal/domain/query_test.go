package domain

import (
	"errors"
	"testing"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   ProductQuery
		wantErr bool
	}{
		{"name present", ProductQuery{Name: "desk lamp"}, false},
		{"all fields present", ProductQuery{Name: "desk lamp", Brand: "Lumina", Category: "Home"}, false},
		{"empty", ProductQuery{}, true},
		{"whitespace name", ProductQuery{Name: "   "}, true},
		{"brand without name", ProductQuery{Brand: "Lumina"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("Validate() = %v, want ErrInvalidQuery", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}
