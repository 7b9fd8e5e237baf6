// Package sources builds the configured set of SourceAdapters. New source
// kinds register here; the aggregation core never changes when a source is
// added or removed.
package sources

import (
	"fmt"

	"github.com/pricehunt/backend/internal/domain"
	"github.com/pricehunt/backend/internal/infrastructure/sources/htmlstore"
	"github.com/pricehunt/backend/internal/infrastructure/sources/httpapi"
)

// Adapter kinds accepted in configuration
const (
	KindAPI  = "api"
	KindHTML = "html"
)

// Config describes one configured price source
type Config struct {
	Name       string
	Kind       string
	BaseURL    string
	APIKey     string
	RatePerSec float64
}

// Build constructs the adapter for each source config. Unknown kinds and
// duplicate names are configuration errors, caught at startup rather than
// mid-request.
func Build(configs []Config) ([]domain.SourceAdapter, error) {
	adapters := make([]domain.SourceAdapter, 0, len(configs))
	seen := make(map[string]bool, len(configs))

	for _, cfg := range configs {
		if cfg.Name == "" || cfg.BaseURL == "" {
			return nil, fmt.Errorf("source config requires name and base_url (got name=%q)", cfg.Name)
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate source name: %s", cfg.Name)
		}
		seen[cfg.Name] = true

		switch cfg.Kind {
		case KindAPI:
			adapters = append(adapters, httpapi.NewClient(httpapi.Config{
				Name:       cfg.Name,
				BaseURL:    cfg.BaseURL,
				APIKey:     cfg.APIKey,
				RatePerSec: cfg.RatePerSec,
			}))
		case KindHTML:
			adapters = append(adapters, htmlstore.NewClient(htmlstore.Config{
				Name:    cfg.Name,
				BaseURL: cfg.BaseURL,
			}))
		default:
			return nil, fmt.Errorf("unknown source kind %q for source %s", cfg.Kind, cfg.Name)
		}
	}

	return adapters, nil
}
