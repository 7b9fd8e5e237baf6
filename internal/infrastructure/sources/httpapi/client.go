// Package httpapi implements a SourceAdapter for price sources exposing a
// JSON search API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricehunt/backend/internal/domain"
)

// Config holds the settings for one JSON API source
type Config struct {
	Name    string
	BaseURL string
	APIKey  string
	// RatePerSec limits outbound requests to the source; zero disables limiting
	RatePerSec float64
}

// Client queries one external price source over its JSON search API. Retry
// policy lives in the orchestrator; the client makes exactly one attempt per
// Fetch call.
type Client struct {
	name        string
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new JSON API source client
func NewClient(config Config) *Client {
	limit := rate.Inf
	if config.RatePerSec > 0 {
		limit = rate.Limit(config.RatePerSec)
	}

	return &Client{
		name: config.Name,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		apiKey:      config.APIKey,
		rateLimiter: rate.NewLimiter(limit, 5),
	}
}

// SetDebug enables request/response logging
func (c *Client) SetDebug(enabled bool) {
	c.debug = enabled
}

// Name returns the source name used in offers and trust lookups
func (c *Client) Name() string {
	return c.name
}

// searchResponse is the wire format of the source's search endpoint
type searchResponse struct {
	Offers []offerPayload `json:"offers"`
}

type offerPayload struct {
	Title        string  `json:"title"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	URL          string  `json:"url"`
	Availability string  `json:"availability"`
}

// Fetch queries the source for offers matching the product query. Zero
// results is a success with an empty slice; any transport or decode problem
// is a typed source failure.
func (c *Client) Fetch(ctx context.Context, query domain.ProductQuery) ([]domain.RawOffer, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrSourceFailure, err)
	}

	params := url.Values{}
	params.Add("q", searchTerms(query))
	if c.apiKey != "" {
		params.Add("api_key", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", domain.ErrSourceFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PriceHunt/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrSourceFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		if c.debug {
			log.Printf("[SOURCE] %s: status %d, body: %s", c.name, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceFailure, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrSourceFailure, err)
	}

	if c.debug {
		log.Printf("[SOURCE] %s: %d offers for %q", c.name, len(searchResp.Offers), query.Name)
	}

	return c.mapOffers(searchResp.Offers), nil
}

// mapOffers converts the wire payload into domain offers, normalizing the
// fields the source is sloppy about
func (c *Client) mapOffers(payloads []offerPayload) []domain.RawOffer {
	observedAt := time.Now()
	offers := make([]domain.RawOffer, 0, len(payloads))

	for _, p := range payloads {
		currency := strings.ToUpper(strings.TrimSpace(p.Currency))
		if currency == "" {
			currency = "USD"
		}

		offers = append(offers, domain.RawOffer{
			SourceName:   c.name,
			Title:        p.Title,
			Brand:        p.Brand,
			Category:     p.Category,
			Description:  p.Description,
			Price:        p.Price,
			Currency:     currency,
			URL:          p.URL,
			Availability: domain.ParseAvailability(p.Availability),
			ObservedAt:   observedAt,
		})
	}

	return offers
}

// searchTerms builds the source query string from the product query
func searchTerms(query domain.ProductQuery) string {
	terms := []string{query.Name}
	if query.Brand != "" && !strings.Contains(strings.ToLower(query.Name), strings.ToLower(query.Brand)) {
		terms = append(terms, query.Brand)
	}
	return strings.Join(terms, " ")
}
