// Package htmlstore implements a SourceAdapter for storefronts without an
// API, scraping offers out of their HTML search results page.
package htmlstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/pricehunt/backend/internal/domain"
)

// Config holds the settings for one scraped storefront
type Config struct {
	Name    string
	BaseURL string
}

// Client scrapes one storefront's search results page. Site-specific markup
// is limited to the listing conventions parsed here; anti-bot handling is
// out of scope.
type Client struct {
	name       string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new storefront scraping client
func NewClient(config Config) *Client {
	return &Client{
		name: config.Name,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(config.BaseURL, "/"),
	}
}

// Name returns the source name used in offers and trust lookups
func (c *Client) Name() string {
	return c.name
}

// Fetch downloads the storefront search page for the query and extracts the
// product listings from its markup
func (c *Client) Fetch(ctx context.Context, query domain.ProductQuery) ([]domain.RawOffer, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", domain.ErrSourceFailure, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSourceFailure, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing page: %v", domain.ErrSourceFailure, err)
	}

	return c.extractOffers(doc), nil
}

// extractOffers walks the document collecting one offer per node carrying a
// "product" class. Listings without a parseable price or link are skipped.
func (c *Client) extractOffers(doc *html.Node) []domain.RawOffer {
	observedAt := time.Now()
	var offers []domain.RawOffer

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "product") {
			if offer, ok := c.parseListing(n, observedAt); ok {
				offers = append(offers, offer)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return offers
}

// parseListing pulls title, link, price, and stock state out of one product node
func (c *Client) parseListing(n *html.Node, observedAt time.Time) (domain.RawOffer, bool) {
	anchor := findAnchor(n)
	if anchor == nil {
		return domain.RawOffer{}, false
	}

	title := strings.TrimSpace(nodeText(anchor))
	href := attrValue(anchor, "href")
	if title == "" || href == "" {
		return domain.RawOffer{}, false
	}

	price, ok := ExtractPrice(nodeText(findByClass(n, "price")))
	if !ok {
		return domain.RawOffer{}, false
	}

	availability := domain.AvailabilityUnknown
	if stock := findByClass(n, "stock"); stock != nil {
		availability = parseStockText(nodeText(stock))
	}

	return domain.RawOffer{
		SourceName:   c.name,
		Title:        title,
		Price:        price,
		Currency:     "USD",
		URL:          c.resolveURL(href),
		Availability: availability,
		ObservedAt:   observedAt,
	}, true
}

// parseStockText maps a storefront stock label to the availability enum
func parseStockText(text string) domain.Availability {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "out of stock"), strings.Contains(lower, "sold out"):
		return domain.AvailabilityOutOfStock
	case strings.Contains(lower, "limited"), strings.Contains(lower, "low stock"):
		return domain.AvailabilityLimitedStock
	case strings.Contains(lower, "in stock"), strings.Contains(lower, "available"):
		return domain.AvailabilityInStock
	default:
		return domain.AvailabilityUnknown
	}
}

// resolveURL makes relative listing links absolute against the storefront base
func (c *Client) resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}

// hasClass reports whether a node's class attribute contains the given class
func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(attrValue(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

// attrValue returns a node attribute's value, or ""
func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// findAnchor returns the first <a> element under n
func findAnchor(n *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if found != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == "a" {
			found = node
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return found
}

// findByClass returns the first element under n carrying the given class
func findByClass(n *html.Node, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if found != nil {
			return
		}
		if node != n && node.Type == html.ElementNode && hasClass(node, class) {
			found = node
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return found
}

// nodeText concatenates the text content under a node
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
