package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

// GumroadConfig holds marketplace scout configuration.
type GumroadConfig struct {
	BaseURL   string
	UserAgent string
}

// GumroadScout scrapes Gumroad's public discover page for competing products.
// The discover page embeds its search results as a React-on-Rails component
// payload; a plain anchor scan is kept as a fallback for markup changes.
type GumroadScout struct {
	config     GumroadConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// discoverPayload mirrors the embedded Discover component JSON.
type discoverPayload struct {
	SearchResults struct {
		Products []discoverProduct `json:"products"`
	} `json:"search_results"`
}

type discoverProduct struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	Permalink  string `json:"permalink"`
	PriceCents int    `json:"price_cents"`
	Ratings    struct {
		Average float64 `json:"average"`
		Count   int     `json:"count"`
	} `json:"ratings"`
}

// NewGumroadScout creates a new Gumroad marketplace scout.
func NewGumroadScout(config GumroadConfig, logger *zap.Logger) *GumroadScout {
	if config.BaseURL == "" {
		config.BaseURL = "https://gumroad.com"
	}
	if config.UserAgent == "" {
		config.UserAgent = "prospector/1.0 (market-research)"
	}
	return &GumroadScout{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Listings fetches and parses marketplace products matching a keyword.
func (s *GumroadScout) Listings(ctx context.Context, keyword string, limit int) ([]signal.Listing, error) {
	if limit <= 0 {
		limit = 20
	}

	discoverURL := fmt.Sprintf("%s/discover?query=%s", s.config.BaseURL, url.QueryEscape(keyword))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoverURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discover page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gumroad returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse discover page: %w", err)
	}

	listings := s.parseComponentData(doc, limit)
	if len(listings) == 0 {
		listings = s.parseProductAnchors(doc, limit)
	}

	s.logger.Debug("gumroad listings fetched",
		zap.String("keyword", keyword),
		zap.Int("count", len(listings)),
	)
	return listings, nil
}

// parseComponentData extracts products from the embedded Discover component.
func (s *GumroadScout) parseComponentData(doc *goquery.Document, limit int) []signal.Listing {
	var listings []signal.Listing

	doc.Find(`script[data-component-name="Discover"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var payload discoverPayload
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			s.logger.Debug("failed to decode discover component", zap.Error(err))
			return true
		}

		for _, product := range payload.SearchResults.Products {
			if product.Name == "" {
				continue
			}
			productURL := product.URL
			if productURL == "" && product.Permalink != "" {
				productURL = s.config.BaseURL + "/l/" + product.Permalink
			}
			listings = append(listings, signal.Listing{
				Title:       product.Name,
				URL:         productURL,
				PriceCents:  product.PriceCents,
				Rating:      product.Ratings.Average,
				ReviewCount: product.Ratings.Count,
			})
			if len(listings) == limit {
				break
			}
		}
		return len(listings) < limit
	})

	return listings
}

// parseProductAnchors scans product links directly. Less reliable, but works
// when the component payload is missing.
func (s *GumroadScout) parseProductAnchors(doc *goquery.Document, limit int) []signal.Listing {
	var listings []signal.Listing
	seen := map[string]struct{}{}

	doc.Find(`a[href*="/l/"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if _, dup := seen[href]; dup {
			return true
		}

		title := strings.TrimSpace(sel.Text())
		if len(title) < 4 {
			return true
		}

		seen[href] = struct{}{}
		listings = append(listings, signal.Listing{
			Title: title,
			URL:   href,
		})
		return len(listings) < limit
	})

	return listings
}
