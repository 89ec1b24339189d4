package signal

import (
	"time"
)

// Source identifies which adapter produced a signal.
type Source string

const (
	// SourceX is the primary signal source (X/Twitter search).
	SourceX Source = "x"

	// SourceReddit is the supplementary community forum source.
	SourceReddit Source = "reddit"
)

// Signal is one normalized mention from any external source. Every field is
// always present; adapters fill defaults at the boundary so consumers never
// need presence checks.
type Signal struct {
	Source        Source    `json:"source"`
	Text          string    `json:"text"`
	URL           string    `json:"url"`
	Engagement    int       `json:"engagement"`
	PainPoints    []string  `json:"pain_points"`
	BuyingSignals []string  `json:"buying_signals"`
	Relevance     float64   `json:"relevance_score"`
	CreatedAt     time.Time `json:"created_at"`
}

// Listing is one marketplace product found for a keyword.
type Listing struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	PriceCents  int     `json:"price_cents"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// TrendSnapshot holds search-interest data for a keyword. A zero-valued
// snapshot is a valid "no data" result, never an error.
type TrendSnapshot struct {
	Keyword        string    `json:"keyword"`
	InterestScore  int       `json:"interest_score"`
	RisingQueries  []string  `json:"rising_queries"`
	RelatedQueries []string  `json:"related_queries"`
	RelatedTopics  []string  `json:"related_topics"`
	SampleCount    int       `json:"sample_count"`
	Region         string    `json:"region"`
	Timeframe      string    `json:"timeframe"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// Empty reports whether the snapshot carries no interest data. Upstream
// returning an empty (non-error) result is how throttling shows up.
func (t TrendSnapshot) Empty() bool {
	return t.SampleCount == 0
}
