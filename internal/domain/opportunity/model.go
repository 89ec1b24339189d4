package opportunity

import (
	"time"
)

// ProductType classifies what kind of digital product an opportunity suggests.
type ProductType string

const (
	ProductPromptPack   ProductType = "prompt_pack"
	ProductGuide        ProductType = "guide"
	ProductTemplatePack ProductType = "template_pack"
	ProductChecklist    ProductType = "checklist"
	ProductRoadmap      ProductType = "roadmap"
)

// Confidence expresses how much evidence backs an opportunity score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// CompetitionLevel classifies how contested a keyword's marketplace is.
type CompetitionLevel string

const (
	CompetitionNone       CompetitionLevel = "none"
	CompetitionLowQuality CompetitionLevel = "low_quality"
	CompetitionSaturated  CompetitionLevel = "saturated"
	CompetitionHigh       CompetitionLevel = "high"
	CompetitionValidated  CompetitionLevel = "validated"
	CompetitionUnknown    CompetitionLevel = "unknown"
)

// CompetitionSummary is the result of analyzing marketplace listings for a
// keyword. Penalty is a deterministic function of product count and average
// rating; AvgRating is nil when no listing has an actual review.
type CompetitionSummary struct {
	Keyword        string           `json:"keyword"`
	ProductCount   int              `json:"product_count"`
	AvgRating      *float64         `json:"avg_rating"`
	Level          CompetitionLevel `json:"competition_level"`
	Penalty        int              `json:"competition_penalty"`
	PriceRangeLow  int              `json:"price_range_low_cents"`
	PriceRangeHigh int              `json:"price_range_high_cents"`
	AvgPriceCents  int              `json:"avg_price_cents"`
	TotalReviews   int              `json:"total_reviews"`
	ScrapedAt      time.Time        `json:"scraped_at"`
}

// ScoredOpportunity is a scored, titled candidate product idea derived from
// pooled signals for one topic. It is never mutated after creation; the
// opportunity score is always the clamped sum of its three sub-scores.
type ScoredOpportunity struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	TargetAudience string      `json:"target_audience"`
	ProductType    ProductType `json:"product_type"`

	OpportunityScore   float64    `json:"opportunity_score"`
	DemandScore        float64    `json:"demand_score"`
	IntentScore        float64    `json:"intent_score"`
	CompetitionPenalty int        `json:"competition_penalty"`
	Confidence         Confidence `json:"confidence"`

	PrimaryKeyword      string `json:"primary_keyword"`
	SuggestedPriceCents int    `json:"suggested_price_cents"`

	XMentions      int `json:"x_mentions"`
	RedditMentions int `json:"reddit_mentions"`
	TrendScore     int `json:"trend_score"`

	EvidenceURLs     []string  `json:"evidence_urls"`
	TopPainPoints    []string  `json:"top_pain_points"`
	TopBuyingSignals []string  `json:"top_buying_signals"`
	CreatedAt        time.Time `json:"created_at"`
}

// DiscoveryResult is the outcome of one discovery run. Success is true when at
// least one opportunity survived filtering or no source errored; a quiet
// zero-result run with every source unavailable is not itself a failure.
type DiscoveryResult struct {
	Success                bool                `json:"success"`
	RunAt                  time.Time           `json:"run_at"`
	TopicsSearched         []string            `json:"topics_searched"`
	Opportunities          []ScoredOpportunity `json:"opportunities"`
	TotalXSignals          int                 `json:"total_x_signals"`
	TotalRedditSignals     int                 `json:"total_reddit_signals"`
	DuplicatesFiltered     int                 `json:"duplicates_filtered"`
	BelowThresholdFiltered int                 `json:"below_threshold_filtered"`
	Errors                 []string            `json:"errors"`
}
