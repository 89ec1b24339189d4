package opportunity

import (
	"context"
	"time"
)

// Filter defines criteria for listing stored opportunities.
type Filter struct {
	MinScore    float64
	ProductType ProductType
	Confidence  Confidence
	Limit       int
}

// Store defines persistence for scored opportunities. The aggregator's
// duplicate suppression is a read against this store.
type Store interface {
	// SaveOpportunity persists a scored opportunity
	SaveOpportunity(ctx context.Context, opp ScoredOpportunity) error

	// ListOpportunities returns stored opportunities matching the filter,
	// highest score first
	ListOpportunities(ctx context.Context, filter Filter) ([]ScoredOpportunity, error)

	// KeywordSeenSince reports whether an opportunity with the exact
	// lowercased keyword was created at or after the cutoff
	KeywordSeenSince(ctx context.Context, keyword string, since time.Time) (bool, error)

	// PublishedTitleContains reports whether any published product's title
	// contains the keyword, case-insensitively, with no time limit
	PublishedTitleContains(ctx context.Context, keyword string) (bool, error)
}
