package signal

import (
	"context"
)

// SocialScout defines the interface for social signal sources. A scout that is
// not configured must report so via Configured rather than failing Search.
type SocialScout interface {
	// Name returns the source identifier this scout emits signals under
	Name() Source

	// Configured reports whether required credentials are present
	Configured() bool

	// Search returns normalized signals for a topic. An empty result and an
	// error are both treated by callers as "zero signals".
	Search(ctx context.Context, topic string, timeFilter string, limit int) ([]Signal, error)
}

// MarketplaceScout defines the interface for competitor listing lookups.
type MarketplaceScout interface {
	// Listings returns marketplace products matching a keyword
	Listings(ctx context.Context, keyword string, limit int) ([]Listing, error)
}

// TrendSource defines the interface for a search-interest provider. It is
// expected to be flaky and rate limited; callers wrap it with hard timeouts.
type TrendSource interface {
	// Interest returns a snapshot of search interest for a keyword
	Interest(ctx context.Context, keyword string, timeframe string, region string) (TrendSnapshot, error)
}
