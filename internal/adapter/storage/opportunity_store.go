package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"prospector/internal/domain/opportunity"
)

// OpportunityStore implements storage for scored opportunities and published
// products on Postgres.
type OpportunityStore struct {
	db *pgxpool.Pool
}

// NewOpportunityStore creates a new opportunity store
func NewOpportunityStore(db *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{
		db: db,
	}
}

// EnsureSchema creates the tables the store needs if they are missing.
func (s *OpportunityStore) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS opportunities (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			target_audience TEXT NOT NULL DEFAULT '',
			product_type TEXT NOT NULL,
			opportunity_score DOUBLE PRECISION NOT NULL,
			demand_score DOUBLE PRECISION NOT NULL,
			intent_score DOUBLE PRECISION NOT NULL,
			competition_penalty INTEGER NOT NULL,
			confidence TEXT NOT NULL,
			primary_keyword TEXT NOT NULL,
			suggested_price_cents INTEGER NOT NULL,
			x_mentions INTEGER NOT NULL DEFAULT 0,
			reddit_mentions INTEGER NOT NULL DEFAULT 0,
			trend_score INTEGER NOT NULL DEFAULT 0,
			evidence_urls TEXT[] NOT NULL DEFAULT '{}',
			top_pain_points TEXT[] NOT NULL DEFAULT '{}',
			top_buying_signals TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_opportunities_keyword
			ON opportunities (primary_keyword, created_at);

		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			opportunity_id TEXT REFERENCES opportunities (id),
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'published',
			published_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// SaveOpportunity saves an opportunity to storage
func (s *OpportunityStore) SaveOpportunity(ctx context.Context, o opportunity.ScoredOpportunity) error {
	query := `
		INSERT INTO opportunities (
			id, title, description, target_audience, product_type,
			opportunity_score, demand_score, intent_score, competition_penalty,
			confidence, primary_keyword, suggested_price_cents,
			x_mentions, reddit_mentions, trend_score,
			evidence_urls, top_pain_points, top_buying_signals, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19
		)
		ON CONFLICT (id) DO UPDATE
		SET
			title = $2,
			description = $3,
			target_audience = $4,
			product_type = $5,
			opportunity_score = $6,
			demand_score = $7,
			intent_score = $8,
			competition_penalty = $9,
			confidence = $10,
			primary_keyword = $11,
			suggested_price_cents = $12,
			x_mentions = $13,
			reddit_mentions = $14,
			trend_score = $15,
			evidence_urls = $16,
			top_pain_points = $17,
			top_buying_signals = $18
	`

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		ctx,
		query,
		o.ID,
		o.Title,
		o.Description,
		o.TargetAudience,
		string(o.ProductType),
		o.OpportunityScore,
		o.DemandScore,
		o.IntentScore,
		o.CompetitionPenalty,
		string(o.Confidence),
		strings.ToLower(o.PrimaryKeyword),
		o.SuggestedPriceCents,
		o.XMentions,
		o.RedditMentions,
		o.TrendScore,
		o.EvidenceURLs,
		o.TopPainPoints,
		o.TopBuyingSignals,
		o.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// ListOpportunities finds opportunities matching the filter, highest score
// first.
func (s *OpportunityStore) ListOpportunities(ctx context.Context, filter opportunity.Filter) ([]opportunity.ScoredOpportunity, error) {
	query := `
		SELECT
			id, title, description, target_audience, product_type,
			opportunity_score, demand_score, intent_score, competition_penalty,
			confidence, primary_keyword, suggested_price_cents,
			x_mentions, reddit_mentions, trend_score,
			evidence_urls, top_pain_points, top_buying_signals, created_at
		FROM opportunities
		WHERE opportunity_score >= $1
	`

	args := []interface{}{filter.MinScore}
	argIndex := 2

	if filter.ProductType != "" {
		query += fmt.Sprintf(" AND product_type = $%d", argIndex)
		args = append(args, string(filter.ProductType))
		argIndex++
	}

	if filter.Confidence != "" {
		query += fmt.Sprintf(" AND confidence = $%d", argIndex)
		args = append(args, string(filter.Confidence))
		argIndex++
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY opportunity_score DESC, created_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var opportunities []opportunity.ScoredOpportunity
	for rows.Next() {
		var o opportunity.ScoredOpportunity
		var productType, confidence string

		err := rows.Scan(
			&o.ID,
			&o.Title,
			&o.Description,
			&o.TargetAudience,
			&productType,
			&o.OpportunityScore,
			&o.DemandScore,
			&o.IntentScore,
			&o.CompetitionPenalty,
			&confidence,
			&o.PrimaryKeyword,
			&o.SuggestedPriceCents,
			&o.XMentions,
			&o.RedditMentions,
			&o.TrendScore,
			&o.EvidenceURLs,
			&o.TopPainPoints,
			&o.TopBuyingSignals,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning opportunity: %w", err)
		}

		o.ProductType = opportunity.ProductType(productType)
		o.Confidence = opportunity.Confidence(confidence)
		opportunities = append(opportunities, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating opportunities: %w", err)
	}

	return opportunities, nil
}

// KeywordSeenSince reports whether an opportunity with this primary keyword
// was recorded at or after the given time. The keyword is matched
// case-insensitively.
func (s *OpportunityStore) KeywordSeenSince(ctx context.Context, keyword string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM opportunities
			WHERE primary_keyword = $1 AND created_at >= $2
		)
	`

	var seen bool
	err := s.db.QueryRow(ctx, query, strings.ToLower(keyword), since).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("error querying keyword history: %w", err)
	}

	return seen, nil
}

// PublishedTitleContains reports whether any published product title contains
// the keyword as a substring, case-insensitively. The keyword is matched
// literally; ILIKE metacharacters in it do not act as wildcards.
func (s *OpportunityStore) PublishedTitleContains(ctx context.Context, keyword string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM products
			WHERE status = 'published' AND title ILIKE '%' || $1 || '%' ESCAPE '\'
		)
	`

	var published bool
	err := s.db.QueryRow(ctx, query, escapeLikePattern(keyword)).Scan(&published)
	if err != nil {
		return false, fmt.Errorf("error querying published products: %w", err)
	}

	return published, nil
}

// escapeLikePattern backslash-escapes LIKE metacharacters so the keyword
// matches literally inside a pattern.
func escapeLikePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
