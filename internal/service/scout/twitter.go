package scout

import (
	"context"
	"fmt"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

// TwitterConfig holds configuration for the direct X API scout.
type TwitterConfig struct {
	BearerToken string
}

// TwitterScout searches X directly through the v2 recent-search API. It is
// the fallback primary source when the Grok scout has no API key; the signals
// it emits use the same engagement weighting.
type TwitterScout struct {
	config TwitterConfig
	client *twitter.Client
	logger *zap.Logger
}

type bearerAuthorizer struct {
	token string
}

func (a bearerAuthorizer) Add(req *http.Request) {
	req.Header.Add("Authorization", "Bearer "+a.token)
}

// NewTwitterScout creates a scout backed by the X v2 API.
func NewTwitterScout(config TwitterConfig, logger *zap.Logger) *TwitterScout {
	return &TwitterScout{
		config: config,
		client: &twitter.Client{
			Authorizer: bearerAuthorizer{token: config.BearerToken},
			Client: &http.Client{
				Timeout: 15 * time.Second,
			},
			Host: "https://api.twitter.com",
		},
		logger: logger,
	}
}

// Name returns the source identifier.
func (s *TwitterScout) Name() signal.Source {
	return signal.SourceX
}

// Configured reports whether a bearer token is present.
func (s *TwitterScout) Configured() bool {
	return s.config.BearerToken != ""
}

// Search runs a recent-search query for the topic and normalizes the tweets.
func (s *TwitterScout) Search(ctx context.Context, topic string, timeFilter string, limit int) ([]signal.Signal, error) {
	// Recent search accepts 10-100 results per request.
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if limit < 10 {
		limit = 10
	}

	query := fmt.Sprintf("%s -is:retweet lang:en", topic)
	opts := twitter.TweetRecentSearchOpts{
		MaxResults: limit,
		StartTime:  searchStart(timeFilter),
		TweetFields: []twitter.TweetField{
			twitter.TweetFieldCreatedAt,
			twitter.TweetFieldPublicMetrics,
		},
	}

	resp, err := s.client.TweetRecentSearch(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("twitter recent search failed: %w", err)
	}

	var signals []signal.Signal
	for _, tweet := range resp.Raw.Tweets {
		if tweet == nil || tweet.Text == "" {
			continue
		}

		likes, retweets, replies := 0, 0, 0
		if tweet.PublicMetrics != nil {
			likes = tweet.PublicMetrics.Likes
			retweets = tweet.PublicMetrics.Retweets
			replies = tweet.PublicMetrics.Replies
		}
		engagement := likes + retweets*2 + replies*3

		createdAt := time.Now().UTC()
		if parsed, err := time.Parse(time.RFC3339, tweet.CreatedAt); err == nil {
			createdAt = parsed.UTC()
		}

		buying, pain := extractIntent(tweet.Text)
		signals = append(signals, signal.Signal{
			Source:        signal.SourceX,
			Text:          tweet.Text,
			URL:           "https://twitter.com/i/web/status/" + tweet.ID,
			Engagement:    engagement,
			PainPoints:    pain,
			BuyingSignals: buying,
			Relevance:     relevanceScore(buying, pain, engagement),
			CreatedAt:     createdAt,
		})
	}

	s.logger.Debug("twitter search complete",
		zap.String("topic", topic),
		zap.Int("signals", len(signals)),
	)
	return signals, nil
}

func searchStart(timeFilter string) time.Time {
	now := time.Now().UTC()
	switch timeFilter {
	case "day":
		return now.AddDate(0, 0, -1)
	case "month":
		return now.AddDate(0, 0, -30)
	default:
		return now.AddDate(0, 0, -7)
	}
}
