package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

// minRedditRelevance drops low-signal posts before they reach the scorer.
const minRedditRelevance = 0.3

// RedditConfig holds Reddit scout configuration.
type RedditConfig struct {
	BaseURL   string
	UserAgent string
	Enabled   bool
}

// RedditScout searches Reddit's public JSON API for posts carrying buying
// intent or pain points. It is a supplementary signal source.
type RedditScout struct {
	config     RedditConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// redditPost mirrors the fields we use from the Reddit listing API.
type redditPost struct {
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Subreddit   string  `json:"subreddit"`
	CreatedUTC  float64 `json:"created_utc"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// NewRedditScout creates a new Reddit scout.
func NewRedditScout(config RedditConfig, logger *zap.Logger) *RedditScout {
	if config.BaseURL == "" {
		config.BaseURL = "https://www.reddit.com"
	}
	return &RedditScout{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the source identifier.
func (s *RedditScout) Name() signal.Source {
	return signal.SourceReddit
}

// Configured reports whether the scout is enabled with a user agent set.
func (s *RedditScout) Configured() bool {
	return s.config.Enabled && s.config.UserAgent != ""
}

// Search queries Reddit's search endpoint and normalizes matching posts into
// signals, keeping only those above the relevance floor, sorted by relevance.
func (s *RedditScout) Search(ctx context.Context, topic string, timeFilter string, limit int) ([]signal.Signal, error) {
	if limit <= 0 {
		limit = 25
	}
	if timeFilter == "" {
		timeFilter = "week"
	}

	searchURL := fmt.Sprintf(
		"%s/search.json?q=%s&sort=relevance&t=%s&limit=%d",
		s.config.BaseURL, url.QueryEscape(topic), url.QueryEscape(timeFilter), limit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query reddit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit returned status %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("failed to decode reddit response: %w", err)
	}

	signals := make([]signal.Signal, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		sig := s.normalize(child.Data)
		if sig.Relevance > minRedditRelevance {
			signals = append(signals, sig)
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Relevance > signals[j].Relevance
	})
	if len(signals) > limit {
		signals = signals[:limit]
	}

	s.logger.Debug("reddit search complete",
		zap.String("topic", topic),
		zap.Int("signals", len(signals)),
	)
	return signals, nil
}

// normalize converts a Reddit post into the common signal shape. Comments are
// weighted double in engagement since they indicate discussion depth.
func (s *RedditScout) normalize(post redditPost) signal.Signal {
	text := post.Title
	if post.SelfText != "" {
		text += " " + post.SelfText
	}

	engagement := post.Score + post.NumComments*2
	buying, pain := extractIntent(text)

	return signal.Signal{
		Source:        signal.SourceReddit,
		Text:          text,
		URL:           "https://reddit.com" + post.Permalink,
		Engagement:    engagement,
		PainPoints:    pain,
		BuyingSignals: buying,
		Relevance:     relevanceScore(buying, pain, engagement),
		CreatedAt:     time.Unix(int64(post.CreatedUTC), 0).UTC(),
	}
}
