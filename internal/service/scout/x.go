package scout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

// XConfig holds X/Grok scout configuration.
type XConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// XScout is the primary signal source. It searches X through the xAI API's
// live search tooling and asks the model to return structured post data.
type XScout struct {
	config     XConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// xChatRequest is the request body for the xAI chat completions endpoint.
type xChatRequest struct {
	Model    string     `json:"model"`
	Messages []xMessage `json:"messages"`
	// SearchParameters enables xAI live search against X posts.
	SearchParameters *xSearchParameters `json:"search_parameters,omitempty"`
}

type xMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type xSearchParameters struct {
	Mode     string    `json:"mode"`
	Sources  []xSource `json:"sources"`
	FromDate string    `json:"from_date,omitempty"`
	ToDate   string    `json:"to_date,omitempty"`
}

type xSource struct {
	Type string `json:"type"`
}

type xChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// xPost is the structured post shape the model is asked to emit.
type xPost struct {
	Text          string   `json:"text"`
	URL           string   `json:"url"`
	Likes         int      `json:"likes"`
	Retweets      int      `json:"retweets"`
	Replies       int      `json:"replies"`
	CreatedAt     string   `json:"created_at"`
	Relevance     *float64 `json:"relevance_score"`
	PainPoints    []string `json:"pain_points"`
	BuyingSignals []string `json:"buying_signals"`
}

const xSearchPrompt = `Search X for recent posts about "%s" where people express
frustration, ask for help, or look for resources they would pay for.
Return ONLY a JSON array. Each element must have these fields:
text, url, likes, retweets, replies, created_at (ISO8601),
relevance_score (0.0-1.0), pain_points (array of short phrases),
buying_signals (array of short phrases).
Limit to %d posts. No prose, no markdown fences.`

// NewXScout creates a new X scout.
func NewXScout(config XConfig, logger *zap.Logger) *XScout {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.x.ai/v1"
	}
	if config.Model == "" {
		config.Model = "grok-3-fast"
	}
	return &XScout{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Name returns the source identifier.
func (s *XScout) Name() signal.Source {
	return signal.SourceX
}

// Configured reports whether an API key is present.
func (s *XScout) Configured() bool {
	return s.config.APIKey != ""
}

// Search queries X through the xAI API and normalizes the returned posts.
func (s *XScout) Search(ctx context.Context, topic string, timeFilter string, limit int) ([]signal.Signal, error) {
	if limit <= 0 {
		limit = 50
	}

	from, to := dateRange(timeFilter)
	body, err := json.Marshal(xChatRequest{
		Model: s.config.Model,
		Messages: []xMessage{
			{Role: "user", Content: fmt.Sprintf(xSearchPrompt, topic, limit)},
		},
		SearchParameters: &xSearchParameters{
			Mode:     "on",
			Sources:  []xSource{{Type: "x"}},
			FromDate: from,
			ToDate:   to,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call xAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("xAI API returned status %d", resp.StatusCode)
	}

	var chatResp xChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode xAI response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("xAI response contained no choices")
	}

	posts, err := parseXPosts(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse posts from model output: %w", err)
	}

	signals := make([]signal.Signal, 0, len(posts))
	for _, post := range posts {
		if post.Text == "" {
			continue
		}
		signals = append(signals, normalizeXPost(post))
	}

	s.logger.Debug("x search complete",
		zap.String("topic", topic),
		zap.Int("signals", len(signals)),
	)
	return signals, nil
}

// parseXPosts extracts the JSON array from model output, tolerating markdown
// fences the model sometimes adds despite instructions.
func parseXPosts(content string) ([]xPost, error) {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "["); start >= 0 {
		if end := strings.LastIndex(content, "]"); end > start {
			content = content[start : end+1]
		}
	}

	var posts []xPost
	if err := json.Unmarshal([]byte(content), &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// normalizeXPost converts a model-reported post into the common signal shape.
// Replies weigh triple and retweets double: a reply thread is a stronger
// demand marker than a passive like.
func normalizeXPost(post xPost) signal.Signal {
	engagement := post.Likes + post.Retweets*2 + post.Replies*3

	relevance := 0.5
	if post.Relevance != nil {
		relevance = *post.Relevance
	}
	if relevance < 0 {
		relevance = 0
	}
	if relevance > 1 {
		relevance = 1
	}

	createdAt := time.Now().UTC()
	if post.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, post.CreatedAt); err == nil {
			createdAt = parsed.UTC()
		}
	}

	pain := post.PainPoints
	buying := post.BuyingSignals
	if len(pain) == 0 && len(buying) == 0 {
		buying, pain = extractIntent(post.Text)
	}
	if pain == nil {
		pain = []string{}
	}
	if buying == nil {
		buying = []string{}
	}

	return signal.Signal{
		Source:        signal.SourceX,
		Text:          post.Text,
		URL:           post.URL,
		Engagement:    engagement,
		PainPoints:    pain,
		BuyingSignals: buying,
		Relevance:     relevance,
		CreatedAt:     createdAt,
	}
}

// dateRange converts a time filter (day, week, month) to an ISO8601 range.
func dateRange(timeFilter string) (string, string) {
	now := time.Now().UTC()
	var from time.Time
	switch timeFilter {
	case "day":
		from = now.AddDate(0, 0, -1)
	case "month":
		from = now.AddDate(0, 0, -30)
	default:
		from = now.AddDate(0, 0, -7)
	}
	const layout = "2006-01-02"
	return from.Format(layout), now.Format(layout)
}
