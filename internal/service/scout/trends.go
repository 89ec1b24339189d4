package scout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

// TrendsConfig holds Google Trends scout configuration.
type TrendsConfig struct {
	BaseURL   string
	UserAgent string
}

// TrendsScout reads search interest from the unofficial Google Trends widget
// API: an explore call yields per-widget tokens, then the timeseries widget
// returns interest over time. The endpoint is aggressively rate limited, so
// callers must wrap this scout with the trend cache rather than hit it
// directly.
type TrendsScout struct {
	config     TrendsConfig
	httpClient *http.Client
	logger     *zap.Logger
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Value []int `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// NewTrendsScout creates a new Google Trends scout.
func NewTrendsScout(config TrendsConfig, logger *zap.Logger) *TrendsScout {
	if config.BaseURL == "" {
		config.BaseURL = "https://trends.google.com"
	}
	if config.UserAgent == "" {
		config.UserAgent = "Mozilla/5.0 (compatible; prospector/1.0)"
	}
	return &TrendsScout{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Interest fetches a trend snapshot for a keyword. The interest score is the
// mean of the timeseries values; an empty timeseries yields an empty snapshot,
// which the cache treats as a throttle marker.
func (s *TrendsScout) Interest(ctx context.Context, keyword string, timeframe string, region string) (signal.TrendSnapshot, error) {
	token, request, err := s.exploreToken(ctx, keyword, timeframe, region)
	if err != nil {
		return signal.TrendSnapshot{}, err
	}

	values, err := s.timeline(ctx, token, request)
	if err != nil {
		return signal.TrendSnapshot{}, err
	}

	score := 0
	if len(values) > 0 {
		sum := 0
		for _, v := range values {
			sum += v
		}
		score = sum / len(values)
	}

	return signal.TrendSnapshot{
		Keyword:       keyword,
		InterestScore: score,
		SampleCount:   len(values),
		Region:        region,
		Timeframe:     timeframe,
	}, nil
}

// exploreToken resolves the timeseries widget token for a keyword.
func (s *TrendsScout) exploreToken(ctx context.Context, keyword, timeframe, region string) (string, json.RawMessage, error) {
	exploreReq := map[string]interface{}{
		"comparisonItem": []map[string]string{
			{"keyword": keyword, "geo": region, "time": timeframe},
		},
		"category": 0,
		"property": "",
	}
	reqJSON, err := json.Marshal(exploreReq)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal explore request: %w", err)
	}

	exploreURL := fmt.Sprintf("%s/trends/api/explore?hl=en-US&tz=0&req=%s",
		s.config.BaseURL, url.QueryEscape(string(reqJSON)))

	body, err := s.get(ctx, exploreURL)
	if err != nil {
		return "", nil, fmt.Errorf("explore call failed: %w", err)
	}

	var explore exploreResponse
	if err := json.Unmarshal(stripXSSIPrefix(body), &explore); err != nil {
		return "", nil, fmt.Errorf("failed to decode explore response: %w", err)
	}

	for _, widget := range explore.Widgets {
		if widget.ID == "TIMESERIES" {
			return widget.Token, widget.Request, nil
		}
	}
	return "", nil, fmt.Errorf("no timeseries widget in explore response")
}

// timeline fetches the interest-over-time values for a widget token.
func (s *TrendsScout) timeline(ctx context.Context, token string, request json.RawMessage) ([]int, error) {
	timelineURL := fmt.Sprintf("%s/trends/api/widgetdata/multiline?hl=en-US&tz=0&token=%s&req=%s",
		s.config.BaseURL, url.QueryEscape(token), url.QueryEscape(string(request)))

	body, err := s.get(ctx, timelineURL)
	if err != nil {
		return nil, fmt.Errorf("timeline call failed: %w", err)
	}

	var multiline multilineResponse
	if err := json.Unmarshal(stripXSSIPrefix(body), &multiline); err != nil {
		return nil, fmt.Errorf("failed to decode timeline response: %w", err)
	}

	var values []int
	for _, point := range multiline.Default.TimelineData {
		if len(point.Value) > 0 {
			values = append(values, point.Value[0])
		}
	}
	return values, nil
}

func (s *TrendsScout) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends endpoint returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// stripXSSIPrefix removes the anti-hijacking prefix Google prepends to its
// JSON payloads (")]}'" followed by an optional comma and newline).
func stripXSSIPrefix(body []byte) []byte {
	text := string(body)
	if idx := strings.IndexAny(text, "{["); idx > 0 {
		return []byte(text[idx:])
	}
	return body
}
