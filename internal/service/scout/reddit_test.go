package scout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

const redditFixture = `{
	"data": {
		"children": [
			{"data": {
				"title": "Looking for a Notion template",
				"selftext": "Struggling with my current setup, willing to pay for something good.",
				"permalink": "/r/Notion/comments/abc/looking_for_a_notion_template/",
				"score": 80,
				"num_comments": 30,
				"subreddit": "Notion",
				"created_utc": 1756300000
			}},
			{"data": {
				"title": "Random chatter",
				"selftext": "Nothing useful here.",
				"permalink": "/r/Notion/comments/def/random_chatter/",
				"score": 1,
				"num_comments": 0,
				"subreddit": "Notion",
				"created_utc": 1756300001
			}}
		]
	}
}`

func TestRedditScoutSearch(t *testing.T) {
	var gotPath, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(redditFixture))
	}))
	defer server.Close()

	scout := NewRedditScout(RedditConfig{
		BaseURL:   server.URL,
		UserAgent: "prospector-test/1.0",
		Enabled:   true,
	}, zap.NewNop())

	signals, err := scout.Search(context.Background(), "notion templates", "week", 25)
	require.NoError(t, err)

	assert.Equal(t, "/search.json", gotPath)
	assert.Equal(t, "prospector-test/1.0", gotUserAgent)

	// Only the post clearing the relevance floor survives.
	require.Len(t, signals, 1)
	sig := signals[0]
	assert.Equal(t, signal.SourceReddit, sig.Source)
	assert.Contains(t, sig.Text, "Looking for a Notion template")
	assert.Contains(t, sig.Text, "Struggling with")
	assert.Equal(t, "https://reddit.com/r/Notion/comments/abc/looking_for_a_notion_template/", sig.URL)
	// Engagement weights comments double: 80 + 30*2.
	assert.Equal(t, 140, sig.Engagement)
	assert.Equal(t, []string{"looking for", "willing to pay"}, sig.BuyingSignals)
	assert.Equal(t, []string{"struggling with"}, sig.PainPoints)
	assert.Greater(t, sig.Relevance, minRedditRelevance)
}

func TestRedditScoutSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	scout := NewRedditScout(RedditConfig{
		BaseURL:   server.URL,
		UserAgent: "prospector-test/1.0",
		Enabled:   true,
	}, zap.NewNop())

	_, err := scout.Search(context.Background(), "notion templates", "week", 25)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestRedditScoutConfigured(t *testing.T) {
	logger := zap.NewNop()

	assert.True(t, NewRedditScout(RedditConfig{Enabled: true, UserAgent: "ua"}, logger).Configured())
	assert.False(t, NewRedditScout(RedditConfig{Enabled: false, UserAgent: "ua"}, logger).Configured())
	assert.False(t, NewRedditScout(RedditConfig{Enabled: true}, logger).Configured())
}
