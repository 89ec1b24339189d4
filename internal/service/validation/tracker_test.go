package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTrackerScoring(t *testing.T) {
	tracker := NewTracker(0, zap.NewNop())
	require.NoError(t, tracker.Start("opp-1", "Chatgpt Prompts Prompt Pack"))

	require.NoError(t, tracker.Record("opp-1", SignalEmailSignup, 2, ""))
	require.NoError(t, tracker.Record("opp-1", SignalDirectMsg, 1, "asked about pricing"))
	require.NoError(t, tracker.Record("opp-1", SignalQuestion, 1, ""))
	require.NoError(t, tracker.Record("opp-1", SignalUpvotes, 60, ""))

	status, err := tracker.Status("opp-1")
	require.NoError(t, err)

	// 2*3 + 4 + 2 + 60/25 = 14: just below the threshold.
	assert.Equal(t, 14, status.Points)
	assert.False(t, status.Passed)

	require.NoError(t, tracker.Record("opp-1", SignalBuyComment, 1, "where can I buy"))
	status, err = tracker.Status("opp-1")
	require.NoError(t, err)
	assert.Equal(t, 17, status.Points)
	assert.True(t, status.Passed)
	assert.Len(t, status.Events, 5)
}

func TestTrackerUpvotesAreDividedDown(t *testing.T) {
	tracker := NewTracker(0, zap.NewNop())
	require.NoError(t, tracker.Start("opp-1", "title"))

	// 300 upvotes alone give 12 points: vanity engagement cannot pass.
	require.NoError(t, tracker.Record("opp-1", SignalUpvotes, 300, ""))

	status, err := tracker.Status("opp-1")
	require.NoError(t, err)
	assert.Equal(t, 12, status.Points)
	assert.False(t, status.Passed)
}

func TestTrackerDuplicateStart(t *testing.T) {
	tracker := NewTracker(0, zap.NewNop())
	require.NoError(t, tracker.Start("opp-1", "title"))
	assert.Error(t, tracker.Start("opp-1", "title"))
}

func TestTrackerRejectsInvalidSignals(t *testing.T) {
	tracker := NewTracker(0, zap.NewNop())
	require.NoError(t, tracker.Start("opp-1", "title"))

	assert.Error(t, tracker.Record("opp-1", SignalKind("likes"), 1, ""))
	assert.Error(t, tracker.Record("opp-1", SignalEmailSignup, 0, ""))
	assert.Error(t, tracker.Record("missing", SignalEmailSignup, 1, ""))
}

func TestTrackerWindowCloses(t *testing.T) {
	current := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tracker := NewTracker(72*time.Hour, zap.NewNop()).
		WithClock(func() time.Time { return current })

	require.NoError(t, tracker.Start("opp-1", "title"))
	require.NoError(t, tracker.Record("opp-1", SignalEmailSignup, 1, ""))

	current = current.Add(73 * time.Hour)
	err := tracker.Record("opp-1", SignalEmailSignup, 1, "")
	require.Error(t, err)

	status, statusErr := tracker.Status("opp-1")
	require.NoError(t, statusErr)
	assert.True(t, status.WindowClosed)
	assert.Equal(t, 3, status.Points)
}

func TestTrackerAllOrdersByStart(t *testing.T) {
	current := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	tracker := NewTracker(0, zap.NewNop()).
		WithClock(func() time.Time { return current })

	require.NoError(t, tracker.Start("older", "first"))
	current = current.Add(time.Hour)
	require.NoError(t, tracker.Start("newer", "second"))

	all := tracker.All()
	require.Len(t, all, 2)
	assert.Equal(t, "newer", all[0].OpportunityID)
	assert.Equal(t, "older", all[1].OpportunityID)
}
