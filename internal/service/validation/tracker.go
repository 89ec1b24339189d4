package validation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SignalKind classifies one organic validation signal observed after an
// opportunity is posted publicly.
type SignalKind string

const (
	SignalEmailSignup SignalKind = "email_signup"
	SignalDirectMsg   SignalKind = "direct_message"
	SignalBuyComment  SignalKind = "buy_comment"
	SignalQuestion    SignalKind = "question"
	SignalUpvotes     SignalKind = "upvotes"
)

// Point weights per signal. Upvotes are bulk-counted and divided down so a
// single viral post cannot pass validation on vanity engagement alone.
const (
	pointsEmailSignup = 3
	pointsDirectMsg   = 4
	pointsBuyComment  = 3
	pointsQuestion    = 2
	upvotesPerPoint   = 25

	// PassThreshold is the score at which demand counts as validated.
	PassThreshold = 15

	defaultWindow = 72 * time.Hour
)

// Event is one recorded validation signal.
type Event struct {
	Kind       SignalKind `json:"kind"`
	Count      int        `json:"count"`
	Note       string     `json:"note,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// Status summarizes a validation campaign for one opportunity.
type Status struct {
	OpportunityID string    `json:"opportunity_id"`
	Title         string    `json:"title"`
	Points        int       `json:"points"`
	Threshold     int       `json:"threshold"`
	Passed        bool      `json:"passed"`
	WindowClosed  bool      `json:"window_closed"`
	StartedAt     time.Time `json:"started_at"`
	ClosesAt      time.Time `json:"closes_at"`
	Events        []Event   `json:"events"`
}

type campaign struct {
	title     string
	startedAt time.Time
	closesAt  time.Time
	events    []Event
}

// Tracker scores organic validation signals against a fixed time window.
// Campaigns live in memory; validation is a short-lived manual loop, not
// durable state.
type Tracker struct {
	mu        sync.RWMutex
	campaigns map[string]*campaign
	window    time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewTracker creates a validation tracker. A non-positive window falls back
// to 72 hours.
func NewTracker(window time.Duration, logger *zap.Logger) *Tracker {
	if window <= 0 {
		window = defaultWindow
	}
	return &Tracker{
		campaigns: make(map[string]*campaign),
		window:    window,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the tracker's clock for deterministic window tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Start opens a validation campaign for an opportunity. Starting an already
// open campaign is an error so points are never silently reset.
func (t *Tracker) Start(opportunityID, title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.campaigns[opportunityID]; exists {
		return fmt.Errorf("validation campaign already open for %s", opportunityID)
	}

	startedAt := t.now().UTC()
	t.campaigns[opportunityID] = &campaign{
		title:     title,
		startedAt: startedAt,
		closesAt:  startedAt.Add(t.window),
	}
	t.logger.Info("validation campaign started",
		zap.String("opportunity_id", opportunityID),
		zap.String("title", title),
	)
	return nil
}

// Record adds a signal to an open campaign. Signals observed after the window
// closes are rejected.
func (t *Tracker) Record(opportunityID string, kind SignalKind, count int, note string) error {
	if count <= 0 {
		return fmt.Errorf("signal count must be positive, got %d", count)
	}
	switch kind {
	case SignalEmailSignup, SignalDirectMsg, SignalBuyComment, SignalQuestion, SignalUpvotes:
	default:
		return fmt.Errorf("unknown validation signal kind %q", kind)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, exists := t.campaigns[opportunityID]
	if !exists {
		return fmt.Errorf("no validation campaign for %s", opportunityID)
	}
	if t.now().UTC().After(c.closesAt) {
		return fmt.Errorf("validation window for %s closed at %s", opportunityID, c.closesAt.Format(time.RFC3339))
	}

	c.events = append(c.events, Event{
		Kind:       kind,
		Count:      count,
		Note:       note,
		RecordedAt: t.now().UTC(),
	})
	return nil
}

// Status reports the current score for a campaign.
func (t *Tracker) Status(opportunityID string) (Status, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, exists := t.campaigns[opportunityID]
	if !exists {
		return Status{}, fmt.Errorf("no validation campaign for %s", opportunityID)
	}

	points := scoreEvents(c.events)
	events := make([]Event, len(c.events))
	copy(events, c.events)

	return Status{
		OpportunityID: opportunityID,
		Title:         c.title,
		Points:        points,
		Threshold:     PassThreshold,
		Passed:        points >= PassThreshold,
		WindowClosed:  t.now().UTC().After(c.closesAt),
		StartedAt:     c.startedAt,
		ClosesAt:      c.closesAt,
		Events:        events,
	}, nil
}

// All returns the status of every campaign, ordered by start time descending.
func (t *Tracker) All() []Status {
	t.mu.RLock()
	ids := make([]string, 0, len(t.campaigns))
	for id := range t.campaigns {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	statuses := make([]Status, 0, len(ids))
	for _, id := range ids {
		if status, err := t.Status(id); err == nil {
			statuses = append(statuses, status)
		}
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].StartedAt.After(statuses[j].StartedAt)
	})
	return statuses
}

func scoreEvents(events []Event) int {
	points := 0
	upvotes := 0
	for _, event := range events {
		switch event.Kind {
		case SignalEmailSignup:
			points += pointsEmailSignup * event.Count
		case SignalDirectMsg:
			points += pointsDirectMsg * event.Count
		case SignalBuyComment:
			points += pointsBuyComment * event.Count
		case SignalQuestion:
			points += pointsQuestion * event.Count
		case SignalUpvotes:
			upvotes += event.Count
		}
	}
	return points + upvotes/upvotesPerPoint
}
