package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
	"prospector/internal/domain/signal"
	"prospector/internal/service/scoring"
)

// Config contains aggregator defaults and tuning.
type Config struct {
	Topics           []string
	TimeFilter       string
	MinScore         float64
	MaxOpportunities int
	CheckDuplicates  bool
	LookbackDays     int
	UseTrends        bool

	// TopicConcurrency bounds how many topics are processed at once, to
	// respect third-party rate limits while overlapping latency.
	TopicConcurrency int

	// PrimaryLimit and SupplementaryLimit cap per-source fetch sizes.
	PrimaryLimit       int
	SupplementaryLimit int

	// EventsTopic is the NATS subject prefix for discovery events.
	EventsTopic string
}

// Params selects the behavior of a single discovery run. Zero values fall
// back to the aggregator's configured defaults.
type Params struct {
	Topics           []string
	TimeFilter       string
	MinScore         float64
	MaxOpportunities int
	CheckDuplicates  bool
	LookbackDays     int
	UseTrends        bool
}

// TrendLookup supplies a best-effort trend snapshot; it never fails.
type TrendLookup interface {
	Lookup(ctx context.Context, keyword string) signal.TrendSnapshot
}

// CompetitionSummarizer supplies a best-effort competition summary; it never
// fails.
type CompetitionSummarizer interface {
	Summarize(ctx context.Context, keyword string) opportunity.CompetitionSummary
}

// Aggregator orchestrates the signal scouts, enrichments, scorer, and
// duplicate suppression into ranked discovery runs. Any single source failing
// degrades that source to zero signals; it never aborts a topic or the run.
type Aggregator struct {
	primary       signal.SocialScout
	supplementary signal.SocialScout
	trends        TrendLookup
	competition   CompetitionSummarizer
	scorer        *scoring.Scorer
	store         opportunity.Store
	eventBus      *nats.Conn
	config        Config
	logger        *zap.Logger
	now           func() time.Time
}

// NewAggregator creates a discovery aggregator. The event bus may be nil when
// event publishing is not wanted.
func NewAggregator(
	primary signal.SocialScout,
	supplementary signal.SocialScout,
	trends TrendLookup,
	competition CompetitionSummarizer,
	scorer *scoring.Scorer,
	store opportunity.Store,
	eventBus *nats.Conn,
	config Config,
	logger *zap.Logger,
) *Aggregator {
	if config.TopicConcurrency <= 0 {
		config.TopicConcurrency = 3
	}
	if config.PrimaryLimit <= 0 {
		config.PrimaryLimit = 100
	}
	if config.SupplementaryLimit <= 0 {
		config.SupplementaryLimit = 25
	}
	if config.EventsTopic == "" {
		config.EventsTopic = "discovery"
	}

	return &Aggregator{
		primary:       primary,
		supplementary: supplementary,
		trends:        trends,
		competition:   competition,
		scorer:        scorer,
		store:         store,
		eventBus:      eventBus,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

// Defaults returns the configured run defaults, for callers that need to fill
// omitted request parameters.
func (a *Aggregator) Defaults() Config {
	return a.config
}

// WithClock overrides the aggregator's clock for deterministic lookback tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// topicOutcome carries one topic's pipeline result back to the assembler.
type topicOutcome struct {
	opp           *opportunity.ScoredOpportunity
	xSignals      int
	redditSignals int
	errors        []string
}

// Run executes a full discovery pass: per-topic source fan-out, best-effort
// enrichment, scoring, threshold filtering, duplicate suppression, ranking,
// and truncation. It does not fail as a whole; partial degradation shows up
// in the result's errors list.
func (a *Aggregator) Run(ctx context.Context, params Params) opportunity.DiscoveryResult {
	p := a.withDefaults(params)

	result := opportunity.DiscoveryResult{
		RunAt:          a.now().UTC(),
		TopicsSearched: p.Topics,
		Opportunities:  []opportunity.ScoredOpportunity{},
		Errors:         []string{},
	}

	// Missing configuration is reported but is not an operational failure: a
	// quiet run with every source unavailable still counts as success.
	primaryConfigured := a.primary != nil && a.primary.Configured()
	supplementaryConfigured := a.supplementary != nil && a.supplementary.Configured()
	if !primaryConfigured {
		result.Errors = append(result.Errors, "x scout not configured")
		a.logger.Warn("primary scout not configured, skipping")
	}
	if !supplementaryConfigured {
		result.Errors = append(result.Errors, "reddit scout not configured")
		a.logger.Info("supplementary scout not configured, skipping")
	}

	outcomes := make([]topicOutcome, len(p.Topics))
	sem := make(chan struct{}, a.config.TopicConcurrency)
	var wg sync.WaitGroup

	for i, topic := range p.Topics {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, topic string) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = a.processTopic(ctx, topic, p, primaryConfigured, supplementaryConfigured)
		}(i, topic)
	}
	wg.Wait()

	var candidates []opportunity.ScoredOpportunity
	searchFailures := 0
	for _, outcome := range outcomes {
		result.TotalXSignals += outcome.xSignals
		result.TotalRedditSignals += outcome.redditSignals
		result.Errors = append(result.Errors, outcome.errors...)
		searchFailures += len(outcome.errors)
		if outcome.opp != nil {
			candidates = append(candidates, *outcome.opp)
		}
	}

	// Filtering order: threshold, then duplicates, then rank and truncate.
	var surviving []opportunity.ScoredOpportunity
	for _, opp := range candidates {
		if opp.OpportunityScore < p.MinScore {
			result.BelowThresholdFiltered++
			continue
		}
		surviving = append(surviving, opp)
	}

	if p.CheckDuplicates {
		var unique []opportunity.ScoredOpportunity
		for _, opp := range surviving {
			if a.isDuplicate(ctx, opp.PrimaryKeyword, p.LookbackDays) {
				result.DuplicatesFiltered++
				a.logger.Info("filtered duplicate opportunity",
					zap.String("title", opp.Title),
					zap.String("keyword", opp.PrimaryKeyword),
				)
				continue
			}
			unique = append(unique, opp)
		}
		surviving = unique
	}

	sort.SliceStable(surviving, func(i, j int) bool {
		return surviving[i].OpportunityScore > surviving[j].OpportunityScore
	})
	if len(surviving) > p.MaxOpportunities {
		surviving = surviving[:p.MaxOpportunities]
	}
	result.Opportunities = surviving

	for i := range result.Opportunities {
		a.publishOpportunity(result.Opportunities[i])
	}

	result.Success = len(result.Opportunities) > 0 || searchFailures == 0

	a.logger.Info("discovery run complete",
		zap.Int("topics", len(p.Topics)),
		zap.Int("opportunities", len(result.Opportunities)),
		zap.Int("below_threshold", result.BelowThresholdFiltered),
		zap.Int("duplicates", result.DuplicatesFiltered),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// processTopic runs the per-topic pipeline: fetch each source independently,
// associate signals to the topic, enrich sequentially, and score the pool.
func (a *Aggregator) processTopic(
	ctx context.Context,
	topic string,
	p Params,
	primaryConfigured bool,
	supplementaryConfigured bool,
) topicOutcome {
	var outcome topicOutcome

	var xSignals, redditSignals []signal.Signal
	if primaryConfigured {
		fetched, err := a.primary.Search(ctx, topic, p.TimeFilter, a.config.PrimaryLimit)
		if err != nil {
			outcome.errors = append(outcome.errors,
				fmt.Sprintf("x search error for %q: %v", topic, err))
			a.logger.Warn("primary search failed",
				zap.String("topic", topic), zap.Error(err))
		} else {
			xSignals = fetched
		}
	}
	if supplementaryConfigured {
		fetched, err := a.supplementary.Search(ctx, topic, p.TimeFilter, a.config.SupplementaryLimit)
		if err != nil {
			outcome.errors = append(outcome.errors,
				fmt.Sprintf("reddit search error for %q: %v", topic, err))
			a.logger.Warn("supplementary search failed",
				zap.String("topic", topic), zap.Error(err))
		} else {
			redditSignals = fetched
		}
	}

	outcome.xSignals = len(xSignals)
	outcome.redditSignals = len(redditSignals)

	topicX := associateToTopic(xSignals, topic)
	topicReddit := associateToTopic(redditSignals, topic)
	if len(topicX) == 0 && len(topicReddit) == 0 {
		return outcome
	}

	// Enrichments are sequential best-effort calls: they time out internally
	// and degrade to defaults, never surfacing in the run's errors.
	trendScore := 0
	if p.UseTrends && a.trends != nil {
		trendScore = a.trends.Lookup(ctx, topic).InterestScore
		if trendScore > 0 {
			a.logger.Debug("trend score",
				zap.String("topic", topic), zap.Int("score", trendScore))
		}
	}

	var competitionSummary *opportunity.CompetitionSummary
	if a.competition != nil {
		summary := a.competition.Summarize(ctx, topic)
		competitionSummary = &summary
	}

	opp := a.scorer.Score(scoring.Input{
		XSignals:       topicX,
		RedditSignals:  topicReddit,
		TrendScore:     trendScore,
		Competition:    competitionSummary,
		PrimaryKeyword: topic,
	})
	opp.ID = uuid.New().String()
	outcome.opp = &opp

	return outcome
}

// associateToTopic keeps signals whose text contains a content word from the
// topic. When nothing matches, the whole set is assumed relevant: it was
// fetched with the topic as the query.
func associateToTopic(signals []signal.Signal, topic string) []signal.Signal {
	if len(signals) == 0 {
		return nil
	}

	var words []string
	for _, word := range strings.Fields(strings.ToLower(topic)) {
		if len(word) > 2 {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return signals
	}

	var matched []signal.Signal
	for _, sig := range signals {
		lower := strings.ToLower(sig.Text)
		for _, word := range words {
			if strings.Contains(lower, word) {
				matched = append(matched, sig)
				break
			}
		}
	}
	if len(matched) == 0 {
		return signals
	}
	return matched
}

// isDuplicate reports whether the keyword recently surfaced or matches a
// published product. Lookup errors fail open: a transient store error must
// never destroy an otherwise valid opportunity.
func (a *Aggregator) isDuplicate(ctx context.Context, keyword string, lookbackDays int) bool {
	if a.store == nil {
		return false
	}

	since := a.now().UTC().AddDate(0, 0, -lookbackDays)
	seen, err := a.store.KeywordSeenSince(ctx, strings.ToLower(keyword), since)
	if err != nil {
		a.logger.Warn("duplicate keyword check failed, treating as new",
			zap.String("keyword", keyword), zap.Error(err))
	} else if seen {
		return true
	}

	published, err := a.store.PublishedTitleContains(ctx, keyword)
	if err != nil {
		a.logger.Warn("published product check failed, treating as new",
			zap.String("keyword", keyword), zap.Error(err))
		return false
	}
	return published
}

// publishOpportunity emits a discovery event for downstream consumers.
func (a *Aggregator) publishOpportunity(opp opportunity.ScoredOpportunity) {
	if a.eventBus == nil {
		return
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		a.logger.Warn("failed to marshal opportunity event", zap.Error(err))
		return
	}

	subject := a.config.EventsTopic + ".opportunity"
	if err := a.eventBus.Publish(subject, payload); err != nil {
		a.logger.Warn("failed to publish opportunity event",
			zap.String("subject", subject), zap.Error(err))
	}
}

// QuickSearch probes a single topic without threshold or duplicate filtering.
// Useful for exploration and for verifying scout configuration.
func (a *Aggregator) QuickSearch(ctx context.Context, topic string, timeFilter string) opportunity.ScoredOpportunity {
	if timeFilter == "" {
		timeFilter = a.config.TimeFilter
	}

	var xSignals, redditSignals []signal.Signal
	if a.primary != nil && a.primary.Configured() {
		if fetched, err := a.primary.Search(ctx, topic, timeFilter, 50); err == nil {
			xSignals = fetched
		} else {
			a.logger.Warn("quick search primary fetch failed",
				zap.String("topic", topic), zap.Error(err))
		}
	}
	if a.supplementary != nil && a.supplementary.Configured() {
		if fetched, err := a.supplementary.Search(ctx, topic, timeFilter, 25); err == nil {
			redditSignals = fetched
		} else {
			a.logger.Warn("quick search supplementary fetch failed",
				zap.String("topic", topic), zap.Error(err))
		}
	}

	trendScore := 0
	if a.config.UseTrends && a.trends != nil {
		trendScore = a.trends.Lookup(ctx, topic).InterestScore
	}

	opp := a.scorer.Score(scoring.Input{
		XSignals:       xSignals,
		RedditSignals:  redditSignals,
		TrendScore:     trendScore,
		PrimaryKeyword: topic,
	})
	opp.ID = uuid.New().String()
	return opp
}

func (a *Aggregator) withDefaults(params Params) Params {
	if len(params.Topics) == 0 {
		params.Topics = a.config.Topics
	}
	if params.TimeFilter == "" {
		params.TimeFilter = a.config.TimeFilter
	}
	if params.TimeFilter == "" {
		params.TimeFilter = "week"
	}
	if params.MinScore <= 0 {
		params.MinScore = a.config.MinScore
	}
	if params.MaxOpportunities <= 0 {
		params.MaxOpportunities = a.config.MaxOpportunities
	}
	if params.MaxOpportunities <= 0 {
		params.MaxOpportunities = 10
	}
	if params.LookbackDays <= 0 {
		params.LookbackDays = a.config.LookbackDays
	}
	if params.LookbackDays <= 0 {
		params.LookbackDays = 90
	}
	return params
}
