package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
)

// Scheduler triggers recurring discovery runs on a cron schedule and retains
// the most recent result for inspection.
type Scheduler struct {
	aggregator *Aggregator
	schedule   string
	runTimeout time.Duration
	logger     *zap.Logger

	cron *cron.Cron

	mu         sync.RWMutex
	lastResult *opportunity.DiscoveryResult
	running    bool
}

// NewScheduler creates a scheduler around the aggregator. The schedule uses
// standard five-field cron syntax, for example "0 */6 * * *".
func NewScheduler(aggregator *Aggregator, schedule string, runTimeout time.Duration, logger *zap.Logger) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}
	return &Scheduler{
		aggregator: aggregator,
		schedule:   schedule,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Start registers the cron entry and begins firing runs. It returns an error
// only when the schedule expression cannot be parsed.
func (s *Scheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.fire); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("discovery scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info("discovery scheduler stopped")
}

// LastResult returns the result of the most recent scheduled run, or nil when
// no run has completed yet.
func (s *Scheduler) LastResult() *opportunity.DiscoveryResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// fire runs one scheduled discovery pass. Overlapping triggers are skipped so
// a slow run never stacks up behind itself.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("skipping scheduled discovery run, previous run still active")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	s.logger.Info("scheduled discovery run starting")
	result := s.aggregator.Run(ctx, Params{
		CheckDuplicates: s.aggregator.config.CheckDuplicates,
		UseTrends:       s.aggregator.config.UseTrends,
	})

	s.mu.Lock()
	s.lastResult = &result
	s.mu.Unlock()
}
