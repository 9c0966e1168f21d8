package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CycleRunner runs one payout cycle through the application's single
// mutation path.
type CycleRunner interface {
	RunPayoutCycle(ctx context.Context) (*CycleResult, error)
}

// SchedulerConfig contains payout scheduler configuration.
type SchedulerConfig struct {
	// Enabled determines if the payout cycle runs automatically.
	Enabled bool

	// Schedule is a standard 5-field cron expression.
	Schedule string

	// Timeout bounds a single run.
	Timeout time.Duration
}

// DefaultSchedulerConfig returns sensible defaults: daily shortly after
// midnight, so holds release every day and payout days settle.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:  true,
		Schedule: "5 0 * * *",
		Timeout:  time.Minute,
	}
}

// PayoutScheduler triggers the payout cycle on a cron schedule.
type PayoutScheduler struct {
	runner CycleRunner
	config SchedulerConfig
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewPayoutScheduler creates a new PayoutScheduler. The schedule is
// validated here so a bad expression fails at startup.
func NewPayoutScheduler(runner CycleRunner, config SchedulerConfig, logger zerolog.Logger) (*PayoutScheduler, error) {
	log := logger.With().Str("service", "payout_scheduler").Logger()
	if config.Timeout <= 0 {
		config.Timeout = DefaultSchedulerConfig().Timeout
	}

	c := cron.New(cron.WithLogger(cronLogger{logger: log}))
	s := &PayoutScheduler{
		runner: runner,
		config: config,
		logger: log,
		cron:   c,
	}
	if _, err := c.AddFunc(config.Schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid payout schedule %q: %w", config.Schedule, err)
	}
	return s, nil
}

// Start starts the scheduler. It is a no-op when disabled or already running.
func (s *PayoutScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || !s.config.Enabled {
		return
	}
	s.running = true

	s.logger.Info().Str("schedule", s.config.Schedule).Msg("Starting payout scheduler")
	s.cron.Start()
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *PayoutScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Payout scheduler stopped")
}

// Next returns the next scheduled run, or the zero time when stopped.
func (s *PayoutScheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *PayoutScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	result, err := s.runner.RunPayoutCycle(ctx)
	if errors.Is(err, ErrCycleInProgress) {
		s.logger.Info().Msg("Skipping payout cycle, another run holds the lock")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Payout cycle failed")
		return
	}
	s.logger.Debug().
		Int("released", result.Released).
		Int("settled", result.Settled).
		Msg("Scheduled payout cycle finished")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
