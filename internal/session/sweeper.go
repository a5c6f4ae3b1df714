package session

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var sessionsSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "script_server_sessions_swept_total",
	Help: "Total number of expired sessions removed by the sweeper.",
})

// Sweeper periodically removes sessions older than a TTL.
type Sweeper struct {
	store  *Store
	ttl    time.Duration
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

// NewSweeper schedules store sweeps with a cron expression
// (5 fields or a descriptor such as "@hourly").
func NewSweeper(store *Store, ttl time.Duration, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %v", ttl)
	}
	s := &Sweeper{
		store:  store,
		ttl:    ttl,
		cron:   cron.New(),
		logger: logger.Named("SessionSweeper"),
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule '%s': %w", schedule, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Session sweeper started", zap.Duration("ttl", s.ttl))
}

// Stop halts the schedule. The returned context is done once a running sweep finishes.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce performs a single sweep immediately.
func (s *Sweeper) RunOnce() (int, error) {
	removed, err := s.store.Sweep(s.now().Add(-s.ttl))
	if removed > 0 {
		sessionsSweptTotal.Add(float64(removed))
	}
	return removed, err
}

func (s *Sweeper) run() {
	removed, err := s.RunOnce()
	if err != nil {
		s.logger.Error("Session sweep failed", zap.Error(err))
		return
	}
	s.logger.Info("Session sweep finished", zap.Int("removed", removed))
}
