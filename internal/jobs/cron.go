package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/foxxcyber/food-finder/internal/config"
	"github.com/foxxcyber/food-finder/internal/search"
)

const jobTimeout = time.Minute

// AvailabilityExpirer resets availability reports older than maxAge
type AvailabilityExpirer interface {
	ExpireStaleAvailability(ctx context.Context, maxAge time.Duration) (int64, error)
}

// HealthChecker probes the location store
type HealthChecker interface {
	Health(ctx context.Context) (search.StoreHealth, error)
}

// SessionSweeper evicts idle search sessions
type SessionSweeper interface {
	Sweep() int
}

// Deps are the targets of the scheduled jobs; nil ones are not scheduled
type Deps struct {
	Expirer  AvailabilityExpirer
	Health   HealthChecker
	Sessions SessionSweeper
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers every job whose schedule and target are set
func NewScheduler(cfg *config.Config, deps Deps) (*Scheduler, error) {
	c := cron.New()

	if deps.Health != nil && cfg.HealthCron != "" {
		if _, err := c.AddFunc(cfg.HealthCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			CheckStoreHealth(ctx, deps.Health)
		}); err != nil {
			return nil, fmt.Errorf("invalid HEALTH_CRON %q: %w", cfg.HealthCron, err)
		}
	}

	if deps.Expirer != nil && cfg.StatusExpiryCron != "" && cfg.StatusStaleAfter > 0 {
		if _, err := c.AddFunc(cfg.StatusExpiryCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()
			ExpireAvailability(ctx, deps.Expirer, cfg.StatusStaleAfter)
		}); err != nil {
			return nil, fmt.Errorf("invalid STATUS_EXPIRY_CRON %q: %w", cfg.StatusExpiryCron, err)
		}
	}

	if deps.Sessions != nil && cfg.SessionSweepCron != "" {
		if _, err := c.AddFunc(cfg.SessionSweepCron, func() {
			SweepSessions(deps.Sessions)
		}); err != nil {
			return nil, fmt.Errorf("invalid SESSION_SWEEP_CRON %q: %w", cfg.SessionSweepCron, err)
		}
	}

	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Len returns the number of scheduled jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// CheckStoreHealth logs the state of the location store
func CheckStoreHealth(ctx context.Context, h HealthChecker) (search.StoreHealth, error) {
	health, err := h.Health(ctx)
	if err != nil {
		log.Printf("Warning: [Cron] location store unhealthy: %v", err)
		return health, err
	}
	if health.RecordCount == 0 {
		log.Println("Warning: [Cron] location store is empty")
	}
	return health, nil
}

// ExpireAvailability resets availability reports older than maxAge to unknown
func ExpireAvailability(ctx context.Context, e AvailabilityExpirer, maxAge time.Duration) (int64, error) {
	n, err := e.ExpireStaleAvailability(ctx, maxAge)
	if err != nil {
		log.Printf("Warning: [Cron] failed to expire stale availability: %v", err)
		return 0, err
	}
	if n > 0 {
		log.Printf("[Cron] reset availability of %d location(s) not updated in %s", n, maxAge)
	}
	return n, nil
}

// SweepSessions evicts idle search sessions
func SweepSessions(s SessionSweeper) int {
	n := s.Sweep()
	if n > 0 {
		log.Printf("[Cron] evicted %d idle search session(s)", n)
	}
	return n
}
