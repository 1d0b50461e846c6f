package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/us-city-weather/internal/metrics"
	"github.com/i474232898/us-city-weather/internal/session"
	"github.com/i474232898/us-city-weather/internal/weather"
)

// Config controls which background jobs run. A zero interval disables a job.
type Config struct {
	PrefetchInterval time.Duration
	SweepInterval    time.Duration
	IdleTimeout      time.Duration

	// Cache, when set, has its expired entries purged on every sweep.
	Cache Purger
}

// Purger drops expired entries and reports how many were removed.
type Purger interface {
	Purge() int
}

// Scheduler periodically warms the response cache and drops idle sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	sessions  *session.Store
	metrics   *metrics.Collector
	cfg       Config
}

// New creates a new Scheduler. collector may be nil.
func New(service *weather.Service, sessions *session.Store, collector *metrics.Collector, cfg Config) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		sessions:  sessions,
		metrics:   collector,
		cfg:       cfg,
	}
}

// Start schedules the enabled jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	scheduled := 0

	if s.cfg.PrefetchInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.PrefetchInterval).Do(s.prefetch); err != nil {
			return err
		}
		scheduled++
	}

	if s.cfg.SweepInterval > 0 && s.cfg.IdleTimeout > 0 {
		if _, err := s.scheduler.Every(s.cfg.SweepInterval).Do(s.sweep); err != nil {
			return err
		}
		scheduled++
	}

	if scheduled == 0 {
		log.Println("scheduler: no jobs enabled; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) prefetch() {
	log.Println("scheduler: running weather prefetch job")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	failed := s.service.Warm(ctx)
	log.Printf("scheduler: completed weather prefetch job (%d failed)", failed)
}

func (s *Scheduler) sweep() {
	removed := s.sessions.Sweep(s.cfg.IdleTimeout)
	if removed > 0 {
		log.Printf("scheduler: dropped %d idle sessions", removed)
	}
	if s.metrics != nil {
		s.metrics.SetActiveSessions(s.sessions.Len())
	}
	if s.cfg.Cache != nil {
		if purged := s.cfg.Cache.Purge(); purged > 0 {
			log.Printf("scheduler: purged %d expired cache entries", purged)
		}
	}
}
