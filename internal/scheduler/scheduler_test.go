package scheduler

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/i474232898/us-city-weather/internal/cache"
	"github.com/i474232898/us-city-weather/internal/cities"
	"github.com/i474232898/us-city-weather/internal/metrics"
	"github.com/i474232898/us-city-weather/internal/session"
	"github.com/i474232898/us-city-weather/internal/weather"
)

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) FetchHourly(ctx context.Context, at weather.Coordinates) (weather.Response, error) {
	p.calls.Add(1)
	return weather.Response{
		Timezone: "UTC",
		Hourly: &weather.Hourly{
			Time:          []string{"2024-01-15T09:00"},
			Temperature2m: []json.RawMessage{json.RawMessage("40")},
		},
	}, nil
}

func newService(p weather.Provider) *weather.Service {
	fetcher := weather.NewFetcher(p, cache.NewMemoryCache(32, time.Hour), nil)
	return weather.NewService(cities.NewRegistry(), fetcher, nil)
}

func TestSchedulerNoJobs(t *testing.T) {
	s := New(newService(&countingProvider{}), session.NewStore("New York"), nil, Config{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestSchedulerPrefetchWarmsEveryCity(t *testing.T) {
	p := &countingProvider{}
	s := New(newService(p), session.NewStore("New York"), nil, Config{PrefetchInterval: time.Hour})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for p.calls.Load() < 10 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := p.calls.Load(); got != 10 {
		t.Fatalf("expected 10 prefetch calls, got %d", got)
	}
}

func TestSchedulerSweepUpdatesGauge(t *testing.T) {
	sessions := session.NewStore("New York")
	sessions.Create()
	sessions.Create()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())

	s := New(newService(&countingProvider{}), sessions, collector, Config{
		SweepInterval: time.Minute,
		IdleTimeout:   time.Hour,
	})
	s.sweep()

	if sessions.Len() != 2 {
		t.Fatalf("fresh sessions should survive, got %d", sessions.Len())
	}
	if got := testutil.ToFloat64(collector.ActiveSessions); got != 2 {
		t.Fatalf("active sessions gauge = %v, want 2", got)
	}
}

type fakePurger struct {
	calls int
}

func (p *fakePurger) Purge() int {
	p.calls++
	return 1
}

func TestSchedulerSweepPurgesCache(t *testing.T) {
	purger := &fakePurger{}
	s := New(newService(&countingProvider{}), session.NewStore("New York"), nil, Config{
		SweepInterval: time.Minute,
		IdleTimeout:   time.Hour,
		Cache:         purger,
	})
	s.sweep()

	if purger.calls != 1 {
		t.Fatalf("expected 1 purge, got %d", purger.calls)
	}
}
