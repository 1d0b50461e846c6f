package weather

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/i474232898/us-city-weather/internal/cities"
	"github.com/i474232898/us-city-weather/internal/session"
)

// View is everything the dashboard renders for one city.
type View struct {
	City     cities.City   `json:"city"`
	Cities   []cities.City `json:"cities"`
	Series   Series        `json:"series"`
	Summary  Summary       `json:"summary"`
	Warnings []string      `json:"warnings,omitempty"`
}

// Service runs the lookup, fetch and shape pipeline for registry cities.
type Service struct {
	registry *cities.Registry
	fetcher  *Fetcher
	observer Observer

	clockMu sync.RWMutex
	now     func() time.Time

	// fetchTimeout caps one Build's wait on the provider, retries included.
	fetchTimeout time.Duration
}

// NewService creates a new Service. observer may be nil.
func NewService(registry *cities.Registry, fetcher *Fetcher, observer Observer) *Service {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Service{
		registry: registry,
		fetcher:  fetcher,
		observer: observer,
		now:      time.Now,
	}
}

// SetClock replaces the source of "now" used as the series boundary.
func (s *Service) SetClock(now func() time.Time) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	s.now = now
}

// SetFetchTimeout bounds how long Build waits for provider data. Zero leaves
// the caller's context as is.
func (s *Service) SetFetchTimeout(d time.Duration) {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	s.fetchTimeout = d
}

func (s *Service) clock() time.Time {
	s.clockMu.RLock()
	defer s.clockMu.RUnlock()
	return s.now()
}

// Cities lists the registry in definition order.
func (s *Service) Cities() []cities.City {
	return s.registry.List()
}

// HasCity reports whether name resolves to a registry city.
func (s *Service) HasCity(name string) bool {
	return s.registry.Contains(name)
}

// DefaultCity is the city a new session starts on.
func (s *Service) DefaultCity() cities.City {
	return s.registry.Default()
}

// Build fetches (or reuses) the hourly data for cityName and shapes it.
func (s *Service) Build(ctx context.Context, cityName string) (View, error) {
	city, err := s.registry.Lookup(cityName)
	if err != nil {
		return View{}, fmt.Errorf("lookup %q: %w", cityName, err)
	}

	view := View{City: city, Cities: s.registry.List()}

	s.clockMu.RLock()
	timeout := s.fetchTimeout
	s.clockMu.RUnlock()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := s.fetcher.Fetch(ctx, coordinatesOf(city))
	if err != nil {
		return view, err
	}

	start := time.Now()
	series, summary, warning, err := Shape(resp, s.clock())
	s.observer.ObserveShape(time.Since(start), warning != nil)
	if err != nil {
		log.Printf("ERROR: shaping weather for %s failed: %v", city.Name, err)
		return view, err
	}
	if warning != nil {
		log.Printf("WARN: %s for %s: %v", warning, city.Name, warning.Err)
		view.Warnings = append(view.Warnings, warning.String())
	}

	view.Series = series
	view.Summary = summary
	return view, nil
}

// Select handles a city selection: it validates the choice, records it on the
// session and rebuilds the view synchronously. An invalid name leaves the
// session untouched.
func (s *Service) Select(ctx context.Context, sess *session.Session, cityName string) (View, error) {
	city, err := s.registry.Lookup(cityName)
	if err != nil {
		return View{}, fmt.Errorf("select %q: %w", cityName, err)
	}

	if prev := sess.Selected(); prev != city.Name {
		log.Printf("DEBUG: session %s selected %s (was %s)", sess.ID, city.Name, prev)
	}
	sess.Select(city.Name)

	return s.Build(ctx, city.Name)
}

// Warm refreshes the cached response for every registry city concurrently and
// returns how many refreshes failed.
func (s *Service) Warm(ctx context.Context) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	for _, city := range s.registry.List() {
		wg.Add(1)
		go func(city cities.City) {
			defer wg.Done()

			if _, err := s.fetcher.Refresh(ctx, coordinatesOf(city)); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(city)
	}

	wg.Wait()
	return failed
}

func coordinatesOf(c cities.City) Coordinates {
	return Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
}
