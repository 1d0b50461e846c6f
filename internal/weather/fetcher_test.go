package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeProvider counts calls and returns a canned response or error.
type fakeProvider struct {
	calls atomic.Int32
	resp  Response
	err   error
	delay time.Duration
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchHourly(ctx context.Context, at Coordinates) (Response, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return Response{}, p.err
	}
	return p.resp, nil
}

// mapCache is a minimal unbounded Cache for tests.
type mapCache struct {
	mu   sync.Mutex
	data map[Coordinates]Response
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[Coordinates]Response)}
}

func (c *mapCache) Get(at Coordinates) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.data[at]
	return r, ok
}

func (c *mapCache) Put(at Coordinates, resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[at] = resp
}

func (c *mapCache) Delete(at Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, at)
}

var testCoords = Coordinates{Latitude: 40.7128, Longitude: -74.0060}

func TestFetcherMemoizes(t *testing.T) {
	p := &fakeProvider{resp: Response{Timezone: "America/New_York"}}
	f := NewFetcher(p, newMapCache(), nil)

	for i := 0; i < 2; i++ {
		resp, err := f.Fetch(context.Background(), testCoords)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Timezone != "America/New_York" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	}

	if got := p.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", got)
	}

	other := Coordinates{Latitude: 34.0522, Longitude: -118.2437}
	if _, err := f.Fetch(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.calls.Load(); got != 2 {
		t.Fatalf("expected a second call for new coordinates, got %d", got)
	}
}

func TestFetcherDoesNotCacheFailures(t *testing.T) {
	cause := errors.New("connection refused")
	p := &fakeProvider{err: cause}
	c := newMapCache()
	f := NewFetcher(p, c, nil)

	_, err := f.Fetch(context.Background(), testCoords)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped, got %v", err)
	}
	if fetchErr.Provider != "fake" || fetchErr.At != testCoords {
		t.Fatalf("unexpected error fields: %+v", fetchErr)
	}
	if _, ok := c.Get(testCoords); ok {
		t.Fatal("failed fetch must not be cached")
	}

	p.err = nil
	if _, err := f.Fetch(context.Background(), testCoords); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if got := p.calls.Load(); got != 2 {
		t.Fatalf("expected retry to hit provider again, got %d calls", got)
	}
}

func TestFetcherCoalescesConcurrentMisses(t *testing.T) {
	p := &fakeProvider{resp: Response{Timezone: "UTC"}, delay: 50 * time.Millisecond}
	f := NewFetcher(p, newMapCache(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), testCoords); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := p.calls.Load(); got != 1 {
		t.Fatalf("expected concurrent misses to share one call, got %d", got)
	}
}

func TestFetcherRefreshAndInvalidate(t *testing.T) {
	p := &fakeProvider{resp: Response{Timezone: "A"}}
	f := NewFetcher(p, newMapCache(), nil)

	if _, err := f.Fetch(context.Background(), testCoords); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p.resp = Response{Timezone: "B"}
	if _, err := f.Refresh(context.Background(), testCoords); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, _ := f.Fetch(context.Background(), testCoords)
	if resp.Timezone != "B" {
		t.Fatalf("expected refreshed response, got %s", resp.Timezone)
	}

	// A failed refresh keeps the last good entry.
	p.err = errors.New("boom")
	if _, err := f.Refresh(context.Background(), testCoords); err == nil {
		t.Fatal("expected refresh error")
	}
	resp, err := f.Fetch(context.Background(), testCoords)
	if err != nil || resp.Timezone != "B" {
		t.Fatalf("expected cached B, got %+v %v", resp, err)
	}

	f.Invalidate(testCoords)
	if _, err := f.Fetch(context.Background(), testCoords); err == nil {
		t.Fatal("expected provider error after invalidation")
	}
	if got := p.calls.Load(); got != 4 {
		t.Fatalf("expected 4 provider calls, got %d", got)
	}
}
