package weather

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher memoizes provider responses per coordinate pair. Failed calls are
// never cached, and concurrent misses for the same pair share one call.
type Fetcher struct {
	provider Provider
	cache    Cache
	observer Observer
	group    singleflight.Group
}

// NewFetcher creates a Fetcher. observer may be nil.
func NewFetcher(provider Provider, cache Cache, observer Observer) *Fetcher {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Fetcher{
		provider: provider,
		cache:    cache,
		observer: observer,
	}
}

// Fetch returns the cached response for at, or calls the provider once and
// caches a successful result.
func (f *Fetcher) Fetch(ctx context.Context, at Coordinates) (Response, error) {
	if resp, ok := f.cache.Get(at); ok {
		f.observer.ObserveCacheLookup(true)
		return resp, nil
	}
	f.observer.ObserveCacheLookup(false)

	return f.load(ctx, at, "fetch:", true)
}

// Refresh calls the provider regardless of the cache and replaces the entry
// on success. A failed refresh leaves the existing entry alone.
func (f *Fetcher) Refresh(ctx context.Context, at Coordinates) (Response, error) {
	return f.load(ctx, at, "refresh:", false)
}

// Invalidate drops the cached response for at.
func (f *Fetcher) Invalidate(at Coordinates) {
	f.cache.Delete(at)
}

func (f *Fetcher) load(ctx context.Context, at Coordinates, prefix string, useCache bool) (Response, error) {
	v, err, _ := f.group.Do(prefix+at.Key(), func() (interface{}, error) {
		// A flight that finished just before this one may have filled the cache.
		if useCache {
			if resp, ok := f.cache.Get(at); ok {
				return resp, nil
			}
		}

		start := time.Now()
		resp, err := f.provider.FetchHourly(ctx, at)
		f.observer.ObserveFetch(f.provider.Name(), err, time.Since(start))
		if err != nil {
			log.Printf("ERROR: provider %s fetch failed for %s: %v", f.provider.Name(), at.Key(), err)
			return nil, &FetchError{Provider: f.provider.Name(), At: at, Err: err}
		}

		f.cache.Put(at, resp)
		return resp, nil
	})
	if err != nil {
		return Response{}, err
	}
	return v.(Response), nil
}
