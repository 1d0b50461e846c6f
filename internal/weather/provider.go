package weather

import (
	"context"
	"time"
)

// Provider abstracts an hourly temperature source (Open-Meteo, WeatherAPI).
// Implementations return the payload normalized into a Response but otherwise
// untouched; shaping happens later.
type Provider interface {
	Name() string
	FetchHourly(ctx context.Context, at Coordinates) (Response, error)
}

// Cache is the contract the in-memory response cache must satisfy.
type Cache interface {
	Get(at Coordinates) (Response, bool)
	Put(at Coordinates, resp Response)
	Delete(at Coordinates)
}

// Observer receives pipeline measurements. The metrics collector implements it.
type Observer interface {
	ObserveFetch(provider string, err error, took time.Duration)
	ObserveCacheLookup(hit bool)
	ObserveShape(took time.Duration, timezoneFallback bool)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, error, time.Duration) {}
func (nopObserver) ObserveCacheLookup(bool)                   {}
func (nopObserver) ObserveShape(time.Duration, bool)          {}
