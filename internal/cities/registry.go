package cities

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCityNotFound is returned when a name is not part of the registry.
var ErrCityNotFound = errors.New("city not found")

// City is a fixed, named point on the map.
type City struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var usCities = []City{
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060},
	{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437},
	{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298},
	{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698},
	{Name: "Phoenix", Latitude: 33.4484, Longitude: -112.0740},
	{Name: "Philadelphia", Latitude: 39.9526, Longitude: -75.1652},
	{Name: "San Antonio", Latitude: 29.4241, Longitude: -98.4936},
	{Name: "San Diego", Latitude: 32.7157, Longitude: -117.1611},
	{Name: "Dallas", Latitude: 32.7767, Longitude: -96.7970},
	{Name: "Austin", Latitude: 30.2672, Longitude: -97.7431},
}

// Registry is a read-only, ordered set of cities.
type Registry struct {
	cities []City
	index  map[string]int
}

// NewRegistry returns the registry of the ten supported US cities.
func NewRegistry() *Registry {
	r := &Registry{
		cities: make([]City, len(usCities)),
		index:  make(map[string]int, len(usCities)),
	}
	copy(r.cities, usCities)
	for i, c := range r.cities {
		r.index[c.Name] = i
	}
	return r
}

// Lookup returns the city with the given name. Matching tolerates surrounding
// whitespace and differences in letter case.
func (r *Registry) Lookup(name string) (City, error) {
	if i, ok := r.index[name]; ok {
		return r.cities[i], nil
	}
	if i, ok := r.index[normalize(name)]; ok {
		return r.cities[i], nil
	}
	return City{}, ErrCityNotFound
}

// Contains reports whether Lookup would succeed for name.
func (r *Registry) Contains(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// List returns all cities in definition order.
func (r *Registry) List() []City {
	out := make([]City, len(r.cities))
	copy(out, r.cities)
	return out
}

// Default is the city selected for a fresh session.
func (r *Registry) Default() City {
	return r.cities[0]
}

// normalize title-cases a user supplied name. A Caser keeps state, so one is
// built per call.
func normalize(name string) string {
	return cases.Title(language.English).String(strings.TrimSpace(name))
}
