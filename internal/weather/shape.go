package weather

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var errLengthMismatch = errors.New("time and temperature_2m lengths differ")

// Accepted hourly timestamp layouts. Open-Meteo sends minutes-only local time,
// WeatherAPI uses a space separator.
var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

// Shape turns a raw provider response into a localized, partitioned series and
// its summary. now is converted once into the series timezone and used as the
// boundary for every sample.
//
// A non-nil warning means the timezone could not be resolved and UTC was used.
// Only a structurally malformed response produces an error. Individual bad
// samples are dropped (unparseable time) or kept as NaN (unusable temperature).
func Shape(resp Response, now time.Time) (Series, Summary, *TimezoneWarning, error) {
	if resp.Hourly == nil {
		return Series{}, Summary{}, nil, &ShapeError{Field: "hourly"}
	}
	if resp.Hourly.Time == nil {
		return Series{}, Summary{}, nil, &ShapeError{Field: "hourly.time"}
	}
	if resp.Hourly.Temperature2m == nil {
		return Series{}, Summary{}, nil, &ShapeError{Field: "hourly.temperature_2m"}
	}
	if len(resp.Hourly.Time) != len(resp.Hourly.Temperature2m) {
		return Series{}, Summary{}, nil, &ShapeError{Field: "hourly", Err: errLengthMismatch}
	}

	loc, warning := resolveLocation(resp.Timezone)
	boundary := now.In(loc)

	samples := make([]Sample, 0, len(resp.Hourly.Time))
	for i, raw := range resp.Hourly.Time {
		ts, ok := parseLocalTime(raw, loc)
		if !ok {
			continue
		}

		label := LabelForecast
		if !ts.After(boundary) {
			label = LabelHistorical
		}

		samples = append(samples, Sample{
			Time:         ts,
			TemperatureF: parseTemperature(resp.Hourly.Temperature2m[i]),
			Label:        label,
		})
	}

	series := Series{
		Samples:  samples,
		Timezone: loc.String(),
		Boundary: boundary,
	}
	return series, Summarize(samples), warning, nil
}

// Summarize derives the headline values from labelled samples.
//
// Current is the last historical temperature. When nothing is historical it
// falls back to the first sample overall, which is a forecast value; callers
// display it as "current" anyway. Max and Min ignore NaN and are NaN when no
// sample has a usable temperature.
func Summarize(samples []Sample) Summary {
	sum := Summary{Current: math.NaN(), Max: math.NaN(), Min: math.NaN()}
	if len(samples) == 0 {
		return sum
	}

	lastHistorical := -1
	for i, s := range samples {
		if s.Label == LabelHistorical {
			lastHistorical = i
		}

		t := s.TemperatureF
		if math.IsNaN(t) {
			continue
		}
		if math.IsNaN(sum.Max) || t > sum.Max {
			sum.Max = t
		}
		if math.IsNaN(sum.Min) || t < sum.Min {
			sum.Min = t
		}
	}

	if lastHistorical >= 0 {
		sum.Current = samples[lastHistorical].TemperatureF
	} else {
		sum.Current = samples[0].TemperatureF
	}
	return sum
}

func resolveLocation(name string) (*time.Location, *TimezoneWarning) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, &TimezoneWarning{Requested: name, Err: err}
	}
	return loc, nil
}

func parseLocalTime(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

func parseTemperature(raw json.RawMessage) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return math.NaN()
	}
	s = strings.Trim(s, `"`)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
