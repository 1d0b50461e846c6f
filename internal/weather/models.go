package weather

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Label tags a sample as observed or predicted relative to the series boundary.
type Label string

const (
	LabelHistorical Label = "historical"
	LabelForecast   Label = "forecast"
)

// Coordinates identify a fetch target. The pair is compared exactly.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns a canonical string for the pair, used for logging and call coalescing.
func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

// Response is the raw hourly payload as the provider returned it.
// Temperatures are kept undecoded so bad entries can be tolerated individually.
type Response struct {
	Timezone string  `json:"timezone"`
	Hourly   *Hourly `json:"hourly"`
}

// Hourly holds the parallel time/temperature arrays of a Response.
type Hourly struct {
	Time          []string          `json:"time"`
	Temperature2m []json.RawMessage `json:"temperature_2m"`
}

// Sample is one localized hourly reading. TemperatureF is NaN when the
// provider sent nothing usable.
type Sample struct {
	Time         time.Time
	TemperatureF float64
	Label        Label
}

// MarshalJSON encodes NaN temperatures as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time         time.Time `json:"time"`
		TemperatureF *float64  `json:"temperatureF"`
		Label        Label     `json:"label"`
	}{
		Time:         s.Time,
		TemperatureF: nullable(s.TemperatureF),
		Label:        s.Label,
	})
}

// Series is a shaped, partitioned hourly temperature sequence.
// Samples are in provider order (ascending time).
type Series struct {
	Samples  []Sample  `json:"samples"`
	Timezone string    `json:"timezone"`
	Boundary time.Time `json:"boundary"`
}

// Historical returns the samples at or before the boundary.
func (s Series) Historical() []Sample {
	return s.filter(LabelHistorical)
}

// Forecast returns the samples after the boundary.
func (s Series) Forecast() []Sample {
	return s.filter(LabelForecast)
}

func (s Series) filter(l Label) []Sample {
	var out []Sample
	for _, smp := range s.Samples {
		if smp.Label == l {
			out = append(out, smp)
		}
	}
	return out
}

// Summary holds the three headline values. NaN means unavailable.
type Summary struct {
	Current float64
	Max     float64
	Min     float64
}

// MarshalJSON encodes unavailable values as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Current *float64 `json:"currentF"`
		Max     *float64 `json:"maxF"`
		Min     *float64 `json:"minF"`
	}{
		Current: nullable(s.Current),
		Max:     nullable(s.Max),
		Min:     nullable(s.Min),
	})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
