package httpapi

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/us-city-weather/internal/cities"
	"github.com/i474232898/us-city-weather/internal/weather"
)

func hourlySeries(boundary time.Time, temps ...float64) weather.Series {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	s := weather.Series{Timezone: "UTC", Boundary: boundary}
	for i, v := range temps {
		ts := start.Add(time.Duration(i) * time.Hour)
		label := weather.LabelForecast
		if !ts.After(boundary) {
			label = weather.LabelHistorical
		}
		s.Samples = append(s.Samples, weather.Sample{Time: ts, TemperatureF: v, Label: label})
	}
	return s
}

func TestBuildChart(t *testing.T) {
	nan := math.NaN()
	midday := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	type segment struct {
		label  weather.Label
		points int
	}

	tests := []struct {
		name       string
		series     weather.Series
		wantOK     bool
		segments   []segment
		showMarker bool
		markerX    float64
	}{
		{
			name:       "historical then forecast",
			series:     hourlySeries(midday, 40, 42, 44, 46),
			wantOK:     true,
			segments:   []segment{{weather.LabelHistorical, 2}, {weather.LabelForecast, 2}},
			showMarker: true,
			markerX:    360, // 1.5h of 3h across the plot area
		},
		{
			name:       "missing value breaks a run",
			series:     hourlySeries(midday, 40, nan, 44, 46),
			wantOK:     true,
			segments:   []segment{{weather.LabelHistorical, 1}, {weather.LabelForecast, 2}},
			showMarker: true,
			markerX:    360,
		},
		{
			name:     "missing value inside one label",
			series:   hourlySeries(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), 40, nan, 44),
			wantOK:   true,
			segments: []segment{{weather.LabelHistorical, 1}, {weather.LabelHistorical, 1}},
			// boundary after the last sample
			showMarker: false,
		},
		{
			name:       "boundary before the series",
			series:     hourlySeries(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC), 40, 42),
			wantOK:     true,
			segments:   []segment{{weather.LabelForecast, 2}},
			showMarker: false,
		},
		{
			name:       "boundary on the first sample",
			series:     hourlySeries(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), 40, 42),
			wantOK:     true,
			segments:   []segment{{weather.LabelHistorical, 1}, {weather.LabelForecast, 1}},
			showMarker: true,
			markerX:    chartPad,
		},
		{
			name:   "all values missing",
			series: hourlySeries(midday, nan, nan),
			wantOK: false,
		},
		{
			name:   "empty series",
			series: weather.Series{Boundary: midday},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv, ok := buildChart(tt.series)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}

			if len(cv.Segments) != len(tt.segments) {
				t.Fatalf("got %d segments, want %d: %+v", len(cv.Segments), len(tt.segments), cv.Segments)
			}
			for i, want := range tt.segments {
				got := cv.Segments[i]
				if got.Label != want.label {
					t.Errorf("segment %d label = %s, want %s", i, got.Label, want.label)
				}
				if n := len(strings.Fields(got.Points)); n != want.points {
					t.Errorf("segment %d has %d points, want %d", i, n, want.points)
				}
			}

			if cv.ShowMarker != tt.showMarker {
				t.Fatalf("ShowMarker = %v, want %v", cv.ShowMarker, tt.showMarker)
			}
			if tt.showMarker && math.Abs(cv.MarkerX-tt.markerX) > 0.01 {
				t.Fatalf("MarkerX = %.2f, want %.2f", cv.MarkerX, tt.markerX)
			}
		})
	}
}

func TestBuildChartPadsFlatSeries(t *testing.T) {
	cv, ok := buildChart(hourlySeries(time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), 50, 50, 50))
	if !ok {
		t.Fatal("expected a chart")
	}

	want := []string{"49°F", "50°F", "51°F"}
	if len(cv.YTicks) != len(want) {
		t.Fatalf("got %d y ticks, want %d", len(cv.YTicks), len(want))
	}
	for i, w := range want {
		if cv.YTicks[i].Text != w {
			t.Errorf("tick %d = %s, want %s", i, cv.YTicks[i].Text, w)
		}
	}
	// The flat line sits midway up the plot area.
	if mid := cv.YTicks[1].Pos; math.Abs(mid-chartHeight/2) > 0.01 {
		t.Fatalf("midline at %.2f, want %.2f", mid, chartHeight/2)
	}
}

func TestBuildMapHighlightsSelection(t *testing.T) {
	markers := buildMap(cities.NewRegistry().List(), "Chicago")
	if len(markers) != 10 {
		t.Fatalf("expected 10 markers, got %d", len(markers))
	}

	selected := 0
	for _, m := range markers {
		if m.X < 0 || m.X > mapWidth || m.Y < 0 || m.Y > mapHeight {
			t.Errorf("%s marker out of bounds: (%.1f, %.1f)", m.Name, m.X, m.Y)
		}
		if m.Selected {
			selected++
			if m.Name != "Chicago" || m.R <= 6 {
				t.Errorf("unexpected selected marker: %+v", m)
			}
		}
	}
	if selected != 1 {
		t.Fatalf("expected exactly one selected marker, got %d", selected)
	}
}

func TestNewPageFormatsSummary(t *testing.T) {
	view := weather.View{
		City:    cities.City{Name: "Dallas"},
		Series:  hourlySeries(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), 50, 60.4),
		Summary: weather.Summary{Current: 50, Max: 60.4, Min: math.NaN()},
	}

	p := newPage(view, nil)
	if p.Current != "50.0°F" || p.Max != "60.4°F" || p.Min != unavailable {
		t.Fatalf("unexpected tiles: %q %q %q", p.Current, p.Max, p.Min)
	}
	if !p.HasChart || p.Error != "" {
		t.Fatalf("expected chart and no error: %+v", p)
	}
}
