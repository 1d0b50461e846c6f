package httpapi

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/i474232898/us-city-weather/internal/cities"
	"github.com/i474232898/us-city-weather/internal/weather"
)

const (
	chartWidth  = 720.0
	chartHeight = 300.0
	chartPad    = 48.0

	mapWidth  = 480.0
	mapHeight = 300.0

	// Bounding box of the contiguous US used for the map projection.
	mapMinLon, mapMaxLon = -125.0, -66.0
	mapMinLat, mapMaxLat = 24.0, 50.0
)

type pageData struct {
	Cities   []cityOption
	City     cities.City
	Current  string
	Max      string
	Min      string
	Warnings []string
	Error    string

	Markers  []mapMarker
	Chart    chartView
	HasChart bool
}

type cityOption struct {
	Name     string
	Selected bool
}

type mapMarker struct {
	Name     string
	X, Y, R  float64
	Selected bool
}

type chartView struct {
	Segments   []chartSegment
	MarkerX    float64
	ShowMarker bool
	YTicks     []axisTick
	XTicks     []axisTick
}

type chartSegment struct {
	Label  weather.Label
	Points string
}

type axisTick struct {
	Pos  float64
	Text string
}

func newPage(view weather.View, err error) pageData {
	p := pageData{
		City:     view.City,
		Warnings: view.Warnings,
		Markers:  buildMap(view.Cities, view.City.Name),
	}
	for _, c := range view.Cities {
		p.Cities = append(p.Cities, cityOption{Name: c.Name, Selected: c.Name == view.City.Name})
	}

	if err != nil {
		p.Error = pageError(err)
		p.Current, p.Max, p.Min = unavailable, unavailable, unavailable
		return p
	}

	p.Current = formatTemp(view.Summary.Current)
	p.Max = formatTemp(view.Summary.Max)
	p.Min = formatTemp(view.Summary.Min)
	p.Chart, p.HasChart = buildChart(view.Series)
	return p
}

const unavailable = "—"

func formatTemp(v float64) string {
	if math.IsNaN(v) {
		return unavailable
	}
	return fmt.Sprintf("%.1f°F", v)
}

func pageError(err error) string {
	var fetchErr *weather.FetchError
	if errors.As(err, &fetchErr) {
		return fmt.Sprintf("Error fetching data: %v", fetchErr.Err)
	}
	return "Weather data is not available for this city."
}

func buildMap(list []cities.City, selected string) []mapMarker {
	markers := make([]mapMarker, 0, len(list))
	for _, c := range list {
		m := mapMarker{
			Name: c.Name,
			X:    (c.Longitude - mapMinLon) / (mapMaxLon - mapMinLon) * mapWidth,
			Y:    (mapMaxLat - c.Latitude) / (mapMaxLat - mapMinLat) * mapHeight,
			R:    6,
		}
		if c.Name == selected {
			m.R = 11
			m.Selected = true
		}
		markers = append(markers, m)
	}
	return markers
}

// buildChart lays the series out as polylines, one per run of consecutive
// samples sharing a label. NaN temperatures break a run.
func buildChart(series weather.Series) (chartView, bool) {
	if len(series.Samples) == 0 {
		return chartView{}, false
	}

	tMin, tMax := series.Samples[0].Time, series.Samples[0].Time
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series.Samples {
		if s.Time.Before(tMin) {
			tMin = s.Time
		}
		if s.Time.After(tMax) {
			tMax = s.Time
		}
		if !math.IsNaN(s.TemperatureF) {
			lo = math.Min(lo, s.TemperatureF)
			hi = math.Max(hi, s.TemperatureF)
		}
	}
	if math.IsInf(lo, 1) {
		return chartView{}, false
	}
	if hi-lo < 2 {
		lo, hi = lo-1, hi+1
	}

	span := tMax.Sub(tMin)
	if span <= 0 {
		span = time.Hour
	}
	x := func(t time.Time) float64 {
		return chartPad + float64(t.Sub(tMin))/float64(span)*(chartWidth-2*chartPad)
	}
	y := func(v float64) float64 {
		return chartHeight - chartPad - (v-lo)/(hi-lo)*(chartHeight-2*chartPad)
	}

	var cv chartView
	var points []string
	var label weather.Label
	flush := func() {
		if len(points) > 0 {
			cv.Segments = append(cv.Segments, chartSegment{Label: label, Points: strings.Join(points, " ")})
		}
		points = nil
	}
	for _, s := range series.Samples {
		if math.IsNaN(s.TemperatureF) {
			flush()
			continue
		}
		if s.Label != label {
			flush()
			label = s.Label
		}
		points = append(points, fmt.Sprintf("%.1f,%.1f", x(s.Time), y(s.TemperatureF)))
	}
	flush()

	if !series.Boundary.Before(tMin) && !series.Boundary.After(tMax) {
		cv.ShowMarker = true
		cv.MarkerX = x(series.Boundary)
	}

	mid := (lo + hi) / 2
	for _, v := range []float64{lo, mid, hi} {
		cv.YTicks = append(cv.YTicks, axisTick{Pos: y(v), Text: fmt.Sprintf("%.0f°F", v)})
	}
	cv.XTicks = []axisTick{
		{Pos: x(tMin), Text: tMin.Format("Jan 2 15:04")},
		{Pos: x(tMax), Text: tMax.Format("Jan 2 15:04")},
	}
	return cv, true
}

var pageTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>US City Weather Dashboard</title>
<style>
body { font-family: sans-serif; margin: 1.5rem; }
.columns { display: flex; gap: 2rem; flex-wrap: wrap; }
.metrics { display: flex; gap: 1.5rem; }
.metric { border: 1px solid #ddd; padding: .5rem 1rem; }
.metric span { display: block; font-size: 1.6rem; }
.warning { background: #fff4ce; padding: .5rem; }
.error { background: #fde7e9; padding: .5rem; }
.historical { stroke: blue; }
.forecast { stroke: red; }
</style>
</head>
<body>
<h1>US City Weather Dashboard</h1>
<p>Select a city from the dropdown below to see its hourly temperature trend and location on the map.</p>
<form method="post" action="/select">
<label for="city">Select a city:</label>
<select id="city" name="city" onchange="this.form.submit()">
{{range .Cities}}<option value="{{.Name}}"{{if .Selected}} selected{{end}}>{{.Name}}</option>
{{end}}</select>
<noscript><button type="submit">Show</button></noscript>
</form>
<div class="columns">
<section>
<h2>Interactive City Map</h2>
<svg width="480" height="300" viewBox="0 0 480 300" role="img" aria-label="city map">
<rect width="480" height="300" fill="#f4f4f4"/>
{{range .Markers}}<circle cx="{{printf "%.1f" .X}}" cy="{{printf "%.1f" .Y}}" r="{{printf "%.0f" .R}}" fill="{{if .Selected}}green{{else}}blue{{end}}" fill-opacity="0.7"><title>{{.Name}}</title></circle>
{{end}}</svg>
</section>
<section>
<h2>Weather for: {{.City.Name}}</h2>
<p><strong>Coordinates:</strong> Latitude {{.City.Latitude}}, Longitude {{.City.Longitude}}</p>
{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}{{if .Error}}<p class="error">{{.Error}}</p>
{{end}}<h3>Key Metrics</h3>
<div class="metrics">
<div class="metric">Current Temp<span>{{.Current}}</span></div>
<div class="metric">Max Temp (Forecast)<span>{{.Max}}</span></div>
<div class="metric">Min Temp (Forecast)<span>{{.Min}}</span></div>
</div>
<h3>Hourly Temperature Trend</h3>
{{if .HasChart}}<svg width="720" height="300" viewBox="0 0 720 300" role="img" aria-label="hourly temperature chart">
{{range .Chart.YTicks}}<text x="4" y="{{printf "%.1f" .Pos}}" font-size="11">{{.Text}}</text>
{{end}}{{range .Chart.XTicks}}<text x="{{printf "%.1f" .Pos}}" y="294" font-size="11" text-anchor="middle">{{.Text}}</text>
{{end}}{{range .Chart.Segments}}<polyline class="{{.Label}}" fill="none" stroke-width="2" points="{{.Points}}"/>
{{end}}{{if .Chart.ShowMarker}}<line x1="{{printf "%.1f" .Chart.MarkerX}}" x2="{{printf "%.1f" .Chart.MarkerX}}" y1="20" y2="252" stroke="green" stroke-dasharray="4 4"/>
<text x="{{printf "%.1f" .Chart.MarkerX}}" y="16" font-size="11" fill="green">Current Time</text>
{{end}}</svg>
{{else}}<p>Select a city to see the temperature trend.</p>
{{end}}</section>
</div>
</body>
</html>
`))
