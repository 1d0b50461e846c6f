package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/us-city-weather/internal/weather"
	"github.com/sony/gobreaker"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
// Its hourly forecast is normalized into the same shape Open-Meteo returns.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	days    int
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, days int) *WeatherAPIProvider {
	if days <= 0 {
		days = 3
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		days:    days,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIForecast struct {
	Location struct {
		TzID string `json:"tz_id"`
	} `json:"location"`
	Forecast *struct {
		Forecastday []struct {
			Hour []struct {
				Time  string          `json:"time"`
				TempF json.RawMessage `json:"temp_f"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (p *WeatherAPIProvider) FetchHourly(ctx context.Context, at weather.Coordinates) (weather.Response, error) {
	if p.apiKey == "" {
		return weather.Response{}, fmt.Errorf("weatherapi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts "lat,lon".
		values.Set("q", at.Key())
		values.Set("days", strconv.Itoa(p.days))
		values.Set("aqi", "no")
		values.Set("alerts", "no")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Response{}, err
	}
	defer resp.Body.Close()

	var payload weatherAPIForecast
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Response{}, fmt.Errorf("weatherapi decode: %w", err)
	}

	return normalizeWeatherAPI(payload), nil
}

// normalizeWeatherAPI flattens the per-day hour lists. A payload without a
// forecast block keeps Hourly nil so shaping reports it as malformed.
func normalizeWeatherAPI(payload weatherAPIForecast) weather.Response {
	out := weather.Response{Timezone: payload.Location.TzID}
	if payload.Forecast == nil {
		return out
	}

	hourly := &weather.Hourly{
		Time:          []string{},
		Temperature2m: []json.RawMessage{},
	}
	for _, day := range payload.Forecast.Forecastday {
		for _, h := range day.Hour {
			hourly.Time = append(hourly.Time, h.Time)
			hourly.Temperature2m = append(hourly.Temperature2m, h.TempF)
		}
	}
	out.Hourly = hourly
	return out
}
