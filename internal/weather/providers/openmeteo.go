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

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: "https://api.open-meteo.com/v1/forecast",
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: defaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchHourly requests hourly 2m temperatures in Fahrenheit, letting the
// provider pick the timezone from the coordinates.
func (p *OpenMeteoProvider) FetchHourly(ctx context.Context, at weather.Coordinates) (weather.Response, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(at.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(at.Longitude, 'f', -1, 64))
		values.Set("hourly", "temperature_2m")
		values.Set("temperature_unit", "fahrenheit")
		values.Set("timezone", "auto")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Response{}, err
	}
	defer resp.Body.Close()

	var payload weather.Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Response{}, fmt.Errorf("openmeteo decode: %w", err)
	}

	return payload, nil
}
