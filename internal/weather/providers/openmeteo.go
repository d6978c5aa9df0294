package providers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/i474232898/weather-ku/internal/weather"
	"github.com/sony/gobreaker"
)

// DefaultOpenMeteoURL is the public forecast endpoint.
const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// Daily variables requested from Open-Meteo, one per measurement column.
const openMeteoDaily = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max,precipitation_probability_max"

// MaxForecastDays is the longest forecast Open-Meteo serves.
const MaxForecastDays = 16

// OpenMeteoProvider implements weather.DailyProvider for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates a provider against baseURL. An empty baseURL
// selects DefaultOpenMeteoURL.
func NewOpenMeteoProvider(client *http.Client, baseURL string, backoff BackoffConfig) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: backoff},
		circuit: cb,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoDailyResponse struct {
	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*float64 `json:"weather_code"`
		TemperatureMax              []*float64 `json:"temperature_2m_max"`
		TemperatureMin              []*float64 `json:"temperature_2m_min"`
		PrecipitationSum            []*float64 `json:"precipitation_sum"`
		WindSpeedMax                []*float64 `json:"wind_speed_10m_max"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

// FetchDaily returns one Record per forecast day, in the order served.
func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, loc weather.Location, days int) ([]weather.Record, error) {
	if days <= 0 || days > MaxForecastDays {
		return nil, fmt.Errorf("openmeteo: days must be between 1 and %d", MaxForecastDays)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("daily", openMeteoDaily)
		values.Set("forecast_days", strconv.Itoa(days))
		values.Set("timezone", "auto")

		return http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("openmeteo %s: %w", loc.Key(), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var payload openMeteoDailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openmeteo: decode response: %w", err)
	}
	return payload.records()
}

func (r openMeteoDailyResponse) records() ([]weather.Record, error) {
	daily := r.Daily
	n := len(daily.Time)
	for _, col := range [][]*float64{
		daily.WeatherCode,
		daily.TemperatureMax,
		daily.TemperatureMin,
		daily.PrecipitationSum,
		daily.WindSpeedMax,
		daily.PrecipitationProbabilityMax,
	} {
		if len(col) != n {
			return nil, &weather.ParseError{
				Kind:   weather.ErrColumnLengthMismatch,
				Detail: fmt.Sprintf("%d values for %d days", len(col), n),
			}
		}
	}

	out := make([]weather.Record, n)
	for i, day := range daily.Time {
		d, err := weather.ParseDate(day)
		if err != nil {
			return nil, err
		}
		code := orZero(daily.WeatherCode[i])
		if math.IsNaN(code) || code < 0 || code > math.MaxUint8 {
			return nil, &weather.ParseError{Kind: weather.ErrInvalidWeatherCode, Token: strconv.FormatFloat(code, 'f', -1, 64)}
		}
		out[i] = weather.Record{
			Date:                        d,
			WeatherCode:                 uint8(code),
			TemperatureMax:              float32(orZero(daily.TemperatureMax[i])),
			TemperatureMin:              float32(orZero(daily.TemperatureMin[i])),
			PrecipitationSum:            float32(orZero(daily.PrecipitationSum[i])),
			WindSpeedMax:                float32(orZero(daily.WindSpeedMax[i])),
			PrecipitationProbabilityMax: float32(orZero(daily.PrecipitationProbabilityMax[i])),
		}
	}
	return out, nil
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
