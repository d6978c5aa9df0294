package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-ku/internal/observability"
	"github.com/i474232898/weather-ku/internal/store"
	"github.com/i474232898/weather-ku/internal/weather"
)

const fixture = `date: 2024-4-1 2024-4-2 2024-4-3
weather_code: 61 3 0
temperature_max: 18 20.5 22.25
temperature_min: 9.5 10 11
precipitation_sum: 4.2 0 0
wind_speed_max: 15.5 12 8
precipitation_probability_max: 80 10 0
`

type nopPersister struct{}

func (nopPersister) Save(context.Context, string) error { return nil }

func newTestApp(t *testing.T) (*fiber.App, *weather.Service) {
	t.Helper()
	tbl, err := weather.Parse(fixture)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	svc := weather.NewService(store.NewMemoryStore(tbl), nopPersister{}, logger, observability.NewMetrics(reg), clockwork.NewFakeClock())
	return NewApp(svc, Options{Logger: logger, Gatherer: reg}), svc
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

type errorPayload struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(t *testing.T, body string) errorPayload {
	t.Helper()
	var p errorPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p), body)
	assert.True(t, p.Error)
	return p
}

func TestGetRange_Projection(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/q?dates=2024-4-1%202024-4-2&values=temp_max,weather_code", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `[
		{"date":"2024-4-1","weather_code":61,"temperature_max":18},
		{"date":"2024-4-2","weather_code":3,"temperature_max":20.5}
	]`, body)
	assert.True(t, strings.HasPrefix(body, `[{"date":"2024-4-1","weather_code":61,`), body)
}

func TestGetRange_AllFieldsOnVersionedPath(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/weather?dates=2024-04-03%202024-04-03", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `[{"date":"2024-4-3","weather_code":0,"temperature_max":22.25,"temperature_min":11,
		"precipitation_sum":0,"wind_speed_max":8,"precipitation_probability_max":0}]`, body)
}

func TestGetRange_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"missing dates", "/q", http.StatusBadRequest, CodeMissingQuery},
		{"one date", "/q?dates=2024-4-1", http.StatusBadRequest, CodeInvalidQuery},
		{"three dates", "/q?dates=2024-4-1%202024-4-2%202024-4-3", http.StatusBadRequest, CodeInvalidQuery},
		{"bad date", "/q?dates=2024-4-1%20tomorrow", http.StatusBadRequest, CodeInvalidDate},
		{"unknown field", "/q?dates=2024-4-1%202024-4-2&values=humidity", http.StatusBadRequest, CodeUnknownField},
		{"absent bound", "/q?dates=2024-4-1%202024-4-9", http.StatusRequestedRangeNotSatisfiable, CodeRangeNotSatisfiable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, decodeError(t, body).Code)
		})
	}
}

func TestGetAll(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/weather/all?values=max_wind", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"date":"2024-4-1","wind_speed_max":15.5},{"date":"2024-4-2","wind_speed_max":12},{"date":"2024-4-3","wind_speed_max":8}]`, body)
}

func TestGetStats(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/v1/weather/stats?dates=2024-4-1%202024-4-3&value=temp_min", "")
	require.Equal(t, http.StatusOK, status, body)

	var s weather.Summary
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	assert.Equal(t, "temperature_min", s.Field)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 10.1666, s.Average, 1e-3)
	assert.Equal(t, 9.5, s.Minimum)
	assert.Equal(t, 11.0, s.Maximum)

	status, body = do(t, app, http.MethodGet, "/api/v1/weather/stats?dates=2024-4-1%202024-4-3&value=weather_code", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeNotAggregatable, decodeError(t, body).Code)

	status, body = do(t, app, http.MethodGet, "/api/v1/weather/stats?dates=2024-4-1%202024-4-3", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeMissingQuery, decodeError(t, body).Code)
}

const newRecords = `[
	{"date":"2024-04-22","weather_code":3,"temperature_max":21.5,"temperature_min":8,"precipitation_sum":0,"wind_speed_max":14.2,"precipitation_probability_max":5},
	{"date":"2024-04-21","weather_code":80.9,"temperature_max":19,"temperature_min":7.5,"precipitation_sum":2.5,"wind_speed_max":20,"precipitation_probability_max":65}
]`

func TestInsert(t *testing.T) {
	app, svc := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/q", newRecords)
	require.Equal(t, http.StatusCreated, status, body)
	assert.JSONEq(t, `{"inserted":2}`, body)
	assert.Equal(t, 5, svc.Len())

	status, body = do(t, app, http.MethodGet, "/q?dates=2024-4-21%202024-4-22&values=weather_code", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `[{"date":"2024-4-21","weather_code":80},{"date":"2024-4-22","weather_code":3}]`, body)

	// Appended entries keep insertion order in the full dump.
	status, body = do(t, app, http.MethodGet, "/api/v1/weather/all?values=weather_code", "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasSuffix(body, `{"date":"2024-4-22","weather_code":3},{"date":"2024-4-21","weather_code":80}]`), body)
}

func TestInsert_Errors(t *testing.T) {
	full := func(date, code string) string {
		return `{"date":"` + date + `","weather_code":` + code + `,"temperature_max":1,"temperature_min":1,` +
			`"precipitation_sum":1,"wind_speed_max":1,"precipitation_probability_max":1}`
	}

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"existing date", `[` + full("2024-5-1", "1") + `,` + full("2024-4-2", "1") + `]`, http.StatusConflict, CodeDuplicateDate},
		{"repeated in batch", `[` + full("2024-5-1", "1") + `,` + full("2024-05-01", "2") + `]`, http.StatusBadRequest, CodeDuplicateDate},
		{"code out of range", `[` + full("2024-5-1", "300") + `]`, http.StatusBadRequest, CodeInvalidWeatherCode},
		{"negative code", `[` + full("2024-5-1", "-1") + `]`, http.StatusBadRequest, CodeInvalidWeatherCode},
		{"code as text", `[` + full("2024-5-1", `"sunny"`) + `]`, http.StatusBadRequest, CodeInvalidWeatherCode},
		{"bad date", `[` + full("May 1st", "1") + `]`, http.StatusBadRequest, CodeInvalidDate},
		{"non-numeric value", `[{"date":"2024-5-1","weather_code":1,"temperature_max":"warm","temperature_min":1,"precipitation_sum":1,"wind_speed_max":1,"precipitation_probability_max":1}]`, http.StatusBadRequest, CodeInvalidValue},
		{"missing field", `[{"date":"2024-5-1","weather_code":1}]`, http.StatusBadRequest, CodeInvalidBody},
		{"unknown field", `[{"date":"2024-5-1","humidity":40}]`, http.StatusBadRequest, CodeUnknownField},
		{"float overflow", `[` + strings.Replace(full("2024-5-1", "1"), `"wind_speed_max":1`, `"wind_speed_max":1e300`, 1) + `]`, http.StatusBadRequest, CodeInvalidValue},
		{"not an array", `{"date":"2024-5-1"}`, http.StatusBadRequest, CodeInvalidBody},
		{"malformed", `[{`, http.StatusBadRequest, CodeInvalidBody},
		{"empty batch", `[]`, http.StatusBadRequest, CodeEmptyBatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, svc := newTestApp(t)

			status, body := do(t, app, http.MethodPost, "/q", tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, decodeError(t, body).Code, body)
			assert.Equal(t, 3, svc.Len())
		})
	}
}

func TestInsert_RejectsNonJSONContentType(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/q", strings.NewReader(newRecords))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestUpdate(t *testing.T) {
	app, svc := newTestApp(t)

	status, body := do(t, app, http.MethodPut, "/q?dates=2024-4-3%202024-4-1", `[{"temperature_max":30},{"weather_code":95,"wind_speed_max":40.5}]`)
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"updated":2}`, body)

	all, err := svc.All()
	require.NoError(t, err)
	r, _ := all.Get(weather.Date{Year: 2024, Month: 4, Day: 3})
	assert.Equal(t, float32(30), r.TemperatureMax)
	assert.Equal(t, float32(11), r.TemperatureMin)
	r, _ = all.Get(weather.Date{Year: 2024, Month: 4, Day: 1})
	assert.Equal(t, uint8(95), r.WeatherCode)
	assert.Equal(t, float32(40.5), r.WindSpeedMax)
	assert.Equal(t, float32(18), r.TemperatureMax)
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"missing dates", "/q", `[{}]`, http.StatusBadRequest, CodeMissingQuery},
		{"absent date", "/q?dates=2024-4-1%202024-9-9", `[{},{}]`, http.StatusNotFound, CodeDateNotFound},
		{"count mismatch", "/q?dates=2024-4-1%202024-4-2", `[{}]`, http.StatusBadRequest, CodeBatchMismatch},
		{"repeated date", "/q?dates=2024-4-1%202024-4-1", `[{},{}]`, http.StatusBadRequest, CodeDuplicateDate},
		{"date in body", "/q?dates=2024-4-1", `[{"date":"2024-4-2"}]`, http.StatusBadRequest, CodeUnknownField},
		{"code out of range", "/q?dates=2024-4-1", `[{"weather_code":256}]`, http.StatusBadRequest, CodeInvalidWeatherCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, svc := newTestApp(t)
			before, err := svc.All()
			require.NoError(t, err)

			status, body := do(t, app, http.MethodPut, tt.target, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, tt.code, decodeError(t, body).Code, body)

			after, err := svc.All()
			require.NoError(t, err)
			assert.Equal(t, before.Records(), after.Records())
		})
	}
}

func TestDelete(t *testing.T) {
	app, svc := newTestApp(t)

	status, body := do(t, app, http.MethodDelete, "/api/v1/weather?dates=2024-4-1%202024-4-3", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"deleted":2}`, body)
	assert.Equal(t, 1, svc.Len())

	status, body = do(t, app, http.MethodDelete, "/q?dates=2024-4-2%202024-4-3", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, CodeDateNotFound, decodeError(t, body).Code)
	assert.Equal(t, 1, svc.Len())
}

func TestDrainingServiceRejectsRequests(t *testing.T) {
	app, svc := newTestApp(t)
	svc.Drain()

	status, body := do(t, app, http.MethodGet, "/q?dates=2024-4-1%202024-4-2", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, CodeUnavailable, decodeError(t, body).Code)

	status, body = do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, `"state":"draining"`)
}

func TestHealth(t *testing.T) {
	app, svc := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","state":"running","records":3,"last_flush":null}`, body)

	require.NoError(t, svc.Flush(context.Background()))
	_, body = do(t, app, http.MethodGet, "/health", "")
	assert.NotContains(t, body, `"last_flush":null`)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	do(t, app, http.MethodGet, "/q?dates=2024-4-1%202024-4-2", "")

	status, body := do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `weatherku_requests_total{operation="range",outcome="ok"} 1`)
	assert.Contains(t, body, "weatherku_records 3")
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, CodeNotFound, decodeError(t, body).Code)
}

func TestRequestIDHeader(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}
