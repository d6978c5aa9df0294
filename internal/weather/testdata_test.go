package weather_test

import (
	"testing"

	"github.com/i474232898/weather-ku/internal/weather"
	"github.com/stretchr/testify/require"
)

// sample is deliberately out of date order; Parse sorts it.
const sample = `date: 2024-4-2 2024-4-1 2024-4-3
weather_code: 3 61.7 0
temperature_max: 20.5 18 22.25
temperature_min: 10 9.5 11
precipitation_sum: 0 4.2 0
wind_speed_max: 12 15.5 8
precipitation_probability_max: 10 80 0
`

func date(t *testing.T, s string) weather.Date {
	t.Helper()
	d, err := weather.ParseDate(s)
	require.NoError(t, err)
	return d
}

func parseSample(t *testing.T) *weather.Table {
	t.Helper()
	tbl, err := weather.Parse(sample)
	require.NoError(t, err)
	return tbl
}

func ptr[T any](v T) *T { return &v }
