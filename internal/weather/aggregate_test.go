package weather_test

import (
	"testing"

	"github.com/i474232898/weather-ku/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	s, err := weather.Summarize(parseSample(t), weather.TemperatureMax)
	require.NoError(t, err)

	assert.Equal(t, "temperature_max", s.Field)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, (18+20.5+22.25)/3.0, s.Average, 1e-9)
	assert.Equal(t, 18.0, s.Minimum)
	assert.Equal(t, 22.25, s.Maximum)
}

func TestSummarize_Errors(t *testing.T) {
	_, err := weather.Summarize(parseSample(t), weather.WeatherCode)
	assert.ErrorIs(t, err, weather.ErrNotAggregatable)

	_, err = weather.Summarize(weather.NewEmptyTable(), weather.WindSpeedMax)
	assert.ErrorIs(t, err, weather.ErrNoData)
}
