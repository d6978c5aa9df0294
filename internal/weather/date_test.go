package weather_test

import (
	"errors"
	"testing"

	"github.com/i474232898/weather-ku/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := weather.ParseDate("2024-04-22")
	require.NoError(t, err)
	assert.Equal(t, weather.Date{Year: 2024, Month: 4, Day: 22}, d)
	assert.Equal(t, "2024-4-22", d.String())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2024", "2024-4", "2024-4-1-1", "2024-x-1", "2024-4-256", "-4-1", "2024--1"} {
		t.Run(in, func(t *testing.T) {
			d, err := weather.ParseDate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, weather.ErrInvalidDate))
			assert.Equal(t, weather.Date{}, d)
		})
	}
}

func TestDate_Compare(t *testing.T) {
	a := weather.Date{Year: 2023, Month: 12, Day: 31}
	b := weather.Date{Year: 2024, Month: 1, Day: 1}
	c := weather.Date{Year: 2024, Month: 1, Day: 2}

	assert.True(t, a.Before(b))
	assert.True(t, c.After(b))
	assert.Equal(t, 0, b.Compare(b))
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
}

func TestDate_TextRoundTrip(t *testing.T) {
	var d weather.Date
	require.NoError(t, d.UnmarshalText([]byte("2024-4-22")))
	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-4-22", string(out))

	assert.ErrorIs(t, d.UnmarshalText([]byte("yesterday")), weather.ErrInvalidDate)
}
