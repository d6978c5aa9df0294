package weather

import (
	"fmt"
	"strings"
)

// Field identifies one measurement column of a Record.
type Field int

const (
	WeatherCode Field = iota
	TemperatureMax
	TemperatureMin
	PrecipitationSum
	WindSpeedMax
	PrecipitationProbabilityMax

	numFields int = iota
)

// Fields lists every measurement in output order.
func Fields() []Field {
	return []Field{
		WeatherCode,
		TemperatureMax,
		TemperatureMin,
		PrecipitationSum,
		WindSpeedMax,
		PrecipitationProbabilityMax,
	}
}

// Name is the JSON key and file tag of the field.
func (f Field) Name() string {
	switch f {
	case WeatherCode:
		return "weather_code"
	case TemperatureMax:
		return "temperature_max"
	case TemperatureMin:
		return "temperature_min"
	case PrecipitationSum:
		return "precipitation_sum"
	case WindSpeedMax:
		return "wind_speed_max"
	case PrecipitationProbabilityMax:
		return "precipitation_probability_max"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Alias is the short name accepted by the query API.
func (f Field) Alias() string {
	switch f {
	case WeatherCode:
		return "weather_code"
	case TemperatureMax:
		return "temp_max"
	case TemperatureMin:
		return "temp_min"
	case PrecipitationSum:
		return "precip_sum"
	case WindSpeedMax:
		return "max_wind"
	case PrecipitationProbabilityMax:
		return "prob_precip_max"
	default:
		return f.Name()
	}
}

func (f Field) String() string { return f.Name() }

// ParseField accepts either the short query alias or the full name.
func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	for _, f := range Fields() {
		if s == f.Alias() || s == f.Name() {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// FieldSet selects fields for projection. The empty set means all fields.
type FieldSet uint8

func NewFieldSet(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s = s.With(f)
	}
	return s
}

func (s FieldSet) With(f Field) FieldSet { return s | 1<<uint(f) }

func (s FieldSet) Has(f Field) bool { return s == 0 || s&(1<<uint(f)) != 0 }

func (s FieldSet) IsEmpty() bool { return s == 0 }

// Selected returns the chosen fields in output order.
func (s FieldSet) Selected() []Field {
	out := make([]Field, 0, numFields)
	for _, f := range Fields() {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Record is one day of observations.
type Record struct {
	Date                        Date    `json:"date"`
	WeatherCode                 uint8   `json:"weather_code"`
	TemperatureMax              float32 `json:"temperature_max"`
	TemperatureMin              float32 `json:"temperature_min"`
	PrecipitationSum            float32 `json:"precipitation_sum"`
	WindSpeedMax                float32 `json:"wind_speed_max"`
	PrecipitationProbabilityMax float32 `json:"precipitation_probability_max"`
}

// Value returns the measurement for f as a float.
func (r Record) Value(f Field) float64 {
	switch f {
	case WeatherCode:
		return float64(r.WeatherCode)
	case TemperatureMax:
		return float64(r.TemperatureMax)
	case TemperatureMin:
		return float64(r.TemperatureMin)
	case PrecipitationSum:
		return float64(r.PrecipitationSum)
	case WindSpeedMax:
		return float64(r.WindSpeedMax)
	case PrecipitationProbabilityMax:
		return float64(r.PrecipitationProbabilityMax)
	default:
		panic(fmt.Sprintf("weather: unknown field %d", int(f)))
	}
}

// jsonValue keeps the column's native type so encoders print 32-bit floats
// in their shortest form.
func (r Record) jsonValue(f Field) any {
	switch f {
	case WeatherCode:
		return r.WeatherCode
	case TemperatureMax:
		return r.TemperatureMax
	case TemperatureMin:
		return r.TemperatureMin
	case PrecipitationSum:
		return r.PrecipitationSum
	case WindSpeedMax:
		return r.WindSpeedMax
	case PrecipitationProbabilityMax:
		return r.PrecipitationProbabilityMax
	default:
		panic(fmt.Sprintf("weather: unknown field %d", int(f)))
	}
}

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	WeatherCode                 *uint8
	TemperatureMax              *float32
	TemperatureMin              *float32
	PrecipitationSum            *float32
	WindSpeedMax                *float32
	PrecipitationProbabilityMax *float32
}

// Apply returns r with the present fields of p written over it.
func (p Patch) Apply(r Record) Record {
	if p.WeatherCode != nil {
		r.WeatherCode = *p.WeatherCode
	}
	if p.TemperatureMax != nil {
		r.TemperatureMax = *p.TemperatureMax
	}
	if p.TemperatureMin != nil {
		r.TemperatureMin = *p.TemperatureMin
	}
	if p.PrecipitationSum != nil {
		r.PrecipitationSum = *p.PrecipitationSum
	}
	if p.WindSpeedMax != nil {
		r.WindSpeedMax = *p.WindSpeedMax
	}
	if p.PrecipitationProbabilityMax != nil {
		r.PrecipitationProbabilityMax = *p.PrecipitationProbabilityMax
	}
	return r
}

// Location is a point for which a forecast can be imported.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}
