package httpapi

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-ku/internal/common"
	"github.com/i474232898/weather-ku/internal/weather"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// float32 rejects reals a 32-bit column cannot hold.
	_ = v.RegisterValidation("float32", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && math.Abs(f) <= math.MaxFloat32
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// dateList reads a required list of dates from the "dates" query parameter.
func dateList(c *fiber.Ctx) ([]weather.Date, error) {
	raw := c.Query("dates")
	if strings.TrimSpace(raw) == "" {
		return nil, newAPIError(fiber.StatusBadRequest, CodeMissingQuery, "query parameter \"dates\" is required")
	}

	items := common.SplitList(raw)
	dates := make([]weather.Date, 0, len(items))
	for _, item := range items {
		d, err := weather.ParseDate(item)
		if err != nil {
			return nil, newAPIError(fiber.StatusBadRequest, CodeInvalidDate, err.Error())
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// rangeQuery holds the bounds of a ranged read.
type rangeQuery struct {
	Dates  []weather.Date `validate:"len=2"`
	Fields weather.FieldSet
}

func bindRange(c *fiber.Ctx) (rangeQuery, error) {
	var q rangeQuery

	dates, err := dateList(c)
	if err != nil {
		return q, err
	}
	q.Dates = dates
	if err := validate.Struct(q); err != nil {
		return q, newAPIError(fiber.StatusBadRequest, CodeInvalidQuery,
			fmt.Sprintf("\"dates\" must hold exactly a begin and an end date, got %d", len(dates)))
	}

	q.Fields, err = fieldSet(c.Query("values"))
	return q, err
}

func fieldSet(raw string) (weather.FieldSet, error) {
	var set weather.FieldSet
	for _, name := range common.SplitList(raw) {
		f, err := weather.ParseField(name)
		if err != nil {
			return 0, newAPIError(fiber.StatusBadRequest, CodeUnknownField, err.Error())
		}
		set = set.With(f)
	}
	return set, nil
}

// recordBody is one element of an insert request. Every field is required.
type recordBody struct {
	Date                        string   `json:"date" validate:"required"`
	WeatherCode                 *float64 `json:"weather_code" validate:"required,gte=0,lte=255"`
	TemperatureMax              *float64 `json:"temperature_max" validate:"required,float32"`
	TemperatureMin              *float64 `json:"temperature_min" validate:"required,float32"`
	PrecipitationSum            *float64 `json:"precipitation_sum" validate:"required,float32"`
	WindSpeedMax                *float64 `json:"wind_speed_max" validate:"required,float32"`
	PrecipitationProbabilityMax *float64 `json:"precipitation_probability_max" validate:"required,float32"`
}

func (b recordBody) toRecord() (weather.Record, error) {
	d, err := weather.ParseDate(b.Date)
	if err != nil {
		return weather.Record{}, err
	}
	return weather.Record{
		Date:                        d,
		WeatherCode:                 uint8(*b.WeatherCode),
		TemperatureMax:              float32(*b.TemperatureMax),
		TemperatureMin:              float32(*b.TemperatureMin),
		PrecipitationSum:            float32(*b.PrecipitationSum),
		WindSpeedMax:                float32(*b.WindSpeedMax),
		PrecipitationProbabilityMax: float32(*b.PrecipitationProbabilityMax),
	}, nil
}

// patchBody is one element of an update request. Absent fields stay unchanged.
type patchBody struct {
	WeatherCode                 *float64 `json:"weather_code" validate:"omitempty,gte=0,lte=255"`
	TemperatureMax              *float64 `json:"temperature_max" validate:"omitempty,float32"`
	TemperatureMin              *float64 `json:"temperature_min" validate:"omitempty,float32"`
	PrecipitationSum            *float64 `json:"precipitation_sum" validate:"omitempty,float32"`
	WindSpeedMax                *float64 `json:"wind_speed_max" validate:"omitempty,float32"`
	PrecipitationProbabilityMax *float64 `json:"precipitation_probability_max" validate:"omitempty,float32"`
}

func (b patchBody) toPatch() weather.Patch {
	var p weather.Patch
	if b.WeatherCode != nil {
		code := uint8(*b.WeatherCode)
		p.WeatherCode = &code
	}
	p.TemperatureMax = narrow(b.TemperatureMax)
	p.TemperatureMin = narrow(b.TemperatureMin)
	p.PrecipitationSum = narrow(b.PrecipitationSum)
	p.WindSpeedMax = narrow(b.WindSpeedMax)
	p.PrecipitationProbabilityMax = narrow(b.PrecipitationProbabilityMax)
	return p
}

func narrow(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}

// decodeBatch decodes a JSON array of objects into items and validates each
// one. Keys must match the json tags of T.
func decodeBatch[T any](c *fiber.Ctx) ([]T, error) {
	if ct := c.Get(fiber.HeaderContentType); ct != "" && !common.HasAny(strings.ToLower(ct), "json") {
		return nil, newAPIError(fiber.StatusUnsupportedMediaType, CodeInvalidBody, "request body must be JSON")
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(c.Body(), &elems); err != nil {
		return nil, newAPIError(fiber.StatusBadRequest, CodeInvalidBody, "request body must be a JSON array: "+err.Error())
	}

	fields := jsonFields(reflect.TypeFor[T]())
	items := make([]T, len(elems))
	for i, elem := range elems {
		if err := decodeObject(i, elem, fields, reflect.ValueOf(&items[i]).Elem()); err != nil {
			return nil, err
		}
		if err := validate.Struct(items[i]); err != nil {
			return nil, validationError(i, err)
		}
	}
	return items, nil
}

// jsonFields maps json tag names to struct field indexes.
func jsonFields(t reflect.Type) map[string]int {
	out := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			out[name] = i
		}
	}
	return out
}

func decodeObject(index int, data []byte, fields map[string]int, dst reflect.Value) *APIError {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return newAPIError(fiber.StatusBadRequest, CodeInvalidBody, fmt.Sprintf("item %d: must be a JSON object", index))
	}

	for _, key := range slices.Sorted(maps.Keys(obj)) {
		i, ok := fields[key]
		if !ok {
			return newAPIError(fiber.StatusBadRequest, CodeUnknownField, fmt.Sprintf("item %d: unknown field %q", index, key))
		}
		if err := json.Unmarshal(obj[key], dst.Field(i).Addr().Interface()); err != nil {
			code := CodeInvalidValue
			switch key {
			case "date":
				code = CodeInvalidDate
			case "weather_code":
				code = CodeInvalidWeatherCode
			}
			return newAPIError(fiber.StatusBadRequest, code, fmt.Sprintf("item %d: field %q: %s is not valid", index, key, obj[key]))
		}
	}
	return nil
}

func validationError(index int, err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newAPIError(fiber.StatusBadRequest, CodeInvalidBody, err.Error())
	}

	fe := verrs[0]
	msg := fmt.Sprintf("item %d: field %q failed %q", index, fe.Field(), fe.Tag())
	switch {
	case fe.Tag() == "required":
		return newAPIError(fiber.StatusBadRequest, CodeInvalidBody, fmt.Sprintf("item %d: field %q is required", index, fe.Field()))
	case fe.Field() == "weather_code":
		return newAPIError(fiber.StatusBadRequest, CodeInvalidWeatherCode, msg+": must be between 0 and 255")
	default:
		return newAPIError(fiber.StatusBadRequest, CodeInvalidValue, msg)
	}
}
