package weather

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// tag names one line of the text format.
type tag int

const (
	tagDate tag = iota
	tagWeatherCode
	tagTemperatureMax
	tagTemperatureMin
	tagPrecipitationSum
	tagWindSpeedMax
	tagPrecipitationProbabilityMax

	numTags int = iota
)

func parseTag(s string) (tag, bool) {
	switch s {
	case "date":
		return tagDate, true
	case "weather_code":
		return tagWeatherCode, true
	case "temperature_max":
		return tagTemperatureMax, true
	case "temperature_min":
		return tagTemperatureMin, true
	case "precipitation_sum":
		return tagPrecipitationSum, true
	case "wind_speed_max":
		return tagWindSpeedMax, true
	case "precipitation_probability_max":
		return tagPrecipitationProbabilityMax, true
	default:
		return 0, false
	}
}

// columns holds the raw tokens of each line, indexed by tag.
type columns [numTags][]string

// Parse reads the seven-line tagged format and returns a Table sorted by date.
// Any failure aborts the whole parse; the returned error unwraps to one of the
// parse sentinels.
func Parse(text string) (*Table, error) {
	cols, err := splitColumns(text)
	if err != nil {
		return nil, err
	}

	dates, err := parseDates(cols[tagDate])
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(dates))
	for i, d := range dates {
		records[i].Date = d
	}

	// Each column's values are checked before its length, so a short column
	// holding a bad token reports the token.
	codes := make([]uint8, len(cols[tagWeatherCode]))
	for i, tok := range cols[tagWeatherCode] {
		if codes[i], err = parseWeatherCode(tok); err != nil {
			return nil, err
		}
	}
	if err := checkLength(len(codes), len(dates)); err != nil {
		return nil, err
	}
	for i, code := range codes {
		records[i].WeatherCode = code
	}

	reals := []struct {
		tag  tag
		kind error
		set  func(*Record, float32)
	}{
		{tagTemperatureMax, ErrInvalidTemperature, func(r *Record, v float32) { r.TemperatureMax = v }},
		{tagTemperatureMin, ErrInvalidTemperature, func(r *Record, v float32) { r.TemperatureMin = v }},
		{tagPrecipitationSum, ErrInvalidPrecipitation, func(r *Record, v float32) { r.PrecipitationSum = v }},
		{tagWindSpeedMax, ErrInvalidWind, func(r *Record, v float32) { r.WindSpeedMax = v }},
		{tagPrecipitationProbabilityMax, ErrInvalidPrecipitationProbability, func(r *Record, v float32) { r.PrecipitationProbabilityMax = v }},
	}
	for _, col := range reals {
		values := make([]float32, len(cols[col.tag]))
		for i, tok := range cols[col.tag] {
			if values[i], err = parseReal(tok, col.kind); err != nil {
				return nil, err
			}
		}
		if err := checkLength(len(values), len(dates)); err != nil {
			return nil, err
		}
		for i, v := range values {
			col.set(&records[i], v)
		}
	}

	slices.SortFunc(records, func(a, b Record) int { return a.Date.Compare(b.Date) })

	t := NewEmptyTable()
	for _, r := range records {
		t.entries.Set(r.Date, r)
	}
	return t, nil
}

func splitColumns(text string) (columns, error) {
	var cols columns

	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if len(lines) != numTags {
		return cols, &ParseError{Kind: ErrInvalidLine, Detail: "invalid number of lines"}
	}

	var seen [numTags]bool
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		parts := strings.Split(line, ":")
		if len(parts) != 2 {
			return cols, &ParseError{Kind: ErrInvalidLine, Token: line}
		}
		name := strings.TrimSpace(parts[0])
		t, ok := parseTag(name)
		if !ok {
			return cols, &ParseError{Kind: ErrInvalidLine, Token: line, Detail: "unknown tag " + strconv.Quote(name)}
		}
		if seen[t] {
			return cols, &ParseError{Kind: ErrInvalidLine, Token: line, Detail: "repeated tag " + strconv.Quote(name)}
		}
		seen[t] = true
		cols[t] = strings.Fields(parts[1])
	}
	return cols, nil
}

func parseDates(tokens []string) ([]Date, error) {
	dates := make([]Date, 0, len(tokens))
	seen := make(map[Date]struct{}, len(tokens))
	for _, tok := range tokens {
		d, err := ParseDate(tok)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[d]; dup {
			return nil, &ParseError{Kind: ErrDuplicateDate, Token: tok, Date: d}
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	return dates, nil
}

// parseWeatherCode accepts any real in [0, 255] and truncates it toward zero.
func parseWeatherCode(tok string) (uint8, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > math.MaxUint8 {
		return 0, &ParseError{Kind: ErrInvalidWeatherCode, Token: tok}
	}
	return uint8(v), nil
}

// parseReal accepts finite float32 values only; NaN and infinities have no
// JSON encoding.
func parseReal(tok string, kind error) (float32, error) {
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Kind: kind, Token: tok}
	}
	return float32(v), nil
}

func checkLength(got, want int) error {
	if got == want {
		return nil
	}
	return &ParseError{
		Kind:   ErrColumnLengthMismatch,
		Detail: strconv.Itoa(got) + " values for " + strconv.Itoa(want) + " dates",
	}
}
