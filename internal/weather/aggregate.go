package weather

import "math"

// Summary describes one measurement over a set of records.
type Summary struct {
	Field   string  `json:"field"`
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Minimum float64 `json:"minimum"`
	Maximum float64 `json:"maximum"`
}

// Summarize averages f over every record of t and reports its extremes.
// Weather codes are categories and cannot be aggregated.
func Summarize(t *Table, f Field) (Summary, error) {
	if f == WeatherCode {
		return Summary{}, ErrNotAggregatable
	}
	if t.Len() == 0 {
		return Summary{}, ErrNoData
	}

	s := Summary{
		Field:   f.Name(),
		Minimum: math.Inf(1),
		Maximum: math.Inf(-1),
	}
	var sum float64
	for p := t.entries.Oldest(); p != nil; p = p.Next() {
		v := p.Value.Value(f)
		sum += v
		s.Minimum = math.Min(s.Minimum, v)
		s.Maximum = math.Max(s.Maximum, v)
		s.Count++
	}
	s.Average = sum / float64(s.Count)
	return s, nil
}
