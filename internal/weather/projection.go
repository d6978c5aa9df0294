package weather

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is one projected record: "date" first, then the selected fields in
// their fixed order.
type Object = *orderedmap.OrderedMap[string, any]

// Project builds one ordered object per entry, in table order.
func (t *Table) Project(fields FieldSet) []Object {
	selected := fields.Selected()
	out := make([]Object, 0, t.entries.Len())
	for p := t.entries.Oldest(); p != nil; p = p.Next() {
		obj := orderedmap.New[string, any](len(selected) + 1)
		obj.Set("date", p.Key.String())
		for _, f := range selected {
			obj.Set(f.Name(), p.Value.jsonValue(f))
		}
		out = append(out, obj)
	}
	return out
}

// JSON encodes the projection as an array. An empty table yields "[]".
func (t *Table) JSON(fields FieldSet) ([]byte, error) {
	return json.Marshal(t.Project(fields))
}

// Text renders the table in the seven-line tagged format accepted by Parse.
func (t *Table) Text() string {
	records := t.Records()

	var b strings.Builder
	writeLine := func(name string, value func(Record) string) {
		b.WriteString(name)
		b.WriteByte(':')
		for _, r := range records {
			b.WriteByte(' ')
			b.WriteString(value(r))
		}
		b.WriteByte('\n')
	}

	writeLine("date", func(r Record) string { return r.Date.String() })
	writeLine(WeatherCode.Name(), func(r Record) string {
		return strconv.FormatUint(uint64(r.WeatherCode), 10)
	})
	for _, f := range Fields()[1:] {
		writeLine(f.Name(), func(r Record) string {
			return strconv.FormatFloat(r.Value(f), 'f', -1, 32)
		})
	}
	return b.String()
}
