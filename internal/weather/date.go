package weather

import (
	"cmp"
	"strconv"
	"strings"
)

// Date is a calendar day. Month and day are not range-checked; they only
// have to fit in a byte, matching what the backing file may contain.
type Date struct {
	Year  uint64
	Month uint8
	Day   uint8
}

// ParseDate builds a Date from a "Y-M-D" string. Zero padding is accepted
// ("2024-04-22"), but exactly three hyphen-separated numeric parts are required.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, &ParseError{Kind: ErrInvalidDate, Token: s}
	}

	year, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Date{}, &ParseError{Kind: ErrInvalidDate, Token: s, Detail: "invalid year " + strconv.Quote(parts[0])}
	}
	month, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Date{}, &ParseError{Kind: ErrInvalidDate, Token: s, Detail: "invalid month " + strconv.Quote(parts[1])}
	}
	day, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Date{}, &ParseError{Kind: ErrInvalidDate, Token: s, Detail: "invalid day " + strconv.Quote(parts[2])}
	}

	return Date{Year: year, Month: uint8(month), Day: uint8(day)}, nil
}

// String renders the date without zero padding, e.g. "2024-4-2".
func (d Date) String() string {
	var b strings.Builder
	b.Grow(10)
	b.WriteString(strconv.FormatUint(d.Year, 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatUint(uint64(d.Month), 10))
	b.WriteByte('-')
	b.WriteString(strconv.FormatUint(uint64(d.Day), 10))
	return b.String()
}

// Compare orders dates by year, then month, then day.
func (d Date) Compare(other Date) int {
	if c := cmp.Compare(d.Year, other.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(d.Month, other.Month); c != 0 {
		return c
	}
	return cmp.Compare(d.Day, other.Day)
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// MarshalText lets Dates appear as JSON strings and map keys.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
