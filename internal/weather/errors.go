package weather

import (
	"errors"
	"fmt"
)

// Parse failures. A *ParseError unwraps to exactly one of these.
var (
	ErrInvalidDate                     = errors.New("invalid date")
	ErrInvalidWeatherCode              = errors.New("invalid weather code")
	ErrInvalidTemperature              = errors.New("invalid temperature")
	ErrInvalidPrecipitation            = errors.New("invalid precipitation")
	ErrInvalidWind                     = errors.New("invalid wind speed")
	ErrInvalidPrecipitationProbability = errors.New("invalid precipitation probability")
	ErrInvalidLine                     = errors.New("invalid line")
	ErrDuplicateDate                   = errors.New("duplicate date")

	// ErrColumnLengthMismatch is reported when a column does not carry one
	// value per date.
	ErrColumnLengthMismatch = errors.New("inconsistent number of values")
)

// Table and service failures.
var (
	ErrNotFound            = errors.New("date not found")
	ErrDuplicateKey        = errors.New("date already exists")
	ErrRangeNotSatisfiable = errors.New("range bound not present")
	ErrBatchMismatch       = errors.New("dates and updates differ in length")
	ErrEmptyBatch          = errors.New("empty batch")
	ErrNoData              = errors.New("no records in range")
	ErrNotAggregatable     = errors.New("field cannot be aggregated")
	ErrNotRunning          = errors.New("service is not accepting requests")
)

// ParseError describes why a token or line of input was rejected.
type ParseError struct {
	Kind   error
	Token  string
	Detail string
	Date   Date // set for ErrDuplicateDate
}

func (e *ParseError) Error() string {
	switch {
	case e.Kind == ErrDuplicateDate:
		return fmt.Sprintf("%v: %s", e.Kind, e.Date)
	case e.Detail != "" && e.Token != "":
		return fmt.Sprintf("%v %q: %s", e.Kind, e.Token, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	case e.Token != "":
		return fmt.Sprintf("%v: %q", e.Kind, e.Token)
	default:
		return e.Kind.Error()
	}
}

func (e *ParseError) Unwrap() error { return e.Kind }

// DateError ties a table or service failure to the date that caused it.
type DateError struct {
	Err  error
	Date Date
}

func (e *DateError) Error() string { return fmt.Sprintf("%v: %s", e.Err, e.Date) }

func (e *DateError) Unwrap() error { return e.Err }
