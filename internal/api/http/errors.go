package httpapi

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-ku/internal/weather"
)

// Error codes reported in the "code" field of error payloads.
const (
	CodeMissingQuery        = "missing_query"
	CodeInvalidQuery        = "invalid_query"
	CodeInvalidDate         = "invalid_date"
	CodeInvalidWeatherCode  = "invalid_weather_code"
	CodeInvalidValue        = "invalid_value"
	CodeUnknownField        = "unknown_field"
	CodeDuplicateDate       = "duplicate_date"
	CodeDateNotFound        = "date_not_found"
	CodeRangeNotSatisfiable = "range_not_satisfiable"
	CodeBatchMismatch       = "batch_mismatch"
	CodeEmptyBatch          = "empty_batch"
	CodeInvalidBody         = "invalid_body"
	CodeNotAggregatable     = "not_aggregatable"
	CodeNoData              = "no_data"
	CodeUnavailable         = "unavailable"
	CodeNotFound            = "not_found"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeInternal            = "internal"
)

// APIError is a client-visible failure naming the violated precondition.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string { return e.Message }

func newAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// domainError maps weather errors onto HTTP statuses and codes.
func domainError(err error) *APIError {
	status, code := fiber.StatusInternalServerError, CodeInternal
	switch {
	case errors.Is(err, weather.ErrNotRunning):
		status, code = fiber.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, weather.ErrRangeNotSatisfiable):
		status, code = fiber.StatusRequestedRangeNotSatisfiable, CodeRangeNotSatisfiable
	case errors.Is(err, weather.ErrNotFound):
		status, code = fiber.StatusNotFound, CodeDateNotFound
	case errors.Is(err, weather.ErrDuplicateKey):
		status, code = fiber.StatusConflict, CodeDuplicateDate
	case errors.Is(err, weather.ErrDuplicateDate):
		status, code = fiber.StatusBadRequest, CodeDuplicateDate
	case errors.Is(err, weather.ErrBatchMismatch):
		status, code = fiber.StatusBadRequest, CodeBatchMismatch
	case errors.Is(err, weather.ErrEmptyBatch):
		status, code = fiber.StatusBadRequest, CodeEmptyBatch
	case errors.Is(err, weather.ErrInvalidDate):
		status, code = fiber.StatusBadRequest, CodeInvalidDate
	case errors.Is(err, weather.ErrInvalidWeatherCode):
		status, code = fiber.StatusBadRequest, CodeInvalidWeatherCode
	case errors.Is(err, weather.ErrNotAggregatable):
		status, code = fiber.StatusBadRequest, CodeNotAggregatable
	case errors.Is(err, weather.ErrNoData):
		status, code = fiber.StatusNotFound, CodeNoData
	}
	return newAPIError(status, code, err.Error())
}

// fiberCode names the generic statuses fiber raises itself.
func fiberCode(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return CodeNotFound
	case status == fiber.StatusMethodNotAllowed:
		return CodeMethodNotAllowed
	case status >= 500:
		return CodeInternal
	default:
		return CodeInvalidQuery
	}
}

// ErrorHandler renders every failure as {"error": true, "code": ..., "message": ...}.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr *APIError
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &fiberErr):
			apiErr = newAPIError(fiberErr.Code, fiberCode(fiberErr.Code), fiberErr.Message)
		default:
			apiErr = domainError(err)
		}

		if apiErr.Status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", apiErr.Status,
				"error", err,
			)
		}

		return c.Status(apiErr.Status).JSON(fiber.Map{
			"error":   true,
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	}
}
