package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDocumentNotFound         = errors.New("document not found")
	ErrDocumentExists           = errors.New("document already exists")
	ErrInvalidInput             = errors.New("invalid input")
	ErrRankingDisabled          = errors.New("ranking is disabled")
	ErrStoreUnavailable         = errors.New("document store unavailable")
	ErrInternal                 = errors.New("internal error")
	ErrTimeout                  = errors.New("operation timed out")
	ErrWeightsNotOneDimensional = errors.New("array of weight must be one-dimensional")
	ErrWeightsTooShort          = errors.New("array of weight is too short")
	ErrWeightsNull              = errors.New("array of weight must not contain nulls")
	ErrWeightOutOfRange         = errors.New("weight out of range")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDocumentExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrWeightsNotOneDimensional),
		errors.Is(err, ErrWeightsTooShort),
		errors.Is(err, ErrWeightsNull),
		errors.Is(err, ErrWeightOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ErrRankingDisabled), errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}

}
