package errors

import (
	"errors"
	"net/http"
)

const (
	HttpInternalError         = "internal_error"
	HttpInvalidJsonError      = "invalid_json"
	HttpInvalidWindowError    = "invalid_window"
	HttpValidationError       = "validation_failed"
	HttpStoreUnavailableError = "store_unavailable"
	HttpDuplicateEventError   = "duplicate_event"
	HttpRateLimitedError      = "rate_limited"
)

var (
	// ErrInvalidWindow marks missing or malformed date bounds where they are required.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrValidation marks request payloads that are missing required fields.
	ErrValidation = errors.New("validation error")

	// ErrNotFound is returned when a referenced product or customer does not exist.
	// Joins absorb it; it never reaches a client.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps connection and query failures of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrDuplicate is returned when a sale with the same id already exists.
	ErrDuplicate = errors.New("sale already exists")
)

// ErrorResponse is the error response body for every API error.
type ErrorResponse struct {
	Message   string      `json:"error"`
	ErrorType string      `json:"error_type"`
	Details   interface{} `json:"details,omitempty"`
}

// Classify maps an error to its HTTP status and error type.
// Unknown errors are internal errors.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidWindow):
		return http.StatusBadRequest, HttpInvalidWindowError
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, HttpValidationError
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict, HttpDuplicateEventError
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, HttpStoreUnavailableError
	default:
		return http.StatusInternalServerError, HttpInternalError
	}
}

// Response builds the status code and body for err.
func Response(err error) (int, ErrorResponse) {
	status, errorType := Classify(err)
	return status, ErrorResponse{
		Message:   err.Error(),
		ErrorType: errorType,
	}
}
