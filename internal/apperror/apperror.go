package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, client-visible error identifier.
type Code string

// Lookup pipeline codes.
const (
	IntentExtractionFailed  Code = "INTENT_EXTRACTION_FAILED"
	LocationRequired        Code = "LOCATION_REQUIRED"
	CurrentLocationRequired Code = "CURRENT_LOCATION_REQUIRED"
	LocationNotFound        Code = "LOCATION_NOT_FOUND"
	LocationTooBroad        Code = "LOCATION_TOO_BROAD"
	InvalidSelection        Code = "INVALID_SELECTION"
	LocationNotSupported    Code = "LOCATION_NOT_SUPPORTED"
	AIRateLimited           Code = "AI_RATE_LIMITED"
	AIServiceError          Code = "AI_SERVICE_ERROR"
	AIAuthError             Code = "AI_AUTH_ERROR"
	LookupError             Code = "LOOKUP_ERROR"
)

// Request-level codes.
const (
	InvalidRequest Code = "INVALID_REQUEST"
	Unauthorized   Code = "UNAUTHORIZED"
	NotFound       Code = "NOT_FOUND"
)

var codeMessageMap = map[Code]string{
	IntentExtractionFailed:  "could not understand the weather question",
	LocationRequired:        "a location is required",
	CurrentLocationRequired: "current location coordinates are required",
	LocationNotFound:        "location not found",
	LocationTooBroad:        "location is too broad, try a city name",
	InvalidSelection:        "selected location index is out of range",
	LocationNotSupported:    "location is not covered by the forecast provider",
	AIRateLimited:           "intent service is rate limited, try again later",
	AIServiceError:          "intent service is unavailable",
	AIAuthError:             "intent service rejected our credentials",
	LookupError:             "weather lookup failed",
	InvalidRequest:          "invalid request",
	Unauthorized:            "unauthorized",
	NotFound:                "not found",
}

var codeStatusMap = map[Code]int{
	IntentExtractionFailed:  http.StatusUnprocessableEntity,
	LocationRequired:        http.StatusBadRequest,
	CurrentLocationRequired: http.StatusBadRequest,
	LocationNotFound:        http.StatusNotFound,
	LocationTooBroad:        http.StatusBadRequest,
	InvalidSelection:        http.StatusBadRequest,
	LocationNotSupported:    http.StatusUnprocessableEntity,
	AIRateLimited:           http.StatusTooManyRequests,
	AIServiceError:          http.StatusServiceUnavailable,
	AIAuthError:             http.StatusBadGateway,
	LookupError:             http.StatusInternalServerError,
	InvalidRequest:          http.StatusBadRequest,
	Unauthorized:            http.StatusUnauthorized,
	NotFound:                http.StatusNotFound,
}

// Message returns the default message for a code.
func Message(c Code) string {
	if msg, ok := codeMessageMap[c]; ok {
		return msg
	}
	return codeMessageMap[LookupError]
}

// HTTPStatus returns the HTTP status a code is reported with.
func HTTPStatus(c Code) int {
	if status, ok := codeStatusMap[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is an error carrying a stable Code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an Error with the code's default message.
func New(c Code) *Error {
	return &Error{Code: c, Message: Message(c)}
}

// Newf returns an Error with a formatted message.
func Newf(c Code, format string, args ...any) *Error {
	return &Error{Code: c, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an underlying error.
func Wrap(c Code, err error) *Error {
	return &Error{Code: c, Message: Message(c), Err: err}
}

// From extracts the *Error in err's chain. Unclassified errors become LOOKUP_ERROR.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(LookupError, err)
}

// Is reports whether err carries code c.
func Is(err error, c Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == c
}
