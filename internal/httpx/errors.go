// Package httpx renders API failures as JSON bodies.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"workshopmods/internal/telemetry"
)

// Error is the JSON body of a failed API call.
type Error struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"requestId"`
	Details   map[string]string `json:"details,omitempty"`
}

// StatusError is an error that knows its HTTP status and error code.
type StatusError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *StatusError) Error() string { return e.Message }

// WithDetails attaches extra key/value context to the response body.
func (e *StatusError) WithDetails(d map[string]string) *StatusError {
	e.Details = d
	return e
}

func statusError(status int, code, msg string) *StatusError {
	return &StatusError{Status: status, Code: code, Message: msg}
}

func BadRequest(msg string) *StatusError {
	return statusError(http.StatusBadRequest, "bad_request", msg)
}

func NotFound(msg string) *StatusError {
	return statusError(http.StatusNotFound, "not_found", msg)
}

func TooManyRequests(msg string) *StatusError {
	return statusError(http.StatusTooManyRequests, "rate_limited", msg)
}

// Unprocessable is used when a run cannot start from its inputs.
func Unprocessable(msg string) *StatusError {
	return statusError(http.StatusUnprocessableEntity, "unprocessable", msg)
}

func Unavailable(msg string) *StatusError {
	return statusError(http.StatusServiceUnavailable, "service_unavailable", msg)
}

// Internal wraps an unexpected failure as a 500.
func Internal(err error) *StatusError {
	msg := "internal server error"
	if err != nil {
		msg = err.Error()
	}
	return statusError(http.StatusInternalServerError, "internal_error", msg)
}

// Write renders err as JSON. Errors that are not a *StatusError become 500s.
// An api_error event goes to the logger carried by the request context.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	var se *StatusError
	if !errors.As(err, &se) {
		se = Internal(err)
	}
	telemetry.Event(*zerolog.Ctx(r.Context()), "api_error", map[string]string{
		"status": strconv.Itoa(se.Status),
		"code":   se.Code,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(se.Status)
	json.NewEncoder(w).Encode(Error{
		Code:      se.Code,
		Message:   se.Message,
		RequestID: RequestID(r),
		Details:   se.Details,
	})
}

// RequestID returns the X-Request-ID header or a fresh ID when it is absent.
func RequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
