// Package errors is the storefront's failure vocabulary. Repositories return
// the sentinels below, services turn them into *AppError values whose code
// and message are safe to show a shopper, and the HTTP layer asks Describe
// for the status and envelope of whatever reaches it.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes sent in the "code" field of an error envelope.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeConflict         = "CONFLICT"
	CodeAlreadyVoted     = "ALREADY_VOTED"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUnavailable      = "SERVICE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	// ErrConflict covers duplicate helpful votes and concurrent writes to
	// the same product row.
	ErrConflict = errors.New("conflict")
	// ErrServiceUnavail means a dependency (the rating lock, the broker)
	// did not answer in time and the request may be retried.
	ErrServiceUnavail = errors.New("service unavailable")
)

// AppError is an error a shopper is allowed to see. Err keeps the cause for
// errors.Is and for logs; it never reaches the response body.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(status int, code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: cause}
}

// NotFound reports a missing product, review or order by id.
func NotFound(resource, id string) *AppError {
	return newAppError(http.StatusNotFound, CodeNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// AlreadyExists reports a unique key clash, such as a second product with
// the same slug.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError(http.StatusConflict, CodeAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value), ErrAlreadyExists)
}

// Conflict is a 409 with a caller-chosen code.
func Conflict(code, message string) *AppError {
	return newAppError(http.StatusConflict, code, message, ErrConflict)
}

// AlreadyVoted is returned when a shopper marks the same review helpful
// twice.
func AlreadyVoted() *AppError {
	return Conflict(CodeAlreadyVoted, "you have already marked this review as helpful")
}

// InvalidInput rejects a request body, e.g. a rating outside 1..5 or an
// order without items.
func InvalidInput(message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

// InvalidParameter rejects a malformed path or query parameter.
func InvalidParameter(message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeInvalidParameter, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return newAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

// Forbidden is used when a shopper edits or deletes another shopper's review
// or reads another shopper's order.
func Forbidden(message string) *AppError {
	return newAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

// Internal hides err behind a generic message. The cause stays reachable
// through errors.Is/As for logging.
func Internal(err error) *AppError {
	return newAppError(http.StatusInternalServerError, CodeInternal, "an internal error occurred", err)
}

type fallback struct {
	sentinel error
	status   int
	code     string
	message  string
}

// fallbacks describe bare sentinels that were wrapped with fmt.Errorf but
// never turned into an *AppError. An empty message means err.Error() is
// shown as is.
var fallbacks = []fallback{
	{ErrNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
	{ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists, "resource already exists"},
	{ErrConflict, http.StatusConflict, CodeConflict, "resource was modified concurrently"},
	{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, ""},
	{ErrForbidden, http.StatusForbidden, CodeForbidden, "forbidden"},
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "unauthorized"},
	{ErrServiceUnavail, http.StatusServiceUnavailable, CodeUnavailable, "service temporarily unavailable"},
}

// Describe returns the status, code and client-safe message for err.
// Anything unrecognized is a 500 with a generic message.
func Describe(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}
	for _, f := range fallbacks {
		if errors.Is(err, f.sentinel) {
			if f.message == "" {
				return f.status, f.code, err.Error()
			}
			return f.status, f.code, f.message
		}
	}
	return http.StatusInternalServerError, CodeInternal, "an internal error occurred"
}

// HTTPStatus returns the response status for err.
func HTTPStatus(err error) int {
	status, _, _ := Describe(err)
	return status
}
