// Package errors provides custom error types for squadwatch.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes as constants
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
)

// ErrNotConnected is returned when a frame is sent while the socket is not open.
var ErrNotConnected = errors.New("websocket is not connected")

// ErrNoSelection is returned by actions that need a selected squad.
var ErrNoSelection = errors.New("no squad selected")

// AppError represents an application-specific error with additional context.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a new not found error for a resource.
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s with id '%s' not found", resource, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// BadRequest creates a new bad request error.
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       ErrCodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// InternalError creates a new internal server error with a wrapped underlying error.
func InternalError(message string, err error) *AppError {
	return &AppError{
		Code:       ErrCodeInternalError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ValidationError creates a new validation error for a specific field.
func ValidationError(field string, message string) *AppError {
	return &AppError{
		Code:       ErrCodeValidationError,
		Message:    fmt.Sprintf("validation failed for field '%s': %s", field, message),
		HTTPStatus: http.StatusBadRequest,
	}
}

// ServiceUnavailable creates a new service unavailable error.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code:       ErrCodeServiceUnavailable,
		Message:    fmt.Sprintf("service '%s' is currently unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// RequestError is a non-2xx response from the orchestration backend.
type RequestError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Body    string `json:"-"`
}

// NewRequestError builds a RequestError from an HTTP status code.
func NewRequestError(status int, body string) *RequestError {
	return &RequestError{
		Message: "API Error: " + http.StatusText(status),
		Status:  status,
		Body:    body,
	}
}

func (e *RequestError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.Status, e.Body)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Upstream converts an error from the backend into an AppError suitable for
// the local gateway. Request errors keep their status class.
func Upstream(message string, err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	status := http.StatusBadGateway
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status == http.StatusNotFound {
		status = http.StatusNotFound
	}
	if errors.Is(err, ErrNoSelection) {
		status = http.StatusConflict
	}
	return &AppError{
		Code:       ErrCodeUpstream,
		Message:    message,
		HTTPStatus: status,
		Err:        err,
	}
}

// Wrap wraps an existing error with additional context, returning an AppError.
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Code:       appErr.Code,
			Message:    message + ": " + appErr.Message,
			HTTPStatus: appErr.HTTPStatus,
			Err:        appErr.Err,
		}
	}
	return InternalError(message, err)
}

// IsRequestError reports whether err is a RequestError, returning it.
func IsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// HTTPStatus returns the status code to use when surfacing err over HTTP.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
