// Package errors defines the HTTP error taxonomy of the IndieAuth
// endpoints and its JSON wire format.
package errors

import (
	"fmt"
	"net/http"
)

// StatusPKCEFailed is the non-standard status used to signal a failed
// PKCE check to clients.
const StatusPKCEFailed = 419

// AppError is the standard application error shape.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // original cause, for logs only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New creates an AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail returns a copy carrying extra detail, so the predefined
// errors below are never mutated.
func (e *AppError) WithDetail(detail string) *AppError {
	out := *e
	out.Detail = detail
	return &out
}

// WithCause returns a copy carrying the original error.
func (e *AppError) WithCause(err error) *AppError {
	out := *e
	out.Err = err
	return &out
}

// FromError converts any error into an AppError, defaulting to an
// internal server error that preserves the cause.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// Predefined errors. The codes mirror OAuth error strings where one
// exists.
var (
	ErrBadRequest = New(http.StatusBadRequest, "invalid_request", "Missing or invalid parameter")

	ErrUnauthorized = New(http.StatusUnauthorized, "unauthorized", "Missing or invalid credential")

	ErrForbidden = New(http.StatusForbidden, "forbidden", "Forbidden")

	ErrPKCEFailed = New(StatusPKCEFailed, "pkce_validation_failed", "PKCE validation failed")

	ErrInternalServerError = New(http.StatusInternalServerError, "server_error", "Internal server error")
)
