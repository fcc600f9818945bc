package models

import (
	"errors"
	"fmt"
)

// Error kinds for failed API calls.
const (
	KindValidation = "VALIDATION_ERROR"
	KindAuth       = "AUTH_ERROR"
	KindNotFound   = "NOT_FOUND"
	KindConnection = "CONNECTION_ERROR"
	KindServer     = "SERVER_ERROR"
)

// ErrActionInFlight is returned when an identical action on the same entity
// is still waiting on the server. It is a prevented invalid action, not a
// user-facing failure.
var ErrActionInFlight = errors.New("action already in flight")

// ErrNotAuthenticated is returned by operations that require a logged-in
// viewer when no session is present.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is the failure of a backend call, classified into the client's
// error taxonomy. Status is the HTTP status code, 0 when no response was
// received (connection errors).
type APIError struct {
	Kind    string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Predefined error constructors

func NewValidationError(status int, message string) *APIError {
	return &APIError{Kind: KindValidation, Status: status, Message: message}
}

func NewAuthError(status int, message string) *APIError {
	return &APIError{Kind: KindAuth, Status: status, Message: message}
}

func NewNotFoundError(message string) *APIError {
	return &APIError{Kind: KindNotFound, Status: 404, Message: message}
}

func NewConnectionError(err error) *APIError {
	return &APIError{Kind: KindConnection, Message: "no response from server", Err: err}
}

func NewServerError(status int, message string) *APIError {
	return &APIError{Kind: KindServer, Status: status, Message: message}
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// ErrorMessage extracts the server-provided message from err, falling back to
// the given generic message when the error carries none.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
