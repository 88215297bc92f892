package api

import (
	"fmt"
	"net/http"
)

// Error represents an API error carrying its HTTP status
type Error struct {
	Status  int
	Message string
}

// NewError creates a new API error
func NewError(status int, message string) *Error {
	return &Error{
		Status:  status,
		Message: message,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// BadRequest returns a 400 error
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// Unauthorized returns a 401 error
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

// NotFound returns a 404 error
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Conflict returns a 409 error
func Conflict(message string) *Error {
	return NewError(http.StatusConflict, message)
}

// TooManyRequests returns a 429 error
func TooManyRequests(message string) *Error {
	return NewError(http.StatusTooManyRequests, message)
}

// Internal returns a 500 error
func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, message)
}
