package service

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a failure reported by the backend with an HTTP status.
// Validation failures (422) carry a per-field error map distinct from the
// top-level message.
type APIError struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("service: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("service: request failed (status %d)", e.Status)
}

// HasFieldErrors reports whether the server returned per-field errors.
func (e *APIError) HasFieldErrors() bool {
	return len(e.Fields) > 0
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsValidation reports whether err is a 422 APIError carrying field errors.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity
}

// IsUnauthorized reports whether err is a 401 APIError. Kazisync never
// retries or refreshes on 401; it is surfaced like any other error.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
