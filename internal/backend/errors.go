// ABOUTME: Error type for non-2xx backend responses
// ABOUTME: Carries the backend's human-readable message for error turns
package backend

import (
	"errors"
	"fmt"
)

// ErrNotPDF is returned when asked to upload a file without a .pdf extension
var ErrNotPDF = errors.New("file must be a PDF")

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

// UserMessage returns the text the backend meant for the operator
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server responded with status %d", e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
