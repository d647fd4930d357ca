package mteam

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid tracker configuration")
	// ErrNoData indicates a successful response without a payload
	ErrNoData = errors.New("tracker returned no data")
	// ErrNoFeed indicates the client was created without an RSS URL
	ErrNoFeed = errors.New("no RSS feed configured")
)

// APIError represents a non-successful tracker response
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("tracker API error: %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsUnauthorized checks if the error indicates an invalid API key
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
