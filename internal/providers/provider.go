// Package providers integrates the external metadata catalogs used to look
// up works: TMDB for movies and TV, RAWG for games, and a fixture catalog
// for development and unconfigured installs.
package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/scrypster/mnemon/pkg/types"
)

// ErrNotConfigured is returned when a provider's credential is missing.
var ErrNotConfigured = errors.New("provider not configured")

// APIError is a non-success response from a provider API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure reaching a provider.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Status is a provider's availability for UI feedback.
type Status string

const (
	// StatusAvailable means the provider is ready to use.
	StatusAvailable Status = "available"

	// StatusNotConfigured means the credential is missing.
	StatusNotConfigured Status = "not_configured"

	// StatusOffline means the circuit breaker is open after repeated
	// failures.
	StatusOffline Status = "offline"
)

// Gateway is a searchable metadata catalog. Implementations must be safe for
// concurrent use.
type Gateway interface {
	// Search returns one page of results for the query. page is 0-indexed.
	Search(ctx context.Context, query string, workType types.WorkType, page int) (*types.SearchPage, error)

	// Status reports the provider's current availability.
	Status() Status

	// Name identifies the provider in logs and UI.
	Name() string
}

// yearFromDate extracts the leading year from a "YYYY-MM-DD" date string,
// returning 0 when absent or malformed.
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}
