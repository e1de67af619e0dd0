package freight

import (
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-success response from a distributor
// freight API. Body is retained (truncated by the transport) for
// operator diagnostics.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s freight call failed (HTTP %d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s freight call failed (HTTP %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// AuthError represents a failed credential or token exchange. Kept
// distinct from APIError so callers can tell a bad secret from a bad
// freight request.
type AuthError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed (HTTP %d): %s", e.Provider, e.StatusCode, e.Body)
}

// MappingGapError reports cart SKUs with no resolvable distributor
// part number. Not a crash condition: checkout paths substitute a
// fallback rate, admin paths return the list.
type MappingGapError struct {
	SKUs []string
}

func (e *MappingGapError) Error() string {
	return fmt.Sprintf("no distributor mapping for SKUs: %s", strings.Join(e.SKUs, ", "))
}

// Sentinel errors for common outcomes.
var (
	// ErrNoCredentials indicates the shop has no distributor credentials on file.
	ErrNoCredentials = errors.New("no credentials configured")

	// ErrNoRates indicates the upstream returned zero distributions, or no
	// carrier was complete across all of them.
	ErrNoRates = errors.New("no usable rates")

	// ErrProviderNotFound indicates the requested provider is not registered.
	ErrProviderNotFound = errors.New("provider not found")
)

// IsMappingGap reports whether err is a MappingGapError and returns
// the missing SKUs when it is.
func IsMappingGap(err error) ([]string, bool) {
	var gap *MappingGapError
	if errors.As(err, &gap) {
		return gap.SKUs, true
	}
	return nil, false
}
