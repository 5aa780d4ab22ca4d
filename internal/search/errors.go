package search

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a search failure
type ErrorKind string

const (
	KindInvalidQuery           ErrorKind = "invalid_query"
	KindStoreUnavailable       ErrorKind = "store_unavailable"
	KindEmptyStore             ErrorKind = "empty_store"
	KindNoResultsInRadius      ErrorKind = "no_results"
	KindGeocodingFailed        ErrorKind = "geocoding_failed"
	KindGeolocationDenied      ErrorKind = "geolocation_denied"
	KindGeolocationUnavailable ErrorKind = "geolocation_unavailable"
	KindGeolocationTimeout     ErrorKind = "geolocation_timeout"
)

const (
	msgStoreUnavailable       = "Database connection failed. Please try again later."
	msgEmptyStore             = "No food assistance locations have been listed yet. Please check back soon."
	msgGeocodingFailed        = "Failed to search by coordinates. Please check the address and try again."
	msgGeolocationDenied      = "Location access was denied. Please enter a ZIP code or address instead."
	msgGeolocationUnavailable = "Your location is currently unavailable. Please enter a ZIP code or address instead."
	msgGeolocationTimeout     = "Timed out while getting your location. Please try again or enter a ZIP code."
)

// Error is a classified search failure. Message is safe to show to users;
// Err holds the underlying cause and is never rendered.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if err is not a search error
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// MessageOf returns the user-facing message carried by err
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "Search failed. Please try again later."
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func invalidQuery(reason string) *Error {
	return newError(KindInvalidQuery, reason, nil)
}

func storeUnavailable(cause error) *Error {
	return newError(KindStoreUnavailable, msgStoreUnavailable, cause)
}

func emptyStore() *Error {
	return newError(KindEmptyStore, msgEmptyStore, nil)
}

func noResultsWithin(radiusMiles float64) *Error {
	return newError(KindNoResultsInRadius,
		fmt.Sprintf("No locations found within %s miles. Try increasing the search radius.", formatMiles(radiusMiles)),
		nil)
}

func noResultsForQuery(q ParsedQuery) *Error {
	switch q.Kind {
	case QueryZipcode:
		return newError(KindNoResultsInRadius,
			fmt.Sprintf("No locations found for ZIP code %s. Try a nearby ZIP code or search by address.", q.Value),
			nil)
	default:
		return newError(KindNoResultsInRadius,
			"No locations match your search. Try removing some filters or increasing the search radius.",
			nil)
	}
}

func geocodingFailed(cause error) *Error {
	return newError(KindGeocodingFailed, msgGeocodingFailed, cause)
}

func formatMiles(m float64) string {
	if m == float64(int64(m)) {
		return fmt.Sprintf("%d", int64(m))
	}
	return fmt.Sprintf("%.1f", m)
}
