package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/foxxcyber/food-finder/internal/geo"
)

// QueryKind tags the active variant of a ParsedQuery
type QueryKind string

const (
	QueryZipcode     QueryKind = "zipcode"
	QueryCoordinates QueryKind = "coordinates"
	QueryAddress     QueryKind = "address"
	QueryInvalid     QueryKind = "invalid"
)

const (
	reasonEmpty      = "empty or invalid query"
	reasonInvalidZip = "Please enter a valid 5-digit ZIP code"
)

var (
	zipPattern        = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	zipAttemptPattern = regexp.MustCompile(`^\d{1,5}(-\d{0,4})?$`)
	coordPattern      = regexp.MustCompile(`^(-?\d+\.?\d*),\s*(-?\d+\.?\d*)$`)
)

// ParsedQuery is the normalized form of raw search input. Exactly one of
// Value (zipcode, address), Point (coordinates) or Reason (invalid) is set,
// according to Kind.
type ParsedQuery struct {
	Kind   QueryKind   `json:"kind"`
	Value  string      `json:"value,omitempty"`
	Point  *geo.LatLng `json:"coordinates,omitempty"`
	Reason string      `json:"reason,omitempty"`
}

func ZipQuery(zip string) ParsedQuery {
	return ParsedQuery{Kind: QueryZipcode, Value: zip}
}

func CoordinatesQuery(p geo.LatLng) ParsedQuery {
	return ParsedQuery{Kind: QueryCoordinates, Point: &p}
}

func AddressQuery(text string) ParsedQuery {
	return ParsedQuery{Kind: QueryAddress, Value: text}
}

func InvalidQuery(reason string) ParsedQuery {
	return ParsedQuery{Kind: QueryInvalid, Reason: reason}
}

// ValidateZip reports whether s is a 5-digit or ZIP+4 code with no surrounding whitespace
func ValidateZip(s string) bool {
	return zipPattern.MatchString(s)
}

// Parse classifies raw user input. It never fails: malformed input yields an
// invalid query carrying a user-facing reason.
func Parse(raw string) ParsedQuery {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return InvalidQuery(reasonEmpty)
	}

	if ValidateZip(trimmed) {
		// padded ZIP input is rejected rather than normalized
		if trimmed != raw {
			return InvalidQuery(reasonInvalidZip)
		}
		return ZipQuery(trimmed)
	}

	// truncated ZIP entry must not be misread as a street address
	if zipAttemptPattern.MatchString(trimmed) {
		return InvalidQuery(reasonInvalidZip)
	}

	if m := coordPattern.FindStringSubmatch(trimmed); m != nil {
		lat, latErr := strconv.ParseFloat(m[1], 64)
		lng, lngErr := strconv.ParseFloat(m[2], 64)
		if latErr == nil && lngErr == nil && geo.ValidateCoordinates(lat, lng) {
			return CoordinatesQuery(geo.LatLng{Latitude: lat, Longitude: lng})
		}
	}

	return AddressQuery(trimmed)
}
