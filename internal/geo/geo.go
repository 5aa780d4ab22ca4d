package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusMiles is the mean Earth radius used for great-circle distances
	EarthRadiusMiles = 3959.0

	kmPerMile = 1.609344
)

// ErrInvalidArgument is returned when a point fails range or finiteness checks
var ErrInvalidArgument = errors.New("invalid coordinates")

// LatLng is a geographic point in decimal degrees
type LatLng struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Valid reports whether both components are finite and inside their ranges.
// Bounds are inclusive.
func (p LatLng) Valid() bool {
	return ValidateCoordinates(p.Latitude, p.Longitude)
}

func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Latitude, p.Longitude)
}

// ValidateCoordinates checks a latitude/longitude pair
func ValidateCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DistanceMiles returns the Haversine great-circle distance between a and b.
// Both points must be valid; callers validate upstream.
func DistanceMiles(a, b LatLng) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, fmt.Errorf("%w: %v -> %v", ErrInvalidArgument, a, b)
	}

	// asin/sqrt noise would otherwise yield a tiny non-zero value
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0, nil
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// clamp keeps antipodal rounding from pushing h past 1
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(h)), nil
}

// MustDistanceMiles is DistanceMiles for call sites that have already validated
// both points. It panics on invalid input.
func MustDistanceMiles(a, b LatLng) float64 {
	d, err := DistanceMiles(a, b)
	if err != nil {
		panic(err)
	}
	return d
}

// MilesToKm converts miles to kilometers
func MilesToKm(miles float64) float64 {
	return miles * kmPerMile
}

// KmToMiles converts kilometers to miles
func KmToMiles(km float64) float64 {
	return km / kmPerMile
}

// BoundingBox returns the lat/lng box that contains every point within radiusKm
// of center. Stores use it as a cheap pre-filter before the exact distance check.
// The longitude half-width is taken at the circle's tangent points, which sit
// poleward of the center's latitude.
func BoundingBox(center LatLng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	// pad absorbs rounding at the rim
	ang := radiusKm/(EarthRadiusMiles*kmPerMile) + 1e-12
	latDelta := toDegrees(ang)
	minLat = math.Max(-90, center.Latitude-latDelta)
	maxLat = math.Min(90, center.Latitude+latDelta)
	if maxLat >= 90 || minLat <= -90 {
		return minLat, maxLat, -180, 180
	}

	ratio := math.Sin(ang) / math.Cos(toRadians(center.Latitude))
	if ratio >= 1 {
		return minLat, maxLat, -180, 180
	}
	lngDelta := toDegrees(math.Asin(ratio))
	minLng = center.Longitude - lngDelta
	maxLng = center.Longitude + lngDelta
	if minLng < -180 || maxLng > 180 {
		// box crosses the antimeridian; widen rather than split
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, minLng, maxLng
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
