package search

import (
	"context"
	"errors"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
)

// DefaultGeolocationTimeout bounds how long position acquisition may take
const DefaultGeolocationTimeout = 10 * time.Second

// Geolocation error codes reported by browsers
const (
	GeoCodePermissionDenied    = 1
	GeoCodePositionUnavailable = 2
	GeoCodeTimeout             = 3
)

// Position is a device position with its accuracy radius in meters
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

// Point returns the position as a LatLng
func (p Position) Point() geo.LatLng {
	return geo.LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
}

// GeolocationProvider acquires the caller's current position
type GeolocationProvider interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// Acquire asks p for a position, giving up after timeout. Every failure is a
// *Error of one of the geolocation kinds.
func Acquire(ctx context.Context, p GeolocationProvider, timeout time.Duration) (Position, error) {
	if timeout <= 0 {
		timeout = DefaultGeolocationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		pos Position
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		pos, err := p.CurrentPosition(ctx)
		done <- outcome{pos, err}
	}()

	select {
	case <-ctx.Done():
		return Position{}, GeolocationError(GeoCodeTimeout, ctx.Err())
	case out := <-done:
		if out.err != nil {
			return Position{}, classifyGeolocation(out.err)
		}
		if !geo.ValidateCoordinates(out.pos.Latitude, out.pos.Longitude) {
			return Position{}, GeolocationError(GeoCodePositionUnavailable, geo.ErrInvalidArgument)
		}
		return out.pos, nil
	}
}

// GeolocationError builds the typed error for a browser geolocation code
func GeolocationError(code int, cause error) *Error {
	switch code {
	case GeoCodePermissionDenied:
		return newError(KindGeolocationDenied, msgGeolocationDenied, cause)
	case GeoCodeTimeout:
		return newError(KindGeolocationTimeout, msgGeolocationTimeout, cause)
	default:
		return newError(KindGeolocationUnavailable, msgGeolocationUnavailable, cause)
	}
}

func classifyGeolocation(err error) error {
	switch KindOf(err) {
	case KindGeolocationDenied, KindGeolocationUnavailable, KindGeolocationTimeout:
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return GeolocationError(GeoCodeTimeout, err)
	}
	return GeolocationError(GeoCodePositionUnavailable, err)
}

// ClientReport is a position, or a failure code, reported by a browser
type ClientReport struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Accuracy  float64  `json:"accuracy,omitempty"`
	ErrorCode int      `json:"error_code,omitempty"`
}

// CurrentPosition implements GeolocationProvider
func (r ClientReport) CurrentPosition(ctx context.Context) (Position, error) {
	if r.ErrorCode != 0 {
		return Position{}, GeolocationError(r.ErrorCode, nil)
	}
	if r.Latitude == nil || r.Longitude == nil {
		return Position{}, GeolocationError(GeoCodePositionUnavailable, errors.New("position missing from report"))
	}
	return Position{Latitude: *r.Latitude, Longitude: *r.Longitude, Accuracy: r.Accuracy}, nil
}
