package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/geocoding"
	"github.com/foxxcyber/food-finder/internal/search"
)

// GeocodeRequest is the request body for geocoding
type GeocodeRequest struct {
	Address string `json:"address"`
}

// GeocodeResponse is a resolved address
type GeocodeResponse struct {
	Query       string     `json:"query"`
	IsZip       bool       `json:"is_zip"`
	Coordinates geo.LatLng `json:"coordinates"`
}

// geocodingFailures maps provider errors to responses. Order matters:
// ErrOverQueryLimit wraps ErrTransient.
var geocodingFailures = []struct {
	err    error
	status int
	msg    string
}{
	{geocoding.ErrNoResults, fiber.StatusNotFound, "no results found for the given location"},
	{geocoding.ErrInvalidAPIKey, fiber.StatusServiceUnavailable, "maps service is not configured"},
	{geocoding.ErrRequestDenied, fiber.StatusForbidden, "maps request was denied"},
	{geocoding.ErrOverQueryLimit, fiber.StatusTooManyRequests, "maps api quota exceeded"},
	{geocoding.ErrInvalidRequest, fiber.StatusBadRequest, "invalid maps request"},
	{geocoding.ErrTransient, fiber.StatusServiceUnavailable, "maps service is temporarily unavailable"},
	{context.DeadlineExceeded, fiber.StatusServiceUnavailable, "maps service is temporarily unavailable"},
}

func geocodingError(c *fiber.Ctx, err error) error {
	for _, f := range geocodingFailures {
		if errors.Is(err, f.err) {
			return Error(c, f.status, f.msg)
		}
	}
	return Error(c, fiber.StatusInternalServerError, "failed to process maps request")
}

// Geocode resolves an address or ZIP code through the shared geocoder, so
// results come from the same cache the search path uses
// POST /api/maps/geocode
func (h *Handler) Geocode(c *fiber.Ctx) error {
	var req GeocodeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return Error(c, fiber.StatusBadRequest, "address is required")
	}

	p, err := h.geocoder.Resolve(c.UserContext(), address)
	if err != nil {
		return geocodingError(c, err)
	}
	return Success(c, GeocodeResponse{
		Query:       address,
		IsZip:       search.ValidateZip(address),
		Coordinates: p,
	})
}

// ReverseGeocode turns a point into a street address; needs the Google provider
// POST /api/maps/reverse-geocode
func (h *Handler) ReverseGeocode(c *fiber.Ctx) error {
	if h.reverse == nil {
		return Error(c, fiber.StatusServiceUnavailable, "reverse geocoding is not configured")
	}

	var p geo.LatLng
	if err := c.BodyParser(&p); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !p.Valid() {
		return Error(c, fiber.StatusBadRequest, "latitude must be within ±90 and longitude within ±180")
	}

	result, err := h.reverse.ReverseGeocode(c.UserContext(), p.Latitude, p.Longitude)
	if err != nil {
		return geocodingError(c, err)
	}
	return Success(c, result)
}
