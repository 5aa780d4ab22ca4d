package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/middleware"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
	"github.com/foxxcyber/food-finder/internal/services"
)

const photoFormField = "photo"

func isStaff(c *fiber.Ctx) bool {
	role := middleware.GetUserRole(c)
	return role == models.RoleAdmin || role == models.RoleModerator
}

func ownsLocation(c *fiber.Ctx, loc *models.Location) bool {
	userID := middleware.GetUserID(c)
	return userID != 0 && loc.ProviderID != nil && *loc.ProviderID == userID
}

// canView reports whether the caller may see a listing that is not yet public
func canView(c *fiber.Ctx, loc *models.Location) bool {
	return loc.Status == models.LocationApproved || isStaff(c) || ownsLocation(c, loc)
}

func validateCoordinatePair(lat, lng *float64) string {
	if (lat == nil) != (lng == nil) {
		return "latitude and longitude must be provided together"
	}
	if lat != nil && !geo.ValidateCoordinates(*lat, *lng) {
		return "coordinates are out of range"
	}
	return ""
}

func validateCreateLocation(req *models.CreateLocationRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case strings.TrimSpace(req.City) == "":
		return "city is required"
	case len(req.State) != 2:
		return "state must be a 2-letter code"
	case !search.ValidateZip(strings.TrimSpace(req.ZipCode)):
		return "zip_code must be a 5-digit or ZIP+4 code"
	case req.CapacityMax != nil && *req.CapacityMax < 0:
		return "capacity_max cannot be negative"
	}
	return validateCoordinatePair(req.Latitude, req.Longitude)
}

func validateUpdateLocation(req *models.UpdateLocationRequest) string {
	switch {
	case req.Name != nil && strings.TrimSpace(*req.Name) == "":
		return "name cannot be empty"
	case req.State != nil && len(*req.State) != 2:
		return "state must be a 2-letter code"
	case req.ZipCode != nil && !search.ValidateZip(strings.TrimSpace(*req.ZipCode)):
		return "zip_code must be a 5-digit or ZIP+4 code"
	case req.CapacityMax != nil && *req.CapacityMax < 0:
		return "capacity_max cannot be negative"
	}
	return validateCoordinatePair(req.Latitude, req.Longitude)
}

func addressChanged(req *models.UpdateLocationRequest) bool {
	return req.Street != nil || req.City != nil || req.State != nil || req.ZipCode != nil
}

// locate geocodes an address; a failure leaves the listing without coordinates
func (h *Handler) locate(ctx context.Context, addr models.Address) *geo.LatLng {
	if h.listingGeocoder == nil {
		return nil
	}
	p, err := h.listingGeocoder.Resolve(ctx, addr.String())
	if err != nil {
		log.Printf("Warning: failed to geocode %q: %v", addr.String(), err)
		return nil
	}
	return &p
}

// loadOwnedLocation fetches :id and checks the caller may manage it
func (h *Handler) loadOwnedLocation(c *fiber.Ctx) (*models.Location, error) {
	loc, err := h.locations.GetLocationByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return nil, Error(c, fiber.StatusNotFound, "location not found")
		}
		return nil, Error(c, fiber.StatusInternalServerError, "failed to get location")
	}
	if !ownsLocation(c, loc) && !isStaff(c) {
		return nil, Error(c, fiber.StatusForbidden, "not your location")
	}
	return loc, nil
}

// ListMyLocations returns the caller's listings
func (h *Handler) ListMyLocations(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	userID := middleware.GetUserID(c)
	params := &models.LocationListParams{
		Limit:      limit,
		Offset:     offset,
		ProviderID: &userID,
	}
	if s := c.Query("status"); s != "" {
		params.Status = models.LocationStatus(s)
		if !models.ValidLocationStatus(params.Status) {
			return Error(c, fiber.StatusBadRequest, "invalid status")
		}
	}

	locations, total, err := h.locations.ListLocations(c.UserContext(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list locations")
	}

	return SuccessWithMeta(c, locations, total, limit, offset)
}

// CreateLocation submits a new listing for moderation
func (h *Handler) CreateLocation(c *fiber.Ctx) error {
	var req models.CreateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if msg := validateCreateLocation(&req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	userID := middleware.GetUserID(c)
	loc := models.NewLocation(&req, &userID)
	if loc.Coordinates == nil {
		loc.Coordinates = h.locate(c.UserContext(), loc.Address)
	}

	if err := h.locations.CreateLocation(c.UserContext(), loc); err != nil {
		log.Printf("Warning: failed to create location for user %d: %v", userID, err)
		return Error(c, fiber.StatusInternalServerError, "failed to create location")
	}

	return Created(c, loc)
}

// UpdateLocation edits a listing the caller manages
func (h *Handler) UpdateLocation(c *fiber.Ctx) error {
	loc, err := h.loadOwnedLocation(c)
	if loc == nil {
		return err
	}

	var req models.UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if msg := validateUpdateLocation(&req); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	if addressChanged(&req) && req.Latitude == nil {
		addr := loc.Address
		if req.Street != nil {
			addr.Street = *req.Street
		}
		if req.City != nil {
			addr.City = *req.City
		}
		if req.State != nil {
			addr.State = strings.ToUpper(*req.State)
		}
		if req.ZipCode != nil {
			addr.ZipCode = strings.TrimSpace(*req.ZipCode)
		}
		if p := h.locate(c.UserContext(), addr); p != nil {
			req.Latitude = &p.Latitude
			req.Longitude = &p.Longitude
		} else {
			// the old point belongs to the old address
			req.ClearCoordinates = true
		}
	}

	updated, err := h.locations.UpdateLocation(c.UserContext(), loc.ID, &req)
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update location")
	}

	return Success(c, updated)
}

// UpdateAvailability records the live status of a listing
func (h *Handler) UpdateAvailability(c *fiber.Ctx) error {
	loc, err := h.loadOwnedLocation(c)
	if loc == nil {
		return err
	}

	var req models.AvailabilityUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !models.ValidAvailability(req.CurrentStatus) {
		return Error(c, fiber.StatusBadRequest, "current_status must be one of open, limited, closed, unknown")
	}
	if req.CurrentCapacity != nil {
		if *req.CurrentCapacity < 0 {
			return Error(c, fiber.StatusBadRequest, "current_capacity cannot be negative")
		}
		if loc.Capacity.Max != nil && *req.CurrentCapacity > *loc.Capacity.Max {
			return Error(c, fiber.StatusBadRequest, "current_capacity exceeds capacity_max")
		}
	}

	updated, err := h.locations.UpdateAvailability(c.UserContext(), loc.ID, &req)
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update availability")
	}

	return Success(c, updated)
}

// DeleteMyLocation removes a listing the caller manages
func (h *Handler) DeleteMyLocation(c *fiber.Ctx) error {
	loc, err := h.loadOwnedLocation(c)
	if loc == nil {
		return err
	}
	return h.deleteLocation(c, loc)
}

func (h *Handler) deleteLocation(c *fiber.Ctx, loc *models.Location) error {
	if err := h.locations.DeleteLocation(c.UserContext(), loc.ID); err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete location")
	}

	if loc.PhotoKey != "" && h.photos != nil {
		if err := h.photos.DeletePhoto(c.UserContext(), loc.PhotoKey); err != nil {
			log.Printf("Warning: failed to delete photo %s: %v", loc.PhotoKey, err)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "location deleted successfully",
	})
}

// UploadLocationPhoto replaces the photo of a listing
func (h *Handler) UploadLocationPhoto(c *fiber.Ctx) error {
	if h.photos == nil {
		return Error(c, fiber.StatusServiceUnavailable, "photo storage is not configured")
	}

	loc, err := h.loadOwnedLocation(c)
	if loc == nil {
		return err
	}

	file, err := c.FormFile(photoFormField)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "photo file is required")
	}
	if file.Size > services.MaxPhotoSize {
		return Error(c, fiber.StatusRequestEntityTooLarge, "photo must be at most 5MB")
	}

	f, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to read photo")
	}
	defer f.Close()

	key, err := h.photos.UploadPhoto(c.UserContext(), loc.ID, f, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedPhotoType):
			return Error(c, fiber.StatusUnsupportedMediaType, "photo must be JPEG, PNG or WebP")
		case errors.Is(err, services.ErrPhotoTooLarge):
			return Error(c, fiber.StatusRequestEntityTooLarge, "photo must be at most 5MB")
		}
		log.Printf("Warning: failed to upload photo for location %s: %v", loc.ID, err)
		return Error(c, fiber.StatusInternalServerError, "failed to upload photo")
	}

	if err := h.locations.SetLocationPhoto(c.UserContext(), loc.ID, key); err != nil {
		if derr := h.photos.DeletePhoto(c.UserContext(), key); derr != nil {
			log.Printf("Warning: failed to clean up photo %s: %v", key, derr)
		}
		return Error(c, fiber.StatusInternalServerError, "failed to save photo")
	}

	if loc.PhotoKey != "" {
		if err := h.photos.DeletePhoto(c.UserContext(), loc.PhotoKey); err != nil {
			log.Printf("Warning: failed to delete old photo %s: %v", loc.PhotoKey, err)
		}
	}

	return Success(c, fiber.Map{
		"location_id": loc.ID,
		"has_photo":   true,
	})
}

// GetLocation returns a public listing; unpublished ones only to owners and staff
func (h *Handler) GetLocation(c *fiber.Ctx) error {
	loc, err := h.locations.GetLocationByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get location")
	}
	if !canView(c, loc) {
		return Error(c, fiber.StatusNotFound, "location not found")
	}

	return Success(c, loc)
}

// GetLocationPhoto streams a listing's photo
func (h *Handler) GetLocationPhoto(c *fiber.Ctx) error {
	if h.photos == nil {
		return Error(c, fiber.StatusNotFound, "photo not found")
	}

	loc, err := h.locations.GetLocationByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get location")
	}
	if !canView(c, loc) || loc.PhotoKey == "" {
		return Error(c, fiber.StatusNotFound, "photo not found")
	}

	photo, err := h.photos.OpenPhoto(c.UserContext(), loc.PhotoKey)
	if err != nil {
		if errors.Is(err, services.ErrPhotoNotFound) {
			return Error(c, fiber.StatusNotFound, "photo not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get photo")
	}

	c.Set(fiber.HeaderContentType, photo.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.SendStream(photo.Body, int(photo.Size))
}
