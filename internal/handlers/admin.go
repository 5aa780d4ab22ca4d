package handlers

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/middleware"
	"github.com/foxxcyber/food-finder/internal/models"
)

// AdminCreateUser creates a new user (admin only)
func (h *Handler) AdminCreateUser(c *fiber.Ctx) error {
	var req models.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if msg := credentialsError(req.Email, req.Password); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	if req.Role == "" {
		req.Role = models.RoleProvider
	}
	if !req.Role.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user, err := h.users.CreateUser(c.UserContext(), req.Email, hash, req.Role, &models.RegisterRequest{
		Name:         req.Name,
		Organization: req.Organization,
		RegionID:     req.RegionID,
	})
	if err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			return Error(c, fiber.StatusConflict, "email already in use")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create user")
	}

	return Created(c, user)
}

// AdminListUsers returns a page of accounts filtered by ?role, ?region_id,
// ?active and ?search
func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	params := &models.UserListParams{
		Limit:    limit,
		Offset:   offset,
		Role:     models.Role(strings.ToLower(c.Query("role"))),
		Search:   strings.Clone(strings.TrimSpace(c.Query("search"))),
		RegionID: c.QueryInt("region_id"),
	}
	if params.Role != "" && !params.Role.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return Error(c, fiber.StatusBadRequest, "active must be true or false")
		}
		params.Active = &active
	}

	users, total, err := h.users.ListUsers(c.UserContext(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list users")
	}

	return SuccessWithMeta(c, users, total, limit, offset)
}

// AdminGetUser returns a user by ID along with their listings
func (h *Handler) AdminGetUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.users.GetUserByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get user")
	}

	locations, total, err := h.locations.ListLocations(c.UserContext(), &models.LocationListParams{
		Limit:      100,
		ProviderID: &user.ID,
	})
	if err != nil {
		log.Printf("Warning: failed to list locations for user %d: %v", id, err)
		locations = []*models.Location{}
	}

	return Success(c, fiber.Map{
		"user":           user,
		"locations":      locations,
		"location_count": total,
	})
}

// AdminUpdateUser updates a user with admin privileges
func (h *Handler) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Role != nil && !req.Role.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}
	if id == middleware.GetUserID(c) && req.Active != nil && !*req.Active {
		return Error(c, fiber.StatusBadRequest, "cannot deactivate your own account")
	}

	user, err := h.users.AdminUpdateUser(c.UserContext(), id, &req)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return Success(c, user)
}

// AdminDeleteUser deletes a user
func (h *Handler) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	if id == middleware.GetUserID(c) {
		return Error(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	if err := h.users.DeleteUser(c.UserContext(), id); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete user")
	}

	return c.JSON(fiber.Map{
		"message": "user deleted successfully",
	})
}

// AdminGetStats returns system-wide statistics
func (h *Handler) AdminGetStats(c *fiber.Ctx) error {
	users, err := h.users.GetUserStats(c.UserContext())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get stats")
	}
	locations, err := h.locations.GetLocationStats(c.UserContext())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get stats")
	}

	return Success(c, models.AdminStats{
		Users:     *users,
		Locations: *locations,
	})
}

// AdminListLocations returns listings for moderation, pending first by default
func (h *Handler) AdminListLocations(c *fiber.Ctx) error {
	limit, offset := pagination(c, 20)
	params := &models.LocationListParams{
		Limit:  limit,
		Offset: offset,
		Status: models.LocationStatus(c.Query("status", string(models.LocationPending))),
	}
	if params.Status == "all" {
		params.Status = ""
	} else if !models.ValidLocationStatus(params.Status) {
		return Error(c, fiber.StatusBadRequest, "invalid status")
	}

	locations, total, err := h.locations.ListLocations(c.UserContext(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list locations")
	}

	return SuccessWithMeta(c, locations, total, limit, offset)
}

// ApproveLocation publishes a listing
func (h *Handler) ApproveLocation(c *fiber.Ctx) error {
	return h.moderate(c, models.LocationApproved, "")
}

// RejectLocation rejects a listing with an optional reason
func (h *Handler) RejectLocation(c *fiber.Ctx) error {
	var req models.ModerationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return Error(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	return h.moderate(c, models.LocationRejected, strings.TrimSpace(req.Reason))
}

// DeactivateLocation hides a listing without deleting it
func (h *Handler) DeactivateLocation(c *fiber.Ctx) error {
	return h.moderate(c, models.LocationInactive, "")
}

func (h *Handler) moderate(c *fiber.Ctx, status models.LocationStatus, reason string) error {
	loc, err := h.locations.SetLocationStatus(c.UserContext(), c.Params("id"), status, reason)
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update location status")
	}

	log.Printf("Location %s marked %s by user %d", loc.ID, status, middleware.GetUserID(c))
	return Success(c, loc)
}

// AdminDeleteLocation removes any listing and its photo
func (h *Handler) AdminDeleteLocation(c *fiber.Ctx) error {
	loc, err := h.locations.GetLocationByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, models.ErrLocationNotFound) {
			return Error(c, fiber.StatusNotFound, "location not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get location")
	}
	return h.deleteLocation(c, loc)
}
