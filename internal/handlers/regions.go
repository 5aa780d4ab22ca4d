package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
)

func regionID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	return id, err == nil && id > 0
}

// regionError renders repository failures; fallback is the 500 message
func regionError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, database.ErrRegionNotFound):
		return Error(c, fiber.StatusNotFound, "region not found")
	case errors.Is(err, database.ErrRegionExists):
		return Error(c, fiber.StatusConflict, "a region with this name already exists in the state")
	}
	return Error(c, fiber.StatusInternalServerError, fallback)
}

func normalizeState(state string) (string, bool) {
	state = strings.ToUpper(strings.TrimSpace(state))
	return state, len(state) == 2
}

// normalizeZipCodes trims and dedupes zips, keeping the 5-digit form; bad is
// the first invalid entry
func normalizeZipCodes(in []string) (zips []string, bad string) {
	zips = make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, z := range in {
		z = strings.TrimSpace(z)
		if !search.ValidateZip(z) {
			return nil, z
		}
		z = z[:5]
		if _, dup := seen[z]; dup {
			continue
		}
		seen[z] = struct{}{}
		zips = append(zips, z)
	}
	return zips, ""
}

// ListRegions returns a page of regions, optionally only those covering ?zip=
// GET /api/regions
func (h *Handler) ListRegions(c *fiber.Ctx) error {
	limit, offset := pagination(c, 50)
	params := &models.RegionListParams{
		Limit:   limit,
		Offset:  offset,
		Search:  strings.Clone(c.Query("search")),
		State:   strings.ToUpper(c.Query("state")),
		ZipCode: strings.Clone(strings.TrimSpace(c.Query("zip"))),
	}
	if params.ZipCode != "" && !search.ValidateZip(params.ZipCode) {
		return Error(c, fiber.StatusBadRequest, "zip must be a 5-digit or ZIP+4 code")
	}

	regions, total, err := h.regions.ListRegions(c.UserContext(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list regions")
	}
	return SuccessWithMeta(c, regions, total, limit, offset)
}

// GetRegion returns a region with its coverage counts
// GET /api/regions/:id
func (h *Handler) GetRegion(c *fiber.Ctx) error {
	id, ok := regionID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}
	region, err := h.regions.GetRegionByID(c.UserContext(), id)
	if err != nil {
		return regionError(c, err, "failed to get region")
	}
	return Success(c, region)
}

// CreateRegion adds a service area
// POST /api/admin/regions
func (h *Handler) CreateRegion(c *fiber.Ctx) error {
	var req models.CreateRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	state, ok := normalizeState(req.State)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "state must be a 2-letter code")
	}
	req.State = state

	zips, bad := normalizeZipCodes(req.ZipCodes)
	if bad != "" {
		return Error(c, fiber.StatusBadRequest, "invalid zip code: "+bad)
	}
	if len(zips) == 0 {
		return Error(c, fiber.StatusBadRequest, "at least one zip code is required")
	}
	req.ZipCodes = zips

	region, err := h.regions.CreateRegion(c.UserContext(), &req)
	if err != nil {
		return regionError(c, err, "failed to create region")
	}
	return Created(c, region)
}

// UpdateRegion applies a partial update
// PUT /api/admin/regions/:id
func (h *Handler) UpdateRegion(c *fiber.Ctx) error {
	id, ok := regionID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}

	var req models.UpdateRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return Error(c, fiber.StatusBadRequest, "name cannot be empty")
	}
	if req.State != nil {
		state, ok := normalizeState(*req.State)
		if !ok {
			return Error(c, fiber.StatusBadRequest, "state must be a 2-letter code")
		}
		req.State = &state
	}
	if req.ZipCodes != nil {
		zips, bad := normalizeZipCodes(*req.ZipCodes)
		if bad != "" {
			return Error(c, fiber.StatusBadRequest, "invalid zip code: "+bad)
		}
		if len(zips) == 0 {
			return Error(c, fiber.StatusBadRequest, "at least one zip code is required")
		}
		req.ZipCodes = &zips
	}

	region, err := h.regions.UpdateRegion(c.UserContext(), id, &req)
	if err != nil {
		return regionError(c, err, "failed to update region")
	}
	return Success(c, region)
}

// DeleteRegion removes a service area; its listings stay searchable by ZIP
// DELETE /api/admin/regions/:id
func (h *Handler) DeleteRegion(c *fiber.Ctx) error {
	id, ok := regionID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid region id")
	}
	if err := h.regions.DeleteRegion(c.UserContext(), id); err != nil {
		return regionError(c, err, "failed to delete region")
	}
	return Success(c, fiber.Map{"id": id, "deleted": true})
}

// GetRegionStates lists states that have regions
// GET /api/regions/states
func (h *Handler) GetRegionStates(c *fiber.Ctx) error {
	states, err := h.regions.GetDistinctStates(c.UserContext())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get states")
	}
	return Success(c, states)
}

// GetRegionStats returns directory-wide region coverage
// GET /api/regions/stats
func (h *Handler) GetRegionStats(c *fiber.Ctx) error {
	summary, err := h.regions.GetRegionSummary(c.UserContext())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get region stats")
	}
	return Success(c, summary)
}

// SearchRegions matches region names, states and exact ZIP codes
// GET /api/regions/search?q=
func (h *Handler) SearchRegions(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return Error(c, fiber.StatusBadRequest, "search query is required")
	}
	limit, _ := pagination(c, 20)

	regions, err := h.regions.SearchRegions(c.UserContext(), strings.Clone(query), limit)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to search regions")
	}
	return Success(c, regions)
}
