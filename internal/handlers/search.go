package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
)

// SessionHeader carries the caller's search session id
const SessionHeader = "X-Search-Session"

const maxSessionIDLength = 64

const storeProbeTimeout = 5 * time.Second

// filterInput is the wire form of search filters, shared by query and body
type filterInput struct {
	Radius        *float64 `json:"radius,omitempty"`
	Status        []string `json:"status,omitempty"`
	CurrentStatus []string `json:"current_status,omitempty"`
	Service       []string `json:"service,omitempty"`
	Accessibility []string `json:"accessibility,omitempty"`
	Language      []string `json:"language,omitempty"`
	Limit         int      `json:"limit,omitempty"`
}

// LocateRequest is a browser-reported position (or failure) plus filters
type LocateRequest struct {
	search.ClientReport
	filterInput
}

// splitList reads a comma separated query parameter
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.Clone(part))
		}
	}
	return out
}

func filterInputFromQuery(c *fiber.Ctx) (filterInput, string) {
	in := filterInput{
		Status:        splitList(c.Query("status")),
		CurrentStatus: splitList(c.Query("current_status")),
		Service:       splitList(c.Query("service")),
		Accessibility: splitList(c.Query("accessibility")),
		Language:      splitList(c.Query("language")),
		Limit:         c.QueryInt("limit", 0),
	}
	if raw := c.Query("radius"); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, "radius must be a number of miles"
		}
		in.Radius = &r
	}
	return in, ""
}

// buildFilters validates in. Only staff may widen the search beyond approved
// listings.
func buildFilters(c *fiber.Ctx, in filterInput) (search.SearchFilters, string) {
	f := search.SearchFilters{
		RadiusMiles:           in.Radius,
		ServiceTypes:          in.Service,
		AccessibilityFeatures: in.Accessibility,
		Languages:             in.Language,
		Limit:                 in.Limit,
	}
	if f.RadiusMiles != nil && !(*f.RadiusMiles > 0) {
		return f, "radius must be positive"
	}
	if f.Limit < 0 {
		return f, "limit cannot be negative"
	}

	for _, s := range in.CurrentStatus {
		a := models.Availability(strings.ToLower(s))
		if !models.ValidAvailability(a) {
			return f, "invalid current_status: " + s
		}
		f.CurrentStatuses = append(f.CurrentStatuses, a)
	}

	if len(in.Status) == 0 || !isStaff(c) {
		f.Statuses = []models.LocationStatus{models.LocationApproved}
		return f, ""
	}
	for _, s := range in.Status {
		st := models.LocationStatus(strings.ToLower(s))
		if !models.ValidLocationStatus(st) {
			return f, "invalid status: " + s
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f, ""
}

// sessionID returns the caller's session id, issuing one when absent
func sessionID(c *fiber.Ctx) (string, bool) {
	id := strings.TrimSpace(c.Get(SessionHeader))
	if id == "" {
		id = uuid.NewString()
	}
	if len(id) > maxSessionIDLength {
		return "", false
	}
	id = strings.Clone(id)
	c.Set(SessionHeader, id)
	return id, true
}

// runSearch runs q in the caller's session and renders the outcome
func (h *Handler) runSearch(c *fiber.Ctx, q search.ParsedQuery, f search.SearchFilters) error {
	id, ok := sessionID(c)
	if !ok {
		return Error(c, fiber.StatusBadRequest, "invalid search session id")
	}

	res, ok, err := h.sessions.Run(c.UserContext(), id, q, f)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err != nil {
		return SearchError(c, err)
	}
	return Success(c, res)
}

// Search finds locations for a ZIP code, coordinate pair or address
// GET /api/search?q=
func (h *Handler) Search(c *fiber.Ctx) error {
	in, msg := filterInputFromQuery(c)
	if msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}
	f, msg := buildFilters(c, in)
	if msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	q := search.Parse(strings.Clone(c.Query("q")))
	return h.runSearch(c, q, f)
}

// Locate searches around a position reported by the browser
// POST /api/search/locate
func (h *Handler) Locate(c *fiber.Ctx) error {
	var req LocateRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	f, msg := buildFilters(c, req.filterInput)
	if msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	pos, err := search.Acquire(c.UserContext(), req.ClientReport, h.geolocationTimeout)
	if err != nil {
		return SearchError(c, err)
	}

	return h.runSearch(c, search.CoordinatesQuery(pos.Point()), f)
}

// ParseQuery previews how a query will be classified
// GET /api/search/parse?q=
func (h *Handler) ParseQuery(c *fiber.Ctx) error {
	return Success(c, search.Parse(c.Query("q")))
}

// LatestSearch returns the last accepted result of a session
// GET /api/search/sessions/:id
func (h *Handler) LatestSearch(c *fiber.Ctx) error {
	res, ok := h.sessions.Latest(c.Params("id"))
	if !ok {
		return Error(c, fiber.StatusNotFound, "no search for this session")
	}
	return Success(c, res)
}

// Health reports that the process is serving
// GET /health
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// StoreHealth reports connectivity and size of the location store
// GET /api/health/store
func (h *Handler) StoreHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), storeProbeTimeout)
	defer cancel()

	health, err := h.health.Health(ctx)
	if err != nil {
		if search.KindOf(err) == "" {
			return Error(c, fiber.StatusServiceUnavailable, "store health check failed")
		}
		return c.Status(searchErrorStatus(search.KindOf(err))).JSON(APIResponse{
			Success:   false,
			Data:      health,
			Error:     search.MessageOf(err),
			ErrorKind: string(search.KindOf(err)),
		})
	}
	return Success(c, health)
}
