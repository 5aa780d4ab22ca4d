package handlers

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/config"
	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/geocoding"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
	"github.com/foxxcyber/food-finder/internal/services"
)

// UserStore is the account persistence used by auth and admin endpoints
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, role models.Role, req *models.RegisterRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int) error
	AdminUpdateUser(ctx context.Context, id int, req *models.AdminUpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
	ListUsers(ctx context.Context, params *models.UserListParams) ([]*models.User, int, error)
	GetUserStats(ctx context.Context) (*models.UserStats, error)
}

// RegionStore is the region persistence used by region endpoints
type RegionStore interface {
	ListRegions(ctx context.Context, params *models.RegionListParams) ([]*models.RegionWithStats, int, error)
	GetRegionByID(ctx context.Context, id int) (*models.RegionWithStats, error)
	CreateRegion(ctx context.Context, req *models.CreateRegionRequest) (*models.Region, error)
	UpdateRegion(ctx context.Context, id int, req *models.UpdateRegionRequest) (*models.Region, error)
	DeleteRegion(ctx context.Context, id int) error
	GetDistinctStates(ctx context.Context) ([]string, error)
	GetRegionSummary(ctx context.Context) (*models.RegionSummary, error)
	SearchRegions(ctx context.Context, query string, limit int) ([]*models.Region, error)
}

// LocationRepository is implemented by both the Postgres and MongoDB location stores
type LocationRepository interface {
	search.LocationStore
	CreateLocation(ctx context.Context, loc *models.Location) error
	GetLocationByID(ctx context.Context, id string) (*models.Location, error)
	UpdateLocation(ctx context.Context, id string, req *models.UpdateLocationRequest) (*models.Location, error)
	UpdateAvailability(ctx context.Context, id string, req *models.AvailabilityUpdateRequest) (*models.Location, error)
	SetLocationStatus(ctx context.Context, id string, status models.LocationStatus, reason string) (*models.Location, error)
	SetLocationPhoto(ctx context.Context, id, key string) error
	DeleteLocation(ctx context.Context, id string) error
	ListLocations(ctx context.Context, params *models.LocationListParams) ([]*models.Location, int, error)
	GetLocationStats(ctx context.Context) (*models.LocationStats, error)
	ExpireStaleAvailability(ctx context.Context, maxAge time.Duration) (int64, error)
}

// PhotoStore keeps location photos
type PhotoStore interface {
	UploadPhoto(ctx context.Context, locationID string, body io.Reader, size int64, contentType string) (string, error)
	OpenPhoto(ctx context.Context, key string) (*services.Photo, error)
	DeletePhoto(ctx context.Context, key string) error
}

// AddressResolver turns free text into a point
type AddressResolver interface {
	Resolve(ctx context.Context, text string) (geo.LatLng, error)
}

// ReverseGeocoder turns a point into an address
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*geocoding.Result, error)
}

// HealthChecker probes the location store
type HealthChecker interface {
	Health(ctx context.Context) (search.StoreHealth, error)
}

// Deps are the collaborators wired in by the server
type Deps struct {
	Config    *config.Config
	Users     UserStore
	Regions   RegionStore
	Locations LocationRepository
	Sessions  *search.Sessions
	Health    HealthChecker
	Geocoder  AddressResolver
	Reverse   ReverseGeocoder
	Photos    PhotoStore

	// ListingGeocoder places stored listings and must fail rather than
	// guess. Geocoder is used when it is nil.
	ListingGeocoder AddressResolver
}

// Handler holds all handler dependencies
type Handler struct {
	cfg       *config.Config
	users     UserStore
	regions   RegionStore
	locations LocationRepository
	sessions  *search.Sessions
	health    HealthChecker
	geocoder  AddressResolver
	reverse   ReverseGeocoder
	photos    PhotoStore

	listingGeocoder    AddressResolver
	geolocationTimeout time.Duration
}

// New creates a new Handler instance. Reverse and Photos may be nil.
func New(d Deps) *Handler {
	timeout := search.DefaultGeolocationTimeout
	if d.Config != nil && d.Config.GeolocationTimeout > 0 {
		timeout = d.Config.GeolocationTimeout
	}
	listing := d.ListingGeocoder
	if listing == nil {
		listing = d.Geocoder
	}
	return &Handler{
		cfg:                d.Config,
		users:              d.Users,
		regions:            d.Regions,
		locations:          d.Locations,
		sessions:           d.Sessions,
		health:             d.Health,
		geocoder:           d.Geocoder,
		reverse:            d.Reverse,
		photos:             d.Photos,
		listingGeocoder:    listing,
		geolocationTimeout: timeout,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return Error(c, code, message)
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 with data
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// searchErrorStatus maps a search failure kind to its HTTP status
func searchErrorStatus(kind search.ErrorKind) int {
	switch kind {
	case search.KindInvalidQuery:
		return fiber.StatusBadRequest
	case search.KindStoreUnavailable:
		return fiber.StatusServiceUnavailable
	case search.KindEmptyStore, search.KindNoResultsInRadius:
		return fiber.StatusNotFound
	case search.KindGeocodingFailed:
		return fiber.StatusUnprocessableEntity
	case search.KindGeolocationDenied:
		return fiber.StatusForbidden
	case search.KindGeolocationUnavailable:
		return fiber.StatusServiceUnavailable
	case search.KindGeolocationTimeout:
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

// SearchError renders a classified search failure; the cause is never exposed
func SearchError(c *fiber.Ctx, err error) error {
	kind := search.KindOf(err)
	if kind == "" {
		return Error(c, fiber.StatusInternalServerError, "search failed")
	}
	return c.Status(searchErrorStatus(kind)).JSON(APIResponse{
		Success:   false,
		Error:     search.MessageOf(err),
		ErrorKind: string(kind),
	})
}

// pagination reads limit/offset with the usual bounds
func pagination(c *fiber.Ctx, defaultLimit int) (limit, offset int) {
	limit = c.QueryInt("limit", defaultLimit)
	offset = c.QueryInt("offset", 0)
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
