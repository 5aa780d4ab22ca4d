package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/middleware"
)

// Routes mounts every endpoint on app
func (h *Handler) Routes(app *fiber.App) {
	cfg := h.cfg

	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Get("/health/store", h.StoreHealth)

	// Search routes (public; staff may widen the status filter)
	s := api.Group("/search", middleware.AuthOptional(cfg))
	s.Get("/", h.Search)
	s.Post("/locate", h.Locate)
	s.Get("/parse", h.ParseQuery)
	s.Get("/sessions/:id", h.LatestSearch)

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)
	auth.Post("/refresh", h.RefreshToken)

	// Public location routes
	locations := api.Group("/locations", middleware.AuthOptional(cfg))
	locations.Get("/:id", h.GetLocation)
	locations.Get("/:id/photo", h.GetLocationPhoto)

	// Provider self-service
	provider := api.Group("/provider", middleware.AuthRequired(cfg), middleware.ProviderRequired())
	provider.Get("/locations", h.ListMyLocations)
	provider.Post("/locations", h.CreateLocation)
	provider.Put("/locations/:id", h.UpdateLocation)
	provider.Delete("/locations/:id", h.DeleteMyLocation)
	provider.Patch("/locations/:id/availability", h.UpdateAvailability)
	provider.Post("/locations/:id/photo", h.UploadLocationPhoto)

	// Region routes (public read, admin write)
	regions := api.Group("/regions")
	regions.Get("/", h.ListRegions)
	regions.Get("/states", h.GetRegionStates)
	regions.Get("/stats", h.GetRegionStats)
	regions.Get("/search", h.SearchRegions)
	regions.Get("/:id", h.GetRegion)

	// Maps routes (authenticated)
	maps := api.Group("/maps", middleware.AuthRequired(cfg))
	maps.Post("/geocode", h.Geocode)
	maps.Post("/reverse-geocode", h.ReverseGeocode)

	// Admin routes. Moderation is open to moderators; the rest needs an admin.
	admin := api.Group("/admin", middleware.AuthRequired(cfg), middleware.ModeratorRequired())
	admin.Get("/locations", h.AdminListLocations)
	admin.Post("/locations/:id/approve", h.ApproveLocation)
	admin.Post("/locations/:id/reject", h.RejectLocation)
	admin.Post("/locations/:id/deactivate", h.DeactivateLocation)
	admin.Get("/stats", h.AdminGetStats)

	adminOnly := middleware.AdminRequired()
	admin.Delete("/locations/:id", adminOnly, h.AdminDeleteLocation)
	admin.Post("/users", adminOnly, h.AdminCreateUser)
	admin.Get("/users", adminOnly, h.AdminListUsers)
	admin.Get("/users/:id", adminOnly, h.AdminGetUser)
	admin.Put("/users/:id", adminOnly, h.AdminUpdateUser)
	admin.Delete("/users/:id", adminOnly, h.AdminDeleteUser)
	admin.Post("/regions", adminOnly, h.CreateRegion)
	admin.Put("/regions/:id", adminOnly, h.UpdateRegion)
	admin.Delete("/regions/:id", adminOnly, h.DeleteRegion)
}
