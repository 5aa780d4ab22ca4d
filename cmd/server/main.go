package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/foxxcyber/food-finder/internal/config"
	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/docstore"
	"github.com/foxxcyber/food-finder/internal/geocoding"
	"github.com/foxxcyber/food-finder/internal/handlers"
	"github.com/foxxcyber/food-finder/internal/jobs"
	"github.com/foxxcyber/food-finder/internal/search"
	"github.com/foxxcyber/food-finder/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.EnsureAdminUser(context.Background(), db, cfg); err != nil {
		log.Printf("Warning: Could not ensure admin user: %v", err)
	}

	// Location store: Postgres by default, MongoDB when configured
	var locations handlers.LocationRepository = db
	if cfg.UsesMongo() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := docstore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			cancel()
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(context.Background())

		repo := docstore.NewLocationRepository(client, cfg.MongoDatabase, cfg.MongoLocationCollection, db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Printf("Warning: Failed to ensure MongoDB indexes: %v", err)
		}
		cancel()
		locations = repo
		log.Printf("Using MongoDB location store %s.%s", cfg.MongoDatabase, cfg.MongoLocationCollection)
	}

	provider, listingProvider, reverse, closeGeocoder := buildGeocoder(cfg)
	defer closeGeocoder()

	geocodeOpts := geocoding.Options{
		AttemptTimeout: cfg.GeocodeTimeout,
		Retries:        cfg.GeocodeRetries,
	}
	gc := geocoding.New(provider, geocodeOpts)

	orchestrator := search.NewOrchestrator(locations, gc)
	sessions := search.NewSessions(orchestrator, cfg.SearchSessionTTL)

	deps := handlers.Deps{
		Config:    cfg,
		Users:     db,
		Regions:   db,
		Locations: locations,
		Sessions:  sessions,
		Health:    orchestrator,
		Geocoder:  gc,
		Reverse:   reverse,

		ListingGeocoder: geocoding.New(listingProvider, geocodeOpts),
	}
	if photos := buildPhotoStorage(cfg); photos != nil {
		deps.Photos = photos
	}
	h := handlers.New(deps)

	scheduler, err := jobs.NewScheduler(cfg, jobs.Deps{
		Expirer:  locations,
		Health:   orchestrator,
		Sessions: sessions,
	})
	if err != nil {
		log.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + handlers.SessionHeader,
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: handlers.SessionHeader,
	}))

	h.Routes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		scheduler.Stop(ctx)
		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Warning: shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// buildGeocoder picks the geocoding provider chains. A local ZIP table, when
// present, is consulted before the configured provider. The listing chain
// never falls back to the hashing mock, so stored listings only get real points.
func buildGeocoder(cfg *config.Config) (searchProvider, listingProvider geocoding.Provider, reverse handlers.ReverseGeocoder, closer func()) {
	var providers []geocoding.Provider
	closer = func() {}

	if cfg.ZipDBPath != "" {
		zt, err := geocoding.OpenZipTable(cfg.ZipDBPath)
		if err != nil {
			log.Printf("Warning: ZIP table unavailable at %s: %v", cfg.ZipDBPath, err)
		} else {
			providers = append(providers, zt)
			closer = func() { zt.Close() }
		}
	}

	useGoogle := cfg.Geocoder == config.GeocoderGoogle
	if useGoogle && cfg.GoogleMapsAPIKey == "" {
		log.Println("Warning: GEOCODER=google without GOOGLE_API_KEY_MAPS, falling back to mock geocoder")
		useGoogle = false
	}
	if useGoogle {
		google := geocoding.NewGoogleProvider(cfg.GoogleMapsAPIKey)
		providers = append(providers, google)
		reverse = google
		chain := geocoding.NewChainProvider(providers...)
		log.Printf("Geocoder: %s (%d provider(s))", cfg.Geocoder, len(providers))
		return chain, chain, reverse, closer
	}

	searchChain := append(append([]geocoding.Provider{}, providers...), geocoding.NewMockProvider())
	listingChain := append(append([]geocoding.Provider{}, providers...), geocoding.NewStrictMockProvider())
	log.Printf("Geocoder: mock (%d provider(s))", len(searchChain))
	return geocoding.NewChainProvider(searchChain...), geocoding.NewChainProvider(listingChain...), nil, closer
}

// buildPhotoStorage connects the photo bucket when S3 credentials are set
func buildPhotoStorage(cfg *config.Config) *services.PhotoStorage {
	if !cfg.StorageEnabled() {
		log.Println("S3 credentials not configured, location photos disabled")
		return nil
	}

	storage, err := services.NewPhotoStorage(cfg)
	if err != nil {
		log.Printf("Warning: Failed to initialize photo storage: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
	}
	log.Println("Location photo storage initialized")
	return storage
}
