package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/foxxcyber/food-finder/internal/config"
	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/docstore"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing")
	withRegions := flag.Bool("regions", false, "Import city ZIP sets as regions")
	minZips := flag.Int("min-zips", 1, "Minimum zip codes required for a city to be included")
	stateFilter := flag.String("state", "", "Only import regions from this state (e.g., 'CO')")
	localFile := flag.String("file", "", "Use local region CSV file instead of downloading")
	zipCSV := flag.String("zip-csv", "", "ZIP centroid CSV to load into the local ZIP table")
	zipDB := flag.String("zip-db", "", "ZIP table path (defaults to ZIP_DB_PATH)")
	withLocations := flag.Bool("locations", false, "Insert sample food assistance locations")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	ctx := context.Background()

	if *zipCSV != "" {
		path := *zipDB
		if path == "" {
			path = cfg.ZipDBPath
		}
		if err := seedZipTable(ctx, path, *zipCSV); err != nil {
			log.Fatalf("Failed to seed ZIP table: %v", err)
		}
	}

	if !*withRegions && !*withLocations {
		if *zipCSV == "" {
			flag.Usage()
		}
		return
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if *withRegions {
		if err := seedRegions(ctx, db, *localFile, *stateFilter, *minZips, *dryRun); err != nil {
			log.Fatalf("Failed to seed regions: %v", err)
		}
	}

	if *withLocations {
		var store locationWriter = db
		if cfg.UsesMongo() {
			connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			client, err := docstore.Connect(connectCtx, cfg.MongoURI)
			cancel()
			if err != nil {
				log.Fatalf("Failed to connect to MongoDB: %v", err)
			}
			defer client.Disconnect(ctx)

			repo := docstore.NewLocationRepository(client, cfg.MongoDatabase, cfg.MongoLocationCollection, db)
			if err := repo.EnsureIndexes(ctx); err != nil {
				log.Printf("Warning: Failed to ensure MongoDB indexes: %v", err)
			}
			store = repo
		}

		n, err := seedLocations(ctx, store, *dryRun)
		if err != nil {
			log.Fatalf("Failed to seed locations: %v", err)
		}
		log.Printf("Location seeding complete: %d created", n)
	}
}
