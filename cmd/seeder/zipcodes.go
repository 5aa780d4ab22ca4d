package main

import (
	"context"
	"fmt"
	"log"

	"github.com/foxxcyber/food-finder/internal/geocoding"
)

// seedZipTable loads a ZIP centroid CSV into the SQLite lookup table
func seedZipTable(ctx context.Context, dbPath, csvPath string) error {
	if dbPath == "" {
		return fmt.Errorf("ZIP_DB_PATH or -zip-db is required")
	}

	zt, err := geocoding.OpenZipTable(dbPath)
	if err != nil {
		return err
	}
	defer zt.Close()

	n, err := zt.ImportCSVFile(ctx, csvPath)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", csvPath, err)
	}

	total, err := zt.Count(ctx)
	if err != nil {
		return err
	}
	log.Printf("ZIP table import complete: %d new ZIP codes, %d total in %s", n, total, dbPath)
	return nil
}
