package geocoding

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/search"

	_ "modernc.org/sqlite"
)

const zipTableSchema = `
	CREATE TABLE IF NOT EXISTS zipcodes (
		zipcode TEXT PRIMARY KEY,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_zipcodes_state ON zipcodes(state);
`

// ZipTableProvider resolves ZIP codes from a local SQLite centroid table.
// Anything that is not a ZIP code is reported as ErrNoResults.
type ZipTableProvider struct {
	db *sql.DB
}

// OpenZipTable opens (creating if needed) the SQLite file at dbPath
func OpenZipTable(dbPath string) (*ZipTableProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening zipcode database: %w", err)
	}
	if _, err := db.Exec(zipTableSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating zipcodes table: %w", err)
	}
	return &ZipTableProvider{db: db}, nil
}

// NewZipTableProvider wraps an already-open database that has the zipcodes table
func NewZipTableProvider(db *sql.DB) *ZipTableProvider {
	return &ZipTableProvider{db: db}
}

// Close releases the database handle
func (z *ZipTableProvider) Close() error {
	return z.db.Close()
}

// Resolve implements Provider
func (z *ZipTableProvider) Resolve(ctx context.Context, text string) (geo.LatLng, error) {
	if !search.ValidateZip(text) {
		return geo.LatLng{}, ErrNoResults
	}

	var lat, lng float64
	err := z.db.QueryRowContext(ctx,
		"SELECT latitude, longitude FROM zipcodes WHERE zipcode = ?",
		text[:5],
	).Scan(&lat, &lng)

	if errors.Is(err, sql.ErrNoRows) {
		return geo.LatLng{}, ErrNoResults
	}
	if err != nil {
		return geo.LatLng{}, fmt.Errorf("querying zipcode: %w", err)
	}
	return geo.LatLng{Latitude: lat, Longitude: lng}, nil
}

// Count returns the number of rows in the table
func (z *ZipTableProvider) Count(ctx context.Context) (int, error) {
	var n int
	if err := z.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM zipcodes").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting zipcodes: %w", err)
	}
	return n, nil
}

// ImportCSVFile loads a ZIP centroid CSV from disk
func (z *ZipTableProvider) ImportCSVFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return z.ImportCSV(ctx, f)
}

// ImportCSV loads rows in the format
// Zipcode,ZipCodeType,City,State,LocationType,Lat,Long,... after a header line.
// Malformed rows are skipped; existing ZIP codes are left untouched.
func (z *ZipTableProvider) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading header: %w", err)
	}

	tx, err := z.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO zipcodes (zipcode, city, state, latitude, longitude) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) < 7 {
			continue
		}

		zipcode := record[0]
		if !search.ValidateZip(zipcode) || len(zipcode) != 5 {
			continue
		}
		lat, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			continue
		}
		lng, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			continue
		}
		if !geo.ValidateCoordinates(lat, lng) {
			continue
		}

		res, err := stmt.ExecContext(ctx, zipcode, record[2], record[3], lat, lng)
		if err != nil {
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			count++
		}
		if count > 0 && count%5000 == 0 {
			log.Printf("Processed %d zipcodes...", count)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}
