package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
)

// US zip code data from scpike/us-state-county-zip
const zipCodeDataURL = "https://raw.githubusercontent.com/scpike/us-state-county-zip/master/geo-data.csv"

const regionBatchSize = 500

// Inserts a city region or merges new ZIPs into the existing one. Returns no
// row when every ZIP is already present.
const upsertRegionSQL = `
	INSERT INTO regions AS r (name, state, zip_codes)
	VALUES ($1, $2, $3)
	ON CONFLICT ON CONSTRAINT regions_name_state_key DO UPDATE
	SET zip_codes = ARRAY(
			SELECT DISTINCT z FROM UNNEST(r.zip_codes || EXCLUDED.zip_codes) AS z ORDER BY z
		),
		updated_at = NOW()
	WHERE NOT (EXCLUDED.zip_codes <@ r.zip_codes)
	RETURNING (xmax = 0)
`

// CityData holds the ZIP codes of one city; each becomes a region
type CityData struct {
	models.Region
	County string
}

// citySet aggregates CSV rows into cities keyed by name and state
type citySet struct {
	byKey map[string]*CityData
	rows  int
}

func newCitySet() *citySet {
	return &citySet{byKey: make(map[string]*CityData)}
}

func (s *citySet) add(city, state, county, zip string) {
	key := strings.ToLower(city) + "|" + state
	c, ok := s.byKey[key]
	if !ok {
		s.byKey[key] = &CityData{
			Region: models.Region{Name: city, State: state, ZipCodes: []string{zip}},
			County: county,
		}
		return
	}
	if !c.Covers(zip) {
		c.ZipCodes = append(c.ZipCodes, zip)
	}
}

// cities returns every city with at least minZips ZIPs, ordered by state and name
func (s *citySet) cities(minZips int) []CityData {
	out := make([]CityData, 0, len(s.byKey))
	for _, c := range s.byKey {
		if len(c.ZipCodes) < minZips {
			continue
		}
		sort.Strings(c.ZipCodes)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].State != out[j].State {
			return out[i].State < out[j].State
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// normalizeZip restores leading zeros the source drops from New England ZIPs
func normalizeZip(raw string) (string, bool) {
	zip := strings.TrimSpace(raw)
	if n := len(zip); n > 0 && n < 5 {
		zip = strings.Repeat("0", 5-n) + zip
	}
	return zip, search.ValidateZip(zip)
}

type regionColumns struct {
	state, zip, city, county int
}

func findRegionColumns(header []string) (regionColumns, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	lookup := func(names ...string) int {
		for _, n := range names {
			if i, ok := idx[n]; ok {
				return i
			}
		}
		return -1
	}

	cols := regionColumns{
		state:  lookup("state_abbr", "state"),
		zip:    lookup("zipcode", "zip"),
		city:   lookup("city"),
		county: lookup("county"),
	}
	if cols.state < 0 || cols.zip < 0 || cols.city < 0 {
		return cols, fmt.Errorf("CSV header must include state, zipcode and city columns: %v", header)
	}
	return cols, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// parseZipCodeData reads the region CSV and groups ZIP codes by city
func parseZipCodeData(reader io.Reader, stateFilter string, minZips int) ([]CityData, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols, err := findRegionColumns(header)
	if err != nil {
		return nil, err
	}

	set := newCitySet()
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("Warning: skipping malformed row: %v", err)
			continue
		}
		set.rows++

		state := strings.ToUpper(field(record, cols.state))
		city := field(record, cols.city)
		if city == "" || state == "" {
			continue
		}
		if stateFilter != "" && !strings.EqualFold(state, stateFilter) {
			continue
		}
		zip, ok := normalizeZip(field(record, cols.zip))
		if !ok {
			continue
		}
		set.add(city, state, field(record, cols.county), zip)
	}

	log.Printf("Processed %d rows", set.rows)
	return set.cities(minZips), nil
}

// openRegionSource returns the local CSV or downloads the public data set
func openRegionSource(localFile string) (io.ReadCloser, error) {
	if localFile != "" {
		log.Printf("Reading from local file: %s", localFile)
		return os.Open(localFile)
	}

	log.Printf("Downloading zip code data from: %s", zipCodeDataURL)
	resp, err := http.Get(zipCodeDataURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download zip code data: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download: HTTP %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// seedRegions imports city ZIP sets as regions
func seedRegions(ctx context.Context, db *database.DB, localFile, stateFilter string, minZips int, dryRun bool) error {
	src, err := openRegionSource(localFile)
	if err != nil {
		return err
	}
	defer src.Close()

	cities, err := parseZipCodeData(src, stateFilter, minZips)
	if err != nil {
		return fmt.Errorf("failed to parse zip code data: %w", err)
	}
	log.Printf("Found %d cities to import", len(cities))

	if dryRun {
		log.Println("DRY RUN - No changes will be made")
		printPreview(os.Stdout, cities, 20)
		return nil
	}

	var inserted, merged int
	for start := 0; start < len(cities); start += regionBatchSize {
		batch := cities[start:min(start+regionBatchSize, len(cities))]
		ins, mer, err := upsertRegions(ctx, db, batch)
		if err != nil {
			return err
		}
		inserted += ins
		merged += mer
		log.Printf("Progress: %d/%d cities (%d new, %d merged)", start+len(batch), len(cities), inserted, merged)
	}

	log.Printf("Region import complete: %d new cities, %d merged", inserted, merged)
	return nil
}

// upsertRegions sends one batch of upserts in a single round trip
func upsertRegions(ctx context.Context, db *database.DB, cities []CityData) (inserted, merged int, err error) {
	b := &pgx.Batch{}
	for _, c := range cities {
		b.Queue(upsertRegionSQL, c.Name, c.State, c.ZipCodes)
	}

	br := db.Pool.SendBatch(ctx, b)
	defer br.Close()

	for _, c := range cities {
		var isInsert bool
		err := br.QueryRow().Scan(&isInsert)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return inserted, merged, fmt.Errorf("failed to upsert %s, %s: %w", c.Name, c.State, err)
		case isInsert:
			inserted++
		default:
			merged++
		}
	}
	return inserted, merged, nil
}

// printPreview summarizes what an import would write
func printPreview(w io.Writer, cities []CityData, limit int) {
	perState := make(map[string]int)
	for _, c := range cities {
		perState[c.State]++
	}
	states := make([]string, 0, len(perState))
	for s := range perState {
		states = append(states, s)
	}
	sort.Strings(states)

	fmt.Fprintf(w, "\n=== %d cities to import ===\n", len(cities))
	for _, s := range states {
		fmt.Fprintf(w, "  %s: %d\n", s, perState[s])
	}
	for _, c := range cities[:min(limit, len(cities))] {
		sample := c.ZipCodes[:min(3, len(c.ZipCodes))]
		fmt.Fprintf(w, "  %s, %s - %d zip codes (%s)\n", c.Name, c.State, len(c.ZipCodes), strings.Join(sample, ", "))
	}
}
