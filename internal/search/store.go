package search

import (
	"context"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

// LocationStore is the read side of the location directory that searches run against
type LocationStore interface {
	// FindByZipRegion returns locations in the given ZIP code or in any region covering it
	FindByZipRegion(ctx context.Context, zip string) ([]*models.Location, error)
	// FindByRadius returns located records within radiusKm of center
	FindByRadius(ctx context.Context, center geo.LatLng, radiusKm float64) ([]*models.Location, error)
	// FindByText matches free text against names and addresses
	FindByText(ctx context.Context, text string, opts TextSearchOptions) ([]*models.Location, error)
	// Probe reports connectivity and the number of stored records
	Probe(ctx context.Context) (StoreHealth, error)
}

// TextSearchOptions tunes FindByText
type TextSearchOptions struct {
	Limit int
}

// StoreHealth is the result of a connectivity probe
type StoreHealth struct {
	Connected   bool `json:"connected"`
	RecordCount int  `json:"record_count"`
}

// Geocoder resolves ZIP codes and addresses to points. A false result means
// no center point is available; it is never a hard failure.
type Geocoder interface {
	GeocodeZip(ctx context.Context, zip string) (geo.LatLng, bool)
	GeocodeAddress(ctx context.Context, text string) (geo.LatLng, bool)
}
