package search

import (
	"context"
	"strings"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

type fakeStore struct {
	locations []*models.Location
	health    StoreHealth
	probeErr  error
	fetchErr  error

	zipCalls    []string
	radiusCalls []float64
	textCalls   []string
}

func newFakeStore(locs ...*models.Location) *fakeStore {
	return &fakeStore{
		locations: locs,
		health:    StoreHealth{Connected: true, RecordCount: len(locs)},
	}
}

func (s *fakeStore) FindByZipRegion(ctx context.Context, zip string) ([]*models.Location, error) {
	s.zipCalls = append(s.zipCalls, zip)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*models.Location
	for _, l := range s.locations {
		if l.Address.ZipCode == zip[:5] {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByRadius(ctx context.Context, center geo.LatLng, radiusKm float64) ([]*models.Location, error) {
	s.radiusCalls = append(s.radiusCalls, radiusKm)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*models.Location
	for _, l := range s.locations {
		if l.Coordinates == nil {
			continue
		}
		if geo.MilesToKm(geo.MustDistanceMiles(center, *l.Coordinates)) <= radiusKm {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByText(ctx context.Context, text string, opts TextSearchOptions) ([]*models.Location, error) {
	s.textCalls = append(s.textCalls, text)
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*models.Location
	needle := strings.ToLower(text)
	for _, l := range s.locations {
		if strings.Contains(strings.ToLower(l.Name), needle) || strings.Contains(strings.ToLower(l.Address.String()), needle) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) Probe(ctx context.Context) (StoreHealth, error) {
	return s.health, s.probeErr
}

type fakeGeocoder struct {
	zips      map[string]geo.LatLng
	addresses map[string]geo.LatLng
	calls     int
}

func (g *fakeGeocoder) GeocodeZip(ctx context.Context, zip string) (geo.LatLng, bool) {
	g.calls++
	p, ok := g.zips[zip]
	return p, ok
}

func (g *fakeGeocoder) GeocodeAddress(ctx context.Context, text string) (geo.LatLng, bool) {
	g.calls++
	p, ok := g.addresses[text]
	return p, ok
}

func location(id, name, zip string, lat, lng float64) *models.Location {
	p := geo.LatLng{Latitude: lat, Longitude: lng}
	return &models.Location{
		ID:            id,
		Name:          name,
		Address:       models.Address{Street: "1 " + name + " Way", City: "Denver", State: "CO", ZipCode: zip},
		Coordinates:   &p,
		Status:        models.LocationApproved,
		CurrentStatus: models.AvailabilityOpen,
		UpdatedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func unlocated(id, name, zip string) *models.Location {
	l := location(id, name, zip, 0, 0)
	l.Coordinates = nil
	return l
}
