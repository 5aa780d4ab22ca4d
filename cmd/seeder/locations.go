package main

import (
	"context"
	"log"

	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
)

// locationWriter is the subset of a location store the seeder needs
type locationWriter interface {
	CreateLocation(ctx context.Context, loc *models.Location) error
	FindByText(ctx context.Context, text string, opts search.TextSearchOptions) ([]*models.Location, error)
}

func ptr[T any](v T) *T { return &v }

var sampleRequests = []models.CreateLocationRequest{
	{
		Name: "Capitol Hill Community Pantry", Street: "1100 E 17th Ave", City: "Denver", State: "CO", ZipCode: "80218",
		Latitude: ptr(39.7433), Longitude: ptr(-104.9729), CapacityMax: ptr(150),
		ServiceTypes: []string{"pantry", "fresh-produce"}, AccessibilityFeatures: []string{"wheelchair"},
		Languages: []string{"en", "es"}, Hours: "Mon-Fri 9am-5pm", Phone: "303-555-0101",
	},
	{
		Name: "Five Points Hot Meals", Street: "2500 Welton St", City: "Denver", State: "CO", ZipCode: "80205",
		Latitude: ptr(39.7545), Longitude: ptr(-104.9787), CapacityMax: ptr(80),
		ServiceTypes: []string{"hot-meals"}, Languages: []string{"en"}, Hours: "Daily 11am-2pm",
	},
	{
		Name: "LoDo Mobile Food Bank", Street: "1701 Wynkoop St", City: "Denver", State: "CO", ZipCode: "80202",
		Latitude: ptr(39.7527), Longitude: ptr(-104.9997),
		ServiceTypes: []string{"pantry", "mobile"}, AccessibilityFeatures: []string{"wheelchair", "parking"},
		Languages: []string{"en"}, Hours: "Sat 8am-12pm",
	},
	{
		Name: "Chelsea Neighbors Food Shelf", Street: "250 W 26th St", City: "New York", State: "NY", ZipCode: "10001",
		Latitude: ptr(40.7468), Longitude: ptr(-73.9953), CapacityMax: ptr(200),
		ServiceTypes: []string{"pantry", "baby-supplies"}, Languages: []string{"en", "es", "zh"},
		Hours: "Tue-Sat 10am-4pm",
	},
	{
		Name: "Cambridge Community Fridge", Street: "820 Massachusetts Ave", City: "Cambridge", State: "MA", ZipCode: "02139",
		Latitude: ptr(42.3670), Longitude: ptr(-71.1050),
		ServiceTypes: []string{"fresh-produce"}, AccessibilityFeatures: []string{"24-hour"},
		Languages: []string{"en", "pt"}, Hours: "24/7",
	},
	{
		Name: "Mission District Meal Program", Street: "2000 Mission St", City: "San Francisco", State: "CA", ZipCode: "94110",
		Latitude: ptr(37.7652), Longitude: ptr(-122.4194), CapacityMax: ptr(120),
		ServiceTypes: []string{"hot-meals", "pantry"}, Languages: []string{"en", "es"},
		Hours: "Mon-Sat 12pm-3pm",
	},
}

// sampleLocations returns published demo listings
func sampleLocations() []*models.Location {
	locs := make([]*models.Location, 0, len(sampleRequests))
	for i := range sampleRequests {
		loc := models.NewLocation(&sampleRequests[i], nil)
		loc.Status = models.LocationApproved
		loc.CurrentStatus = models.AvailabilityOpen
		locs = append(locs, loc)
	}
	return locs
}

// seedLocations inserts the sample listings that are not already present
func seedLocations(ctx context.Context, store locationWriter, dryRun bool) (int, error) {
	created := 0
	for _, loc := range sampleLocations() {
		existing, err := store.FindByText(ctx, loc.Name, search.TextSearchOptions{Limit: 5})
		if err != nil {
			return created, err
		}
		if hasName(existing, loc.Name) {
			continue
		}
		if dryRun {
			log.Printf("Would create %s (%s)", loc.Name, loc.Address.String())
			created++
			continue
		}
		if err := store.CreateLocation(ctx, loc); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func hasName(locs []*models.Location, name string) bool {
	for _, l := range locs {
		if l.Name == name {
			return true
		}
	}
	return false
}
