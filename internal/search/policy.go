package search

import (
	"sort"
	"strings"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

// SearchFilters narrows a search. Empty sets impose no constraint.
type SearchFilters struct {
	RadiusMiles           *float64
	Statuses              []models.LocationStatus
	CurrentStatuses       []models.Availability
	ServiceTypes          []string
	AccessibilityFeatures []string
	Languages             []string
	Limit                 int
}

// SearchResultItem is one ranked search hit
type SearchResultItem struct {
	Location      *models.Location    `json:"location"`
	DistanceMiles *float64            `json:"distance_miles,omitempty"`
	CurrentStatus models.Availability `json:"current_status"`
	LastUpdated   time.Time           `json:"last_updated"`
	Rating        float64             `json:"rating"`
	ReviewCount   int                 `json:"review_count"`
}

// BuildItems wraps locations into result items, annotating each with its
// distance from center when both points are valid.
func BuildItems(locations []*models.Location, center *geo.LatLng) []SearchResultItem {
	items := make([]SearchResultItem, 0, len(locations))
	for _, loc := range locations {
		if loc == nil {
			continue
		}
		item := SearchResultItem{
			Location:      loc,
			CurrentStatus: loc.CurrentStatus,
			LastUpdated:   loc.LastUpdated(),
			Rating:        loc.Rating,
			ReviewCount:   loc.ReviewCount,
		}
		if item.CurrentStatus == "" {
			item.CurrentStatus = models.AvailabilityUnknown
		}
		if center != nil && center.Valid() && loc.Coordinates != nil && loc.Coordinates.Valid() {
			d := geo.MustDistanceMiles(*center, *loc.Coordinates)
			item.DistanceMiles = &d
		}
		items = append(items, item)
	}
	return items
}

// ApplyFilters keeps the items that satisfy every non-empty filter
func ApplyFilters(items []SearchResultItem, f SearchFilters) []SearchResultItem {
	statuses := toSet(f.Statuses)
	current := toSet(f.CurrentStatuses)

	kept := make([]SearchResultItem, 0, len(items))
	for _, item := range items {
		loc := item.Location
		if len(statuses) > 0 {
			if _, ok := statuses[loc.Status]; !ok {
				continue
			}
		}
		if len(current) > 0 {
			if _, ok := current[item.CurrentStatus]; !ok {
				continue
			}
		}
		if !containsAll(loc.ServiceTypes, f.ServiceTypes) ||
			!containsAll(loc.AccessibilityFeatures, f.AccessibilityFeatures) ||
			!containsAll(loc.Languages, f.Languages) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// WithinRadius drops items farther than radiusMiles. Items without a distance are kept.
func WithinRadius(items []SearchResultItem, radiusMiles float64) []SearchResultItem {
	kept := make([]SearchResultItem, 0, len(items))
	for _, item := range items {
		if item.DistanceMiles != nil && *item.DistanceMiles > radiusMiles {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// SortItems orders items by ascending distance. Items without a distance
// follow all items that have one and are ordered by name; ID breaks ties.
func SortItems(items []SearchResultItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.DistanceMiles != nil && b.DistanceMiles != nil:
			if *a.DistanceMiles != *b.DistanceMiles {
				return *a.DistanceMiles < *b.DistanceMiles
			}
		case a.DistanceMiles != nil:
			return true
		case b.DistanceMiles != nil:
			return false
		}
		if a.Location.Name != b.Location.Name {
			return a.Location.Name < b.Location.Name
		}
		return a.Location.ID < b.Location.ID
	})
}

func toSet[T comparable](values []T) map[T]struct{} {
	set := make(map[T]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func containsAll(have, want []string) bool {
	if len(want) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[strings.ToLower(strings.TrimSpace(w))]; !ok {
			return false
		}
	}
	return true
}
