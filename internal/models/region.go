package models

import (
	"slices"
	"time"
)

// Region is a named service area. A ZIP search inside the area reaches every
// listing in it.
type Region struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	ZipCodes  []string  `json:"zip_codes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Covers reports whether a 5-digit or ZIP+4 code falls inside the region
func (r *Region) Covers(zip string) bool {
	if len(zip) > 5 {
		zip = zip[:5]
	}
	return slices.Contains(r.ZipCodes, zip)
}

// RegionWithStats adds listing coverage to a region
type RegionWithStats struct {
	Region
	LocationCount int `json:"location_count"`
	OpenCount     int `json:"open_count"`
	ProviderCount int `json:"provider_count"`
}

// RegionSummary aggregates every region. UncoveredLocations counts approved
// listings whose ZIP is in no region.
type RegionSummary struct {
	Regions            int `json:"total_regions"`
	States             int `json:"total_states"`
	ZipCodes           int `json:"total_zip_codes"`
	UncoveredLocations int `json:"uncovered_locations"`
}

type CreateRegionRequest struct {
	Name     string   `json:"name"`
	State    string   `json:"state"`
	ZipCodes []string `json:"zip_codes"`
}

type UpdateRegionRequest struct {
	Name     *string   `json:"name,omitempty"`
	State    *string   `json:"state,omitempty"`
	ZipCodes *[]string `json:"zip_codes,omitempty"`
}

// RegionListParams filters the region list. ZipCode keeps regions covering it.
type RegionListParams struct {
	Limit   int
	Offset  int
	Search  string
	State   string
	ZipCode string
}
