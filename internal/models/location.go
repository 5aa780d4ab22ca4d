package models

import (
	"errors"
	"strings"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
)

// LocationStatus is the moderation lifecycle of a listing
type LocationStatus string

const (
	LocationPending  LocationStatus = "pending"
	LocationApproved LocationStatus = "approved"
	LocationRejected LocationStatus = "rejected"
	LocationInactive LocationStatus = "inactive"
)

// Availability is the live, provider-reported state of a location
type Availability string

const (
	AvailabilityOpen    Availability = "open"
	AvailabilityLimited Availability = "limited"
	AvailabilityClosed  Availability = "closed"
	AvailabilityUnknown Availability = "unknown"
)

// ValidLocationStatus reports whether s is a known lifecycle status
func ValidLocationStatus(s LocationStatus) bool {
	switch s {
	case LocationPending, LocationApproved, LocationRejected, LocationInactive:
		return true
	}
	return false
}

// ValidAvailability reports whether a is a known availability value
func ValidAvailability(a Availability) bool {
	switch a {
	case AvailabilityOpen, AvailabilityLimited, AvailabilityClosed, AvailabilityUnknown:
		return true
	}
	return false
}

// Address is the postal address of a location
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
}

// String formats the address on one line
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.ZipCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Capacity describes how many households a location can serve
type Capacity struct {
	Current *int `json:"current,omitempty"`
	Max     *int `json:"max,omitempty"`
}

// Location is a food bank, pantry or meal site listing
type Location struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Description           string         `json:"description,omitempty"`
	Address               Address        `json:"address"`
	Coordinates           *geo.LatLng    `json:"coordinates,omitempty"`
	Status                LocationStatus `json:"status"`
	CurrentStatus         Availability   `json:"current_status"`
	StatusUpdatedAt       *time.Time     `json:"status_updated_at,omitempty"`
	Capacity              Capacity       `json:"capacity"`
	ProviderID            *int           `json:"provider_id,omitempty"`
	ServiceTypes          []string       `json:"service_types"`
	AccessibilityFeatures []string       `json:"accessibility_features"`
	Languages             []string       `json:"languages"`
	Phone                 string         `json:"phone,omitempty"`
	Website               string         `json:"website,omitempty"`
	Hours                 string         `json:"hours,omitempty"`
	PhotoKey              string         `json:"-"`
	HasPhoto              bool           `json:"has_photo"`
	Rating                float64        `json:"rating"`
	ReviewCount           int            `json:"review_count"`
	RejectionReason       string         `json:"rejection_reason,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// LastUpdated is the most recent of the availability and record timestamps
func (l *Location) LastUpdated() time.Time {
	if l.StatusUpdatedAt != nil && l.StatusUpdatedAt.After(l.UpdatedAt) {
		return *l.StatusUpdatedAt
	}
	return l.UpdatedAt
}

// CreateLocationRequest is the request body for creating a location
type CreateLocationRequest struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description"`
	Street                string   `json:"street"`
	City                  string   `json:"city"`
	State                 string   `json:"state"`
	ZipCode               string   `json:"zip_code"`
	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
	CapacityMax           *int     `json:"capacity_max,omitempty"`
	ServiceTypes          []string `json:"service_types"`
	AccessibilityFeatures []string `json:"accessibility_features"`
	Languages             []string `json:"languages"`
	Phone                 string   `json:"phone"`
	Website               string   `json:"website"`
	Hours                 string   `json:"hours"`
}

// UpdateLocationRequest is the request body for updating a location
type UpdateLocationRequest struct {
	Name                  *string   `json:"name,omitempty"`
	Description           *string   `json:"description,omitempty"`
	Street                *string   `json:"street,omitempty"`
	City                  *string   `json:"city,omitempty"`
	State                 *string   `json:"state,omitempty"`
	ZipCode               *string   `json:"zip_code,omitempty"`
	Latitude              *float64  `json:"latitude,omitempty"`
	Longitude             *float64  `json:"longitude,omitempty"`
	CapacityMax           *int      `json:"capacity_max,omitempty"`
	ServiceTypes          *[]string `json:"service_types,omitempty"`
	AccessibilityFeatures *[]string `json:"accessibility_features,omitempty"`
	Languages             *[]string `json:"languages,omitempty"`
	Phone                 *string   `json:"phone,omitempty"`
	Website               *string   `json:"website,omitempty"`
	Hours                 *string   `json:"hours,omitempty"`

	// ClearCoordinates drops the stored point when an edited address
	// could not be geocoded. Set by the server, never by clients.
	ClearCoordinates bool `json:"-"`
}

// AvailabilityUpdateRequest is sent by providers to report live status
type AvailabilityUpdateRequest struct {
	CurrentStatus   Availability `json:"current_status"`
	CurrentCapacity *int         `json:"current_capacity,omitempty"`
}

// ModerationRequest carries an optional reason for rejecting a listing
type ModerationRequest struct {
	Reason string `json:"reason"`
}

// LocationListParams contains parameters for listing locations
type LocationListParams struct {
	Limit      int
	Offset     int
	Status     LocationStatus
	ProviderID *int
}

// LocationStats contains aggregate statistics for locations
type LocationStats struct {
	TotalLocations int `json:"total_locations"`
	PendingCount   int `json:"pending_count"`
	ApprovedCount  int `json:"approved_count"`
	RejectedCount  int `json:"rejected_count"`
	OpenNow        int `json:"open_now"`
	UpdatedToday   int `json:"availability_updated_today"`
}

// ErrLocationNotFound is returned by every location store when no record matches
var ErrLocationNotFound = errors.New("location not found")

// NewLocation builds a pending, not-yet-stored listing from a create request
func NewLocation(req *CreateLocationRequest, providerID *int) *Location {
	loc := &Location{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Address: Address{
			Street:  req.Street,
			City:    req.City,
			State:   strings.ToUpper(req.State),
			ZipCode: strings.TrimSpace(req.ZipCode),
		},
		Status:                LocationPending,
		CurrentStatus:         AvailabilityUnknown,
		Capacity:              Capacity{Max: req.CapacityMax},
		ProviderID:            providerID,
		ServiceTypes:          nonNil(req.ServiceTypes),
		AccessibilityFeatures: nonNil(req.AccessibilityFeatures),
		Languages:             nonNil(req.Languages),
		Phone:                 req.Phone,
		Website:               req.Website,
		Hours:                 req.Hours,
	}
	if req.Latitude != nil && req.Longitude != nil {
		loc.Coordinates = &geo.LatLng{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	return loc
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
