package docstore

import (
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

// PointDocument is a GeoJSON point; coordinates are [longitude, latitude]
type PointDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

// AddressDocument is the embedded postal address
type AddressDocument struct {
	Street  string `bson:"street,omitempty"`
	City    string `bson:"city,omitempty"`
	State   string `bson:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty"`
	Zip5    string `bson:"zip5,omitempty"`
}

// CapacityDocument is the embedded capacity block
type CapacityDocument struct {
	Current *int `bson:"current,omitempty"`
	Max     *int `bson:"max,omitempty"`
}

// LocationDocument is the stored shape of a location
type LocationDocument struct {
	ID                    string           `bson:"_id"`
	Name                  string           `bson:"name"`
	Description           string           `bson:"description,omitempty"`
	Address               AddressDocument  `bson:"address"`
	Location              *PointDocument   `bson:"location,omitempty"`
	Status                string           `bson:"status"`
	CurrentStatus         string           `bson:"currentStatus"`
	StatusUpdatedAt       *time.Time       `bson:"statusUpdatedAt,omitempty"`
	Capacity              CapacityDocument `bson:"capacity"`
	ProviderID            *int             `bson:"providerId,omitempty"`
	ServiceTypes          []string         `bson:"serviceTypes"`
	AccessibilityFeatures []string         `bson:"accessibilityFeatures"`
	Languages             []string         `bson:"languages"`
	Phone                 string           `bson:"phone,omitempty"`
	Website               string           `bson:"website,omitempty"`
	Hours                 string           `bson:"hours,omitempty"`
	PhotoKey              string           `bson:"photoKey,omitempty"`
	Rating                float64          `bson:"rating"`
	ReviewCount           int              `bson:"reviewCount"`
	RejectionReason       string           `bson:"rejectionReason,omitempty"`
	CreatedAt             time.Time        `bson:"createdAt"`
	UpdatedAt             time.Time        `bson:"updatedAt"`
}

func zip5(zip string) string {
	if len(zip) > 5 {
		return zip[:5]
	}
	return zip
}

func pointDocument(p *geo.LatLng) *PointDocument {
	if p == nil {
		return nil
	}
	return &PointDocument{Type: "Point", Coordinates: []float64{p.Longitude, p.Latitude}}
}

func toDocument(l *models.Location) LocationDocument {
	return LocationDocument{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Address: AddressDocument{
			Street:  l.Address.Street,
			City:    l.Address.City,
			State:   l.Address.State,
			ZipCode: l.Address.ZipCode,
			Zip5:    zip5(l.Address.ZipCode),
		},
		Location:              pointDocument(l.Coordinates),
		Status:                string(l.Status),
		CurrentStatus:         string(l.CurrentStatus),
		StatusUpdatedAt:       l.StatusUpdatedAt,
		Capacity:              CapacityDocument{Current: l.Capacity.Current, Max: l.Capacity.Max},
		ProviderID:            l.ProviderID,
		ServiceTypes:          append([]string{}, l.ServiceTypes...),
		AccessibilityFeatures: append([]string{}, l.AccessibilityFeatures...),
		Languages:             append([]string{}, l.Languages...),
		Phone:                 l.Phone,
		Website:               l.Website,
		Hours:                 l.Hours,
		PhotoKey:              l.PhotoKey,
		Rating:                l.Rating,
		ReviewCount:           l.ReviewCount,
		RejectionReason:       l.RejectionReason,
		CreatedAt:             l.CreatedAt,
		UpdatedAt:             l.UpdatedAt,
	}
}

func mapLocationDocument(doc LocationDocument) *models.Location {
	l := &models.Location{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Address: models.Address{
			Street:  doc.Address.Street,
			City:    doc.Address.City,
			State:   doc.Address.State,
			ZipCode: doc.Address.ZipCode,
		},
		Status:                models.LocationStatus(doc.Status),
		CurrentStatus:         models.Availability(doc.CurrentStatus),
		StatusUpdatedAt:       doc.StatusUpdatedAt,
		Capacity:              models.Capacity{Current: doc.Capacity.Current, Max: doc.Capacity.Max},
		ProviderID:            doc.ProviderID,
		ServiceTypes:          append([]string{}, doc.ServiceTypes...),
		AccessibilityFeatures: append([]string{}, doc.AccessibilityFeatures...),
		Languages:             append([]string{}, doc.Languages...),
		Phone:                 doc.Phone,
		Website:               doc.Website,
		Hours:                 doc.Hours,
		PhotoKey:              doc.PhotoKey,
		HasPhoto:              doc.PhotoKey != "",
		Rating:                doc.Rating,
		ReviewCount:           doc.ReviewCount,
		RejectionReason:       doc.RejectionReason,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
	}
	if doc.Location != nil && len(doc.Location.Coordinates) == 2 {
		l.Coordinates = &geo.LatLng{
			Latitude:  doc.Location.Coordinates[1],
			Longitude: doc.Location.Coordinates[0],
		}
	}
	return l
}
