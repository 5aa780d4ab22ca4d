package docstore

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

func TestToDocumentCoordinateOrder(t *testing.T) {
	loc := &models.Location{
		ID:          "a1",
		Name:        "Eastside Pantry",
		Address:     models.Address{ZipCode: "80202-1234"},
		Coordinates: &geo.LatLng{Latitude: 39.75, Longitude: -104.99},
		PhotoKey:    "locations/a1/photo.jpg",
	}

	doc := toDocument(loc)
	if doc.Location == nil || doc.Location.Type != "Point" {
		t.Fatalf("location = %+v, want GeoJSON point", doc.Location)
	}
	if doc.Location.Coordinates[0] != -104.99 || doc.Location.Coordinates[1] != 39.75 {
		t.Errorf("coordinates = %v, want [lng, lat]", doc.Location.Coordinates)
	}
	if doc.Address.Zip5 != "80202" {
		t.Errorf("zip5 = %q, want 80202", doc.Address.Zip5)
	}

	back := mapLocationDocument(doc)
	if *back.Coordinates != *loc.Coordinates {
		t.Errorf("coordinates = %v, want %v", back.Coordinates, loc.Coordinates)
	}
	if !back.HasPhoto {
		t.Error("HasPhoto should follow PhotoKey")
	}
}

func TestMapDocumentWithoutLocation(t *testing.T) {
	l := mapLocationDocument(LocationDocument{ID: "b2", Name: "No Point"})
	if l.Coordinates != nil {
		t.Errorf("Coordinates = %v, want nil", l.Coordinates)
	}

	l = mapLocationDocument(LocationDocument{ID: "b3", Location: &PointDocument{Type: "Point", Coordinates: []float64{1}}})
	if l.Coordinates != nil {
		t.Errorf("malformed point mapped to %v", l.Coordinates)
	}
}

func TestUpdateFields(t *testing.T) {
	name := "Renamed"
	state := "co"
	zip := "80203-0001"
	lat, lng := 39.7, -104.9
	langs := []string{"en", "es"}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	set := updateFields(&models.UpdateLocationRequest{
		Name:      &name,
		State:     &state,
		ZipCode:   &zip,
		Latitude:  &lat,
		Longitude: &lng,
		Languages: &langs,
	}, now)

	want := map[string]interface{}{
		"name":            "Renamed",
		"address.state":   "CO",
		"address.zipCode": "80203-0001",
		"address.zip5":    "80203",
		"updatedAt":       now,
	}
	for k, v := range want {
		if set[k] != v {
			t.Errorf("set[%q] = %v, want %v", k, set[k], v)
		}
	}
	if p, ok := set["location"].(*PointDocument); !ok || p.Coordinates[0] != lng {
		t.Errorf("location = %v", set["location"])
	}
	if _, ok := set["description"]; ok {
		t.Error("nil fields must not be set")
	}
}

func TestUpdateFieldsRequiresBothCoordinates(t *testing.T) {
	lat := 39.7
	set := updateFields(&models.UpdateLocationRequest{Latitude: &lat}, time.Now())
	if _, ok := set["location"]; ok {
		t.Error("location set with only latitude")
	}
}

func TestUpdateDocument(t *testing.T) {
	lat, lng := 39.7, -104.9
	zip := "67000"
	tests := []struct {
		name      string
		req       models.UpdateLocationRequest
		wantSet   bool
		wantUnset bool
	}{
		{name: "new point", req: models.UpdateLocationRequest{Latitude: &lat, Longitude: &lng}, wantSet: true},
		{name: "clear point", req: models.UpdateLocationRequest{ZipCode: &zip, ClearCoordinates: true}, wantUnset: true},
		{name: "no point change", req: models.UpdateLocationRequest{ZipCode: &zip}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := updateDocument(&tt.req, time.Now())
			set := doc["$set"].(bson.M)
			if _, ok := set["location"]; ok != tt.wantSet {
				t.Errorf("$set has location = %v, want %v", ok, tt.wantSet)
			}
			unset, ok := doc["$unset"].(bson.M)
			if ok != tt.wantUnset {
				t.Fatalf("$unset present = %v, want %v", ok, tt.wantUnset)
			}
			if tt.wantUnset {
				if _, ok := unset["location"]; !ok {
					t.Errorf("$unset = %v, want location", unset)
				}
			}
		})
	}
}

func TestZipFilter(t *testing.T) {
	if got := zipFilter([]string{"80202"}); got["address.zip5"] != "80202" {
		t.Errorf("single zip filter = %v", got)
	}
	got := zipFilter([]string{"80202", "80203"})
	in, ok := got["address.zip5"].(bson.M)
	if !ok || len(in["$in"].([]string)) != 2 {
		t.Errorf("multi zip filter = %v", got)
	}
}

func TestRadiusFilter(t *testing.T) {
	f := radiusFilter(geo.LatLng{Latitude: 10, Longitude: 20}, earthRadiusKm)
	sphere := f["location"].(bson.M)["$geoWithin"].(bson.M)["$centerSphere"].(bson.A)
	center := sphere[0].(bson.A)
	if center[0] != 20.0 || center[1] != 10.0 {
		t.Errorf("center = %v, want [lng, lat]", center)
	}
	if sphere[1] != 1.0 {
		t.Errorf("radians = %v, want 1", sphere[1])
	}
}

func TestTextFilterEscapesRegex(t *testing.T) {
	f := textFilter(" St. Mary's (Downtown) ")
	clauses := f["$or"].([]bson.M)
	pattern := clauses[0]["name"].(bson.M)["$regex"]
	if pattern != `St\. Mary's \(Downtown\)` {
		t.Errorf("pattern = %q", pattern)
	}
}
