package docstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
)

const earthRadiusKm = 6371.0

// RegionLookup expands a ZIP code to every ZIP sharing a region with it
type RegionLookup interface {
	RegionZipCodes(ctx context.Context, zip string) ([]string, error)
}

// LocationRepository stores locations in a MongoDB collection
type LocationRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	regions    RegionLookup
}

var _ search.LocationStore = (*LocationRepository)(nil)

// Connect dials MongoDB and verifies the connection
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	log.Println("MongoDB connected successfully")
	return client, nil
}

// NewLocationRepository creates a Mongo-backed location repository. regions
// may be nil, in which case ZIP searches match the exact ZIP only.
func NewLocationRepository(client *mongo.Client, database, collectionName string, regions RegionLookup) *LocationRepository {
	return &LocationRepository{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
		regions:    regions,
	}
}

// EnsureIndexes creates the geo, ZIP and status indexes
func (r *LocationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "address.zip5", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "providerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating location indexes: %w", err)
	}
	return nil
}

func (r *LocationRepository) findMany(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]*models.Location, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	locations := make([]*models.Location, 0)
	for cursor.Next(ctx) {
		var doc LocationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		locations = append(locations, mapLocationDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *LocationRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*models.Location, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc LocationDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrLocationNotFound
		}
		return nil, err
	}
	return mapLocationDocument(doc), nil
}

// CreateLocation inserts loc, assigning an id and timestamps when unset
func (r *LocationRepository) CreateLocation(ctx context.Context, loc *models.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = now
	}
	loc.UpdatedAt = now
	if loc.Status == "" {
		loc.Status = models.LocationPending
	}
	if loc.CurrentStatus == "" {
		loc.CurrentStatus = models.AvailabilityUnknown
	}

	if _, err := r.collection.InsertOne(ctx, toDocument(loc)); err != nil {
		return fmt.Errorf("inserting location: %w", err)
	}
	loc.HasPhoto = loc.PhotoKey != ""
	return nil
}

// GetLocationByID retrieves a location by ID
func (r *LocationRepository) GetLocationByID(ctx context.Context, id string) (*models.Location, error) {
	var doc LocationDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrLocationNotFound
		}
		return nil, err
	}
	return mapLocationDocument(doc), nil
}

// UpdateLocation applies the non-nil fields of req
func (r *LocationRepository) UpdateLocation(ctx context.Context, id string, req *models.UpdateLocationRequest) (*models.Location, error) {
	return r.findOneAndUpdate(ctx, id, updateDocument(req, time.Now().UTC()))
}

// updateDocument wraps the $set fields, unsetting the point when asked to
func updateDocument(req *models.UpdateLocationRequest, now time.Time) bson.M {
	set := updateFields(req, now)
	if !req.ClearCoordinates {
		return bson.M{"$set": set}
	}
	delete(set, "location")
	return bson.M{"$set": set, "$unset": bson.M{"location": ""}}
}

// updateFields builds the $set document for a partial update
func updateFields(req *models.UpdateLocationRequest, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	setString := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setStrings := func(key string, v *[]string) {
		if v != nil {
			set[key] = append([]string{}, (*v)...)
		}
	}

	setString("name", req.Name)
	setString("description", req.Description)
	setString("address.street", req.Street)
	setString("address.city", req.City)
	if req.State != nil {
		set["address.state"] = strings.ToUpper(*req.State)
	}
	if req.ZipCode != nil {
		set["address.zipCode"] = *req.ZipCode
		set["address.zip5"] = zip5(*req.ZipCode)
	}
	if req.Latitude != nil && req.Longitude != nil {
		set["location"] = pointDocument(&geo.LatLng{Latitude: *req.Latitude, Longitude: *req.Longitude})
	}
	if req.CapacityMax != nil {
		set["capacity.max"] = *req.CapacityMax
	}
	setStrings("serviceTypes", req.ServiceTypes)
	setStrings("accessibilityFeatures", req.AccessibilityFeatures)
	setStrings("languages", req.Languages)
	setString("phone", req.Phone)
	setString("website", req.Website)
	setString("hours", req.Hours)
	return set
}

// UpdateAvailability records a provider-reported live status
func (r *LocationRepository) UpdateAvailability(ctx context.Context, id string, req *models.AvailabilityUpdateRequest) (*models.Location, error) {
	set := bson.M{
		"currentStatus":   string(req.CurrentStatus),
		"statusUpdatedAt": time.Now().UTC(),
	}
	if req.CurrentCapacity != nil {
		set["capacity.current"] = *req.CurrentCapacity
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
}

// SetLocationStatus moves a location through moderation
func (r *LocationRepository) SetLocationStatus(ctx context.Context, id string, status models.LocationStatus, reason string) (*models.Location, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"status":          string(status),
		"rejectionReason": reason,
		"updatedAt":       time.Now().UTC(),
	}})
}

// SetLocationPhoto stores the object key of a location's photo
func (r *LocationRepository) SetLocationPhoto(ctx context.Context, id, key string) error {
	_, err := r.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M{
		"photoKey":  key,
		"updatedAt": time.Now().UTC(),
	}})
	return err
}

// DeleteLocation deletes a location by ID
func (r *LocationRepository) DeleteLocation(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrLocationNotFound
	}
	return nil
}

// ListLocations returns a paginated list of locations with optional filtering
func (r *LocationRepository) ListLocations(ctx context.Context, params *models.LocationListParams) ([]*models.Location, int, error) {
	filter := bson.M{}
	if params.Status != "" {
		filter["status"] = string(params.Status)
	}
	if params.ProviderID != nil {
		filter["providerId"] = *params.ProviderID
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	locations, err := r.findMany(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return locations, int(total), nil
}

// GetLocationStats returns aggregate counts for the admin dashboard
func (r *LocationRepository) GetLocationStats(ctx context.Context) (*models.LocationStats, error) {
	count := func(filter bson.M) (int, error) {
		n, err := r.collection.CountDocuments(ctx, filter)
		return int(n), err
	}

	stats := &models.LocationStats{}
	var err error
	if stats.TotalLocations, err = count(bson.M{}); err != nil {
		return nil, err
	}
	if stats.PendingCount, err = count(bson.M{"status": string(models.LocationPending)}); err != nil {
		return nil, err
	}
	if stats.ApprovedCount, err = count(bson.M{"status": string(models.LocationApproved)}); err != nil {
		return nil, err
	}
	if stats.RejectedCount, err = count(bson.M{"status": string(models.LocationRejected)}); err != nil {
		return nil, err
	}
	if stats.OpenNow, err = count(bson.M{
		"status":        string(models.LocationApproved),
		"currentStatus": string(models.AvailabilityOpen),
	}); err != nil {
		return nil, err
	}
	if stats.UpdatedToday, err = count(bson.M{
		"statusUpdatedAt": bson.M{"$gt": time.Now().UTC().Add(-24 * time.Hour)},
	}); err != nil {
		return nil, err
	}
	return stats, nil
}

// ExpireStaleAvailability resets live status to unknown where the last
// report is older than maxAge
func (r *LocationRepository) ExpireStaleAvailability(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"currentStatus":   bson.M{"$ne": string(models.AvailabilityUnknown)},
			"statusUpdatedAt": bson.M{"$lt": cutoff},
		},
		bson.M{
			"$set":   bson.M{"currentStatus": string(models.AvailabilityUnknown)},
			"$unset": bson.M{"capacity.current": ""},
		},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// FindByZipRegion returns locations in zip or in any region whose ZIP set covers it
func (r *LocationRepository) FindByZipRegion(ctx context.Context, zip string) ([]*models.Location, error) {
	zips := []string{zip5(zip)}
	if r.regions != nil {
		expanded, err := r.regions.RegionZipCodes(ctx, zip5(zip))
		if err != nil {
			log.Printf("Warning: region lookup for %s failed: %v", zip, err)
		} else if len(expanded) > 0 {
			zips = expanded
		}
	}
	return r.findMany(ctx, zipFilter(zips))
}

func zipFilter(zips []string) bson.M {
	if len(zips) == 1 {
		return bson.M{"address.zip5": zips[0]}
	}
	return bson.M{"address.zip5": bson.M{"$in": zips}}
}

// FindByRadius returns located records within radiusKm of center
func (r *LocationRepository) FindByRadius(ctx context.Context, center geo.LatLng, radiusKm float64) ([]*models.Location, error) {
	return r.findMany(ctx, radiusFilter(center, radiusKm))
}

func radiusFilter(center geo.LatLng, radiusKm float64) bson.M {
	return bson.M{
		"location": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{center.Longitude, center.Latitude},
					radiusKm / earthRadiusKm,
				},
			},
		},
	}
}

// FindByText matches text against names and address fields
func (r *LocationRepository) FindByText(ctx context.Context, text string, opts search.TextSearchOptions) ([]*models.Location, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit))
	return r.findMany(ctx, textFilter(text), findOpts)
}

func textFilter(text string) bson.M {
	pattern := regexp.QuoteMeta(strings.TrimSpace(text))
	regex := bson.M{"$regex": pattern, "$options": "i"}
	return bson.M{
		"$or": []bson.M{
			{"name": regex},
			{"address.street": regex},
			{"address.city": regex},
			{"address.zipCode": strings.TrimSpace(text)},
		},
	}
}

// Probe reports connectivity and the number of stored locations
func (r *LocationRepository) Probe(ctx context.Context) (search.StoreHealth, error) {
	if err := r.client.Ping(ctx, nil); err != nil {
		return search.StoreHealth{}, err
	}
	n, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return search.StoreHealth{Connected: true}, err
	}
	return search.StoreHealth{Connected: true, RecordCount: int(n)}, nil
}
