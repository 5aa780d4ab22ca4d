package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
	"github.com/foxxcyber/food-finder/internal/search"
)

var _ search.LocationStore = (*DB)(nil)

const locationColumns = `
	l.id::text, l.name, l.description, l.street_address, l.city, l.state, l.zip_code,
	l.latitude, l.longitude, l.status, l.current_status, l.status_updated_at,
	l.capacity_current, l.capacity_max, l.provider_id,
	l.service_types, l.accessibility_features, l.languages,
	l.phone, l.website, l.hours, l.photo_key, l.rating, l.review_count,
	l.rejection_reason, l.created_at, l.updated_at`

// earthRadiusKm matches the radius used for the SQL distance prefilter
const earthRadiusKm = 6371.0

func scanLocation(row pgx.Row) (*models.Location, error) {
	l := &models.Location{}
	var lat, lng *float64
	err := row.Scan(
		&l.ID, &l.Name, &l.Description, &l.Address.Street, &l.Address.City, &l.Address.State, &l.Address.ZipCode,
		&lat, &lng, &l.Status, &l.CurrentStatus, &l.StatusUpdatedAt,
		&l.Capacity.Current, &l.Capacity.Max, &l.ProviderID,
		&l.ServiceTypes, &l.AccessibilityFeatures, &l.Languages,
		&l.Phone, &l.Website, &l.Hours, &l.PhotoKey, &l.Rating, &l.ReviewCount,
		&l.RejectionReason, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		l.Coordinates = &geo.LatLng{Latitude: *lat, Longitude: *lng}
	}
	l.HasPhoto = l.PhotoKey != ""
	return l, nil
}

func collectLocations(rows pgx.Rows) ([]*models.Location, error) {
	defer rows.Close()

	var locations []*models.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func coordinateArgs(c *geo.LatLng) (lat, lng *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Latitude, &c.Longitude
}

// CreateLocation inserts loc, assigning an id and timestamps when unset
func (db *DB) CreateLocation(ctx context.Context, loc *models.Location) error {
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

	lat, lng := coordinateArgs(loc.Coordinates)
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO locations (
			id, name, description, street_address, city, state, zip_code,
			latitude, longitude, status, current_status, status_updated_at,
			capacity_current, capacity_max, provider_id,
			service_types, accessibility_features, languages,
			phone, website, hours, photo_key, rating, review_count,
			rejection_reason, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
	`,
		loc.ID, loc.Name, loc.Description, loc.Address.Street, loc.Address.City, loc.Address.State, loc.Address.ZipCode,
		lat, lng, loc.Status, loc.CurrentStatus, loc.StatusUpdatedAt,
		loc.Capacity.Current, loc.Capacity.Max, loc.ProviderID,
		nonNilStrings(loc.ServiceTypes), nonNilStrings(loc.AccessibilityFeatures), nonNilStrings(loc.Languages),
		loc.Phone, loc.Website, loc.Hours, loc.PhotoKey, loc.Rating, loc.ReviewCount,
		loc.RejectionReason, loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting location: %w", err)
	}
	loc.HasPhoto = loc.PhotoKey != ""
	return nil
}

// GetLocationByID retrieves a location by ID
func (db *DB) GetLocationByID(ctx context.Context, id string) (*models.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrLocationNotFound
	}

	l, err := scanLocation(db.Pool.QueryRow(ctx,
		"SELECT "+locationColumns+" FROM locations l WHERE l.id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// UpdateLocation applies the non-nil fields of req
func (db *DB) UpdateLocation(ctx context.Context, id string, req *models.UpdateLocationRequest) (*models.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrLocationNotFound
	}

	var state *string
	if req.State != nil {
		upper := strings.ToUpper(*req.State)
		state = &upper
	}

	l, err := scanLocation(db.Pool.QueryRow(ctx, `
		UPDATE locations l
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    street_address = COALESCE($4, street_address),
		    city = COALESCE($5, city),
		    state = COALESCE($6, state),
		    zip_code = COALESCE($7, zip_code),
		    latitude = CASE WHEN $17 THEN NULL ELSE COALESCE($8, latitude) END,
		    longitude = CASE WHEN $17 THEN NULL ELSE COALESCE($9, longitude) END,
		    capacity_max = COALESCE($10, capacity_max),
		    service_types = COALESCE($11, service_types),
		    accessibility_features = COALESCE($12, accessibility_features),
		    languages = COALESCE($13, languages),
		    phone = COALESCE($14, phone),
		    website = COALESCE($15, website),
		    hours = COALESCE($16, hours),
		    updated_at = NOW()
		WHERE l.id = $1
		RETURNING `+locationColumns,
		id, req.Name, req.Description, req.Street, req.City, state, req.ZipCode,
		req.Latitude, req.Longitude, req.CapacityMax,
		req.ServiceTypes, req.AccessibilityFeatures, req.Languages,
		req.Phone, req.Website, req.Hours, req.ClearCoordinates,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// UpdateAvailability records a provider-reported live status
func (db *DB) UpdateAvailability(ctx context.Context, id string, req *models.AvailabilityUpdateRequest) (*models.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrLocationNotFound
	}

	l, err := scanLocation(db.Pool.QueryRow(ctx, `
		UPDATE locations l
		SET current_status = $2,
		    capacity_current = COALESCE($3, capacity_current),
		    status_updated_at = NOW()
		WHERE l.id = $1
		RETURNING `+locationColumns,
		id, req.CurrentStatus, req.CurrentCapacity,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// SetLocationStatus moves a location through moderation
func (db *DB) SetLocationStatus(ctx context.Context, id string, status models.LocationStatus, reason string) (*models.Location, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrLocationNotFound
	}

	l, err := scanLocation(db.Pool.QueryRow(ctx, `
		UPDATE locations l
		SET status = $2, rejection_reason = $3, updated_at = NOW()
		WHERE l.id = $1
		RETURNING `+locationColumns,
		id, status, reason,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// SetLocationPhoto stores the object key of a location's photo
func (db *DB) SetLocationPhoto(ctx context.Context, id, key string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrLocationNotFound
	}

	result, err := db.Pool.Exec(ctx,
		"UPDATE locations SET photo_key = $2, updated_at = NOW() WHERE id = $1", id, key)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return models.ErrLocationNotFound
	}
	return nil
}

// DeleteLocation deletes a location by ID
func (db *DB) DeleteLocation(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrLocationNotFound
	}

	result, err := db.Pool.Exec(ctx, "DELETE FROM locations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return models.ErrLocationNotFound
	}
	return nil
}

// ListLocations returns a paginated list of locations with optional filtering
func (db *DB) ListLocations(ctx context.Context, params *models.LocationListParams) ([]*models.Location, int, error) {
	var whereClauses []string
	var args []interface{}
	argIndex := 1

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("l.status = $%d", argIndex))
		args = append(args, params.Status)
		argIndex++
	}

	if params.ProviderID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("l.provider_id = $%d", argIndex))
		args = append(args, *params.ProviderID)
		argIndex++
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM locations l %s", whereClause)
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM locations l
		%s
		ORDER BY l.created_at DESC, l.id
		LIMIT $%d OFFSET $%d
	`, locationColumns, whereClause, argIndex, argIndex+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	locations, err := collectLocations(rows)
	if err != nil {
		return nil, 0, err
	}
	return locations, total, nil
}

// GetLocationStats returns aggregate counts for the admin dashboard
func (db *DB) GetLocationStats(ctx context.Context) (*models.LocationStats, error) {
	stats := &models.LocationStats{}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected'),
			COUNT(*) FILTER (WHERE status = 'approved' AND current_status = 'open'),
			COUNT(*) FILTER (WHERE status_updated_at > NOW() - INTERVAL '24 hours')
		FROM locations
	`).Scan(
		&stats.TotalLocations,
		&stats.PendingCount,
		&stats.ApprovedCount,
		&stats.RejectedCount,
		&stats.OpenNow,
		&stats.UpdatedToday,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ExpireStaleAvailability resets live status to unknown where the last
// report is older than maxAge
func (db *DB) ExpireStaleAvailability(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result, err := db.Pool.Exec(ctx, `
		UPDATE locations
		SET current_status = 'unknown', capacity_current = NULL
		WHERE current_status <> 'unknown'
		  AND status_updated_at IS NOT NULL
		  AND status_updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// FindByZipRegion returns locations in zip or in any region whose ZIP set covers it
func (db *DB) FindByZipRegion(ctx context.Context, zip string) ([]*models.Location, error) {
	if len(zip) > 5 {
		zip = zip[:5]
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations l
		WHERE LEFT(l.zip_code, 5) = $1
		   OR LEFT(l.zip_code, 5) = ANY(
				SELECT UNNEST(r.zip_codes) FROM regions r WHERE $1 = ANY(r.zip_codes)
		   )
	`, zip)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// FindByRadius returns located records within radiusKm of center
func (db *DB) FindByRadius(ctx context.Context, center geo.LatLng, radiusKm float64) ([]*models.Location, error) {
	minLat, maxLat, minLng, maxLng := geo.BoundingBox(center, radiusKm)

	rows, err := db.Pool.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations l
		WHERE l.latitude IS NOT NULL
		  AND l.longitude IS NOT NULL
		  AND l.latitude BETWEEN $4 AND $5
		  AND l.longitude BETWEEN $6 AND $7
		  AND (
			$8 * acos(
				LEAST(1.0, GREATEST(-1.0,
					cos(radians($1)) * cos(radians(l.latitude)) *
					cos(radians(l.longitude) - radians($2)) +
					sin(radians($1)) * sin(radians(l.latitude))
				))
			)
		  ) <= $3
	`, center.Latitude, center.Longitude, radiusKm, minLat, maxLat, minLng, maxLng, earthRadiusKm)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// FindByText matches text against names and address fields
func (db *DB) FindByText(ctx context.Context, text string, opts search.TextSearchOptions) ([]*models.Location, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT `+locationColumns+`
		FROM locations l
		WHERE l.name ILIKE $1
		   OR l.street_address ILIKE $1
		   OR l.city ILIKE $1
		   OR (l.city || ', ' || l.state) ILIKE $1
		   OR l.zip_code = $2
		ORDER BY
			CASE WHEN l.name ILIKE $2 || '%' THEN 0 ELSE 1 END,
			l.name, l.id
		LIMIT $3
	`, "%"+escapeLike(text)+"%", text, limit)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// Probe reports connectivity and the number of stored locations
func (db *DB) Probe(ctx context.Context) (search.StoreHealth, error) {
	var count int
	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM locations").Scan(&count); err != nil {
		return search.StoreHealth{}, err
	}
	return search.StoreHealth{Connected: true, RecordCount: count}, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
