package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/food-finder/internal/models"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrRegionExists   = errors.New("region already exists")
)

const regionColumns = "r.id, r.name, r.state, r.zip_codes, r.created_at, r.updated_at"

// Listing counts only include approved locations; pending ones are not public.
const regionStatsColumns = regionColumns + `,
	(SELECT COUNT(*) FROM locations l
		WHERE l.status = 'approved' AND LEFT(l.zip_code, 5) = ANY(r.zip_codes)),
	(SELECT COUNT(*) FROM locations l
		WHERE l.status = 'approved' AND l.current_status = 'open' AND LEFT(l.zip_code, 5) = ANY(r.zip_codes)),
	(SELECT COUNT(*) FROM users u WHERE u.region_id = r.id AND u.role = 'provider')`

func scanRegion(row pgx.Row) (*models.Region, error) {
	r := &models.Region{}
	if err := row.Scan(&r.ID, &r.Name, &r.State, &r.ZipCodes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func scanRegionWithStats(row pgx.Row) (*models.RegionWithStats, error) {
	r := &models.RegionWithStats{}
	err := row.Scan(
		&r.ID, &r.Name, &r.State, &r.ZipCodes, &r.CreatedAt, &r.UpdatedAt,
		&r.LocationCount, &r.OpenCount, &r.ProviderCount,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func regionNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRegionNotFound
	}
	return err
}

// ListRegions returns a page of regions with coverage counts
func (db *DB) ListRegions(ctx context.Context, params *models.RegionListParams) ([]*models.RegionWithStats, int, error) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Search != "" {
		p := arg("%" + escapeLike(params.Search) + "%")
		where = append(where, fmt.Sprintf("(r.name ILIKE %s OR r.state ILIKE %s)", p, p))
	}
	if params.State != "" {
		where = append(where, "r.state = "+arg(strings.ToUpper(params.State)))
	}
	if params.ZipCode != "" {
		zip := params.ZipCode
		if len(zip) > 5 {
			zip = zip[:5]
		}
		where = append(where, arg(zip)+" = ANY(r.zip_codes)")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM regions r "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM regions r
		%s
		ORDER BY r.state, r.name
		LIMIT %s OFFSET %s
	`, regionStatsColumns, whereClause, arg(params.Limit), arg(params.Offset))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	regions := []*models.RegionWithStats{}
	for rows.Next() {
		r, err := scanRegionWithStats(rows)
		if err != nil {
			return nil, 0, err
		}
		regions = append(regions, r)
	}
	return regions, total, rows.Err()
}

// GetRegionByID retrieves a region with coverage counts
func (db *DB) GetRegionByID(ctx context.Context, id int) (*models.RegionWithStats, error) {
	r, err := scanRegionWithStats(db.Pool.QueryRow(ctx,
		"SELECT "+regionStatsColumns+" FROM regions r WHERE r.id = $1", id))
	if err != nil {
		return nil, regionNotFound(err)
	}
	return r, nil
}

// CreateRegion stores a region; name and state must be unique together
func (db *DB) CreateRegion(ctx context.Context, req *models.CreateRegionRequest) (*models.Region, error) {
	r, err := scanRegion(db.Pool.QueryRow(ctx, `
		INSERT INTO regions AS r (name, state, zip_codes)
		VALUES ($1, $2, $3)
		RETURNING `+regionColumns,
		strings.TrimSpace(req.Name), strings.ToUpper(req.State), nonNilStrings(req.ZipCodes)))
	if err != nil {
		if isUniqueViolation(err, "regions_name_state_key") {
			return nil, ErrRegionExists
		}
		return nil, err
	}
	return r, nil
}

// UpdateRegion applies the non-nil fields of req
func (db *DB) UpdateRegion(ctx context.Context, id int, req *models.UpdateRegionRequest) (*models.Region, error) {
	var state *string
	if req.State != nil {
		upper := strings.ToUpper(*req.State)
		state = &upper
	}

	r, err := scanRegion(db.Pool.QueryRow(ctx, `
		UPDATE regions AS r
		SET name = COALESCE($2, r.name),
		    state = COALESCE($3, r.state),
		    zip_codes = COALESCE($4, r.zip_codes),
		    updated_at = NOW()
		WHERE r.id = $1
		RETURNING `+regionColumns,
		id, req.Name, state, req.ZipCodes))
	if err != nil {
		if isUniqueViolation(err, "regions_name_state_key") {
			return nil, ErrRegionExists
		}
		return nil, regionNotFound(err)
	}
	return r, nil
}

// DeleteRegion removes a region; providers assigned to it keep their accounts
func (db *DB) DeleteRegion(ctx context.Context, id int) error {
	result, err := db.Pool.Exec(ctx, "DELETE FROM regions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRegionNotFound
	}
	return nil
}

// GetDistinctStates lists the states that have at least one region
func (db *DB) GetDistinctStates(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, "SELECT DISTINCT state FROM regions ORDER BY state")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// GetRegionSummary aggregates region coverage across the directory
func (db *DB) GetRegionSummary(ctx context.Context) (*models.RegionSummary, error) {
	s := &models.RegionSummary{}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM regions),
			(SELECT COUNT(DISTINCT state) FROM regions),
			(SELECT COUNT(DISTINCT z) FROM regions, UNNEST(zip_codes) AS z),
			(SELECT COUNT(*) FROM locations l
				WHERE l.status = 'approved'
				  AND NOT EXISTS (
					SELECT 1 FROM regions r WHERE LEFT(l.zip_code, 5) = ANY(r.zip_codes)
				  ))
	`).Scan(&s.Regions, &s.States, &s.ZipCodes, &s.UncoveredLocations)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SearchRegions matches name, state or an exact ZIP code
func (db *DB) SearchRegions(ctx context.Context, query string, limit int) ([]*models.Region, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+regionColumns+`
		FROM regions r
		WHERE r.name ILIKE $1 OR r.state ILIKE $1 OR $2 = ANY(r.zip_codes)
		ORDER BY
			CASE WHEN $2 = ANY(r.zip_codes) THEN 0 WHEN r.state = UPPER($2) THEN 1 ELSE 2 END,
			r.name
		LIMIT $3
	`, "%"+escapeLike(query)+"%", query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regions := []*models.Region{}
	for rows.Next() {
		r, err := scanRegion(rows)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// RegionZipCodes returns zip together with every ZIP code that shares a region with it
func (db *DB) RegionZipCodes(ctx context.Context, zip string) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT DISTINCT z
		FROM regions r, UNNEST(r.zip_codes) AS z
		WHERE $1 = ANY(r.zip_codes) AND z <> $1
		ORDER BY z
	`, zip)
	if err != nil {
		return nil, err
	}
	others, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	return append([]string{zip}, others...), nil
}
