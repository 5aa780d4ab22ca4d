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
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, name, organization, phone, region_id, role, active, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash,
		&u.Name, &u.Organization, &u.Phone, &u.RegionID,
		&u.Role, &u.Active,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser stores an active account. profile may be nil.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string, role models.Role, profile *models.RegisterRequest) (*models.User, error) {
	if profile == nil {
		profile = &models.RegisterRequest{}
	}

	u, err := scanUser(db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, organization, phone, region_id, role, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING `+userColumns,
		email, passwordHash, profile.Name, profile.Organization, profile.Phone, profile.RegionID, role,
	))
	if isUniqueViolation(err, "users_email_key") {
		return nil, ErrEmailExists
	}
	return u, err
}

func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// GetUserByEmail expects an already normalized address
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
}

func (db *DB) UpdateUserLastLogin(ctx context.Context, id int) error {
	_, err := db.Pool.Exec(ctx, "UPDATE users SET last_login_at = NOW() WHERE id = $1", id)
	return err
}

// AdminUpdateUser applies the non-nil fields of req
func (db *DB) AdminUpdateUser(ctx context.Context, id int, req *models.AdminUpdateUserRequest) (*models.User, error) {
	return scanUser(db.Pool.QueryRow(ctx, `
		UPDATE users
		SET name = COALESCE($2, name),
		    organization = COALESCE($3, organization),
		    role = COALESCE($4, role),
		    active = COALESCE($5, active),
		    region_id = COALESCE($6, region_id),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, req.Name, req.Organization, req.Role, req.Active, req.RegionID,
	))
}

// DeleteUser removes an account
func (db *DB) DeleteUser(ctx context.Context, id int) error {
	tag, err := db.Pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns a filtered page of accounts, newest first
func (db *DB) ListUsers(ctx context.Context, params *models.UserListParams) ([]*models.User, int, error) {
	var where []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Role != "" {
		where = append(where, "role = "+arg(params.Role))
	}
	if params.RegionID > 0 {
		where = append(where, "region_id = "+arg(params.RegionID))
	}
	if params.Active != nil {
		where = append(where, "active = "+arg(*params.Active))
	}
	if params.Search != "" {
		p := arg("%" + escapeLike(params.Search) + "%")
		where = append(where, fmt.Sprintf("(email ILIKE %s OR name ILIKE %s OR organization ILIKE %s)", p, p, p))
	}

	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+filter, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + userColumns + " FROM users" + filter +
		" ORDER BY created_at DESC, id DESC LIMIT " + arg(params.Limit) + " OFFSET " + arg(params.Offset)
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// GetUserStats counts accounts for the admin dashboard
func (db *DB) GetUserStats(ctx context.Context) (*models.UserStats, error) {
	s := &models.UserStats{}
	err := db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE role = 'provider'),
			COUNT(*) FILTER (WHERE role = 'moderator'),
			COUNT(*) FILTER (WHERE NOT active),
			COUNT(*) FILTER (WHERE last_login_at > NOW() - INTERVAL '24 hours')
		FROM users
	`).Scan(&s.TotalProviders, &s.TotalModerators, &s.InactiveUsers, &s.ActiveUsers24h)
	if err != nil {
		return nil, err
	}
	return s, nil
}
