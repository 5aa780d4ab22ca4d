package models

import "time"

// Role gates the admin surface. Moderators review listings; admins also
// manage accounts and regions.
type Role string

const (
	RoleProvider  Role = "provider"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleProvider, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a provider or staff account
type User struct {
	ID           int        `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         *string    `json:"name,omitempty"`
	Organization *string    `json:"organization,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	RegionID     *int       `json:"region_id,omitempty"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator is true for moderators and admins
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// RegisterRequest is the body of a provider sign-up
type RegisterRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Name         *string `json:"name,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	RegionID     *int    `json:"region_id,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token issued at login
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse is returned by register, login and refresh
type AuthResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	User         *User  `json:"user"`
}

// AdminUpdateUserRequest is a partial account update; nil fields are kept
type AdminUpdateUserRequest struct {
	Name         *string `json:"name,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Role         *Role   `json:"role,omitempty"`
	Active       *bool   `json:"active,omitempty"`
	RegionID     *int    `json:"region_id,omitempty"`
}

type AdminCreateUserRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Name         *string `json:"name,omitempty"`
	Organization *string `json:"organization,omitempty"`
	Role         Role    `json:"role"`
	RegionID     *int    `json:"region_id,omitempty"`
}

// UserListParams filters the admin account list. Zero values match everything.
type UserListParams struct {
	Limit    int
	Offset   int
	Role     Role
	Search   string
	RegionID int
	Active   *bool
}

// UserStats contains aggregate account counts
type UserStats struct {
	TotalProviders  int `json:"total_providers"`
	TotalModerators int `json:"total_moderators"`
	InactiveUsers   int `json:"inactive_users"`
	ActiveUsers24h  int `json:"active_users_24h"`
}

// AdminStats is the admin dashboard payload
type AdminStats struct {
	Users     UserStats     `json:"users"`
	Locations LocationStats `json:"locations"`
}
