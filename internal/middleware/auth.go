package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/foxxcyber/food-finder/internal/config"
	"github.com/foxxcyber/food-finder/internal/models"
)

// Token uses. Only access tokens authorize requests; refresh tokens are
// accepted by the refresh endpoint alone.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

const tokenIssuer = "food-finder"

// JWTClaims are the claims carried by access and refresh tokens
type JWTClaims struct {
	UserID int         `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	Use    string      `json:"use"`
	jwt.RegisteredClaims
}

var (
	errMissingToken = errors.New("missing bearer token")
	// ErrWrongTokenUse is returned when a refresh token is presented as an
	// access token or the reverse
	ErrWrongTokenUse = errors.New("token not valid for this use")
)

func signToken(cfg *config.Config, user *models.User, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// GenerateToken signs an access token for user valid for ttl
func GenerateToken(cfg *config.Config, user *models.User, ttl time.Duration) (string, error) {
	return signToken(cfg, user, TokenAccess, ttl)
}

// GenerateRefreshToken signs a refresh token valid for cfg.RefreshJWTExpiry
func GenerateRefreshToken(cfg *config.Config, user *models.User) (string, error) {
	return signToken(cfg, user, TokenRefresh, cfg.RefreshJWTExpiry)
}

// ParseToken verifies raw and checks it was issued for use
func ParseToken(cfg *config.Config, raw, use string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if claims.Use != use {
		return nil, ErrWrongTokenUse
	}
	return claims, nil
}

func bearerClaims(cfg *config.Config, c *fiber.Ctx) (*JWTClaims, error) {
	raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return nil, errMissingToken
	}
	return ParseToken(cfg, raw, TokenAccess)
}

func storeClaims(c *fiber.Ctx, claims *JWTClaims) {
	c.Locals("user_id", claims.UserID)
	c.Locals("user_email", claims.Email)
	c.Locals("user_role", claims.Role)
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

// AuthRequired middleware checks for a valid JWT token
func AuthRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(cfg, c)
		if errors.Is(err, errMissingToken) {
			return deny(c, fiber.StatusUnauthorized, "missing or malformed authorization header")
		}
		if err != nil {
			return deny(c, fiber.StatusUnauthorized, "invalid or expired token")
		}

		storeClaims(c, claims)
		return c.Next()
	}
}

// AuthOptional parses a token if present but never rejects the request
func AuthOptional(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := bearerClaims(cfg, c); err == nil {
			storeClaims(c, claims)
		}
		return c.Next()
	}
}

// RoleRequired allows the request through only for one of roles
func RoleRequired(msg string, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(models.Role)
		if !ok {
			return deny(c, fiber.StatusUnauthorized, "unauthorized")
		}
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return deny(c, fiber.StatusForbidden, msg)
	}
}

// AdminRequired middleware checks if the user has admin role
func AdminRequired() fiber.Handler {
	return RoleRequired("admin access required", models.RoleAdmin)
}

// ModeratorRequired middleware checks if the user has moderator or admin role
func ModeratorRequired() fiber.Handler {
	return RoleRequired("moderator access required", models.RoleAdmin, models.RoleModerator)
}

// ProviderRequired admits providers and staff
func ProviderRequired() fiber.Handler {
	return RoleRequired("provider access required", models.RoleProvider, models.RoleAdmin, models.RoleModerator)
}

// GetUserID extracts the user ID from the context
func GetUserID(c *fiber.Ctx) int {
	if id, ok := c.Locals("user_id").(int); ok {
		return id
	}
	return 0
}

// GetUserRole extracts the user role from the context
func GetUserRole(c *fiber.Ctx) models.Role {
	if role, ok := c.Locals("user_role").(models.Role); ok {
		return role
	}
	return ""
}

// GetUserEmail extracts the user email from the context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("user_email").(string); ok {
		return email
	}
	return ""
}
