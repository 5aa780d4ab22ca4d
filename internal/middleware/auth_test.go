package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/food-finder/internal/config"
	"github.com/foxxcyber/food-finder/internal/models"
)

func testApp(cfg *config.Config, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := append([]fiber.Handler{}, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": GetUserID(c), "role": GetUserRole(c)})
	})
	app.Get("/", handlers...)
	return app
}

func tokenFor(t *testing.T, cfg *config.Config, role models.Role, ttl time.Duration) string {
	t.Helper()
	tok, err := GenerateToken(cfg, &models.User{ID: 7, Email: "p@example.org", Role: role}, ttl)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

func refreshFor(t *testing.T, cfg *config.Config) string {
	t.Helper()
	tok, err := GenerateRefreshToken(cfg, &models.User{ID: 7, Email: "p@example.org", Role: models.RoleProvider})
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	return tok
}

func TestAuthGuards(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret", RefreshJWTExpiry: time.Hour}
	other := &config.Config{JWTSecret: "other-secret"}

	tests := []struct {
		name   string
		guards []fiber.Handler
		header string
		want   int
	}{
		{"no header", []fiber.Handler{AuthRequired(cfg)}, "", fiber.StatusUnauthorized},
		{"not bearer", []fiber.Handler{AuthRequired(cfg)}, "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", []fiber.Handler{AuthRequired(cfg)}, "Bearer abc.def.ghi", fiber.StatusUnauthorized},
		{"wrong secret", []fiber.Handler{AuthRequired(cfg)}, "Bearer " + tokenFor(t, other, models.RoleAdmin, time.Hour), fiber.StatusUnauthorized},
		{"expired", []fiber.Handler{AuthRequired(cfg)}, "Bearer " + tokenFor(t, cfg, models.RoleAdmin, -time.Hour), fiber.StatusUnauthorized},
		{"valid provider", []fiber.Handler{AuthRequired(cfg), ProviderRequired()}, "Bearer " + tokenFor(t, cfg, models.RoleProvider, time.Hour), fiber.StatusOK},
		{"provider not admin", []fiber.Handler{AuthRequired(cfg), AdminRequired()}, "Bearer " + tokenFor(t, cfg, models.RoleProvider, time.Hour), fiber.StatusForbidden},
		{"moderator passes moderator", []fiber.Handler{AuthRequired(cfg), ModeratorRequired()}, "Bearer " + tokenFor(t, cfg, models.RoleModerator, time.Hour), fiber.StatusOK},
		{"admin passes moderator", []fiber.Handler{AuthRequired(cfg), ModeratorRequired()}, "Bearer " + tokenFor(t, cfg, models.RoleAdmin, time.Hour), fiber.StatusOK},
		{"role guard without auth", []fiber.Handler{AdminRequired()}, "", fiber.StatusUnauthorized},
		{"optional without token", []fiber.Handler{AuthOptional(cfg)}, "", fiber.StatusOK},
		{"optional with bad token", []fiber.Handler{AuthOptional(cfg)}, "Bearer nope", fiber.StatusOK},
		{"refresh token as bearer", []fiber.Handler{AuthRequired(cfg)}, "Bearer " + refreshFor(t, cfg), fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := testApp(cfg, tt.guards...).Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestParseTokenUse(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret", RefreshJWTExpiry: time.Hour}
	access := tokenFor(t, cfg, models.RoleProvider, time.Hour)
	refresh := refreshFor(t, cfg)

	claims, err := ParseToken(cfg, refresh, TokenRefresh)
	if err != nil {
		t.Fatalf("ParseToken(refresh) error = %v", err)
	}
	if claims.UserID != 7 || claims.Subject != "7" || claims.Use != TokenRefresh {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := ParseToken(cfg, access, TokenRefresh); !errors.Is(err, ErrWrongTokenUse) {
		t.Errorf("access as refresh error = %v, want ErrWrongTokenUse", err)
	}
	if _, err := ParseToken(cfg, refresh, TokenAccess); !errors.Is(err, ErrWrongTokenUse) {
		t.Errorf("refresh as access error = %v, want ErrWrongTokenUse", err)
	}
}
