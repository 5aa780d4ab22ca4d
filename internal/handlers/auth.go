package handlers

import (
	"errors"
	"log"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/foxxcyber/food-finder/internal/database"
	"github.com/foxxcyber/food-finder/internal/middleware"
	"github.com/foxxcyber/food-finder/internal/models"
)

const (
	minPasswordLength = 8
	maxNameLength     = 100
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// credentialsError validates a normalized email and password for a new account
func credentialsError(email, password string) string {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "invalid email format"
	}
	if len(password) < minPasswordLength {
		return "password must be at least 8 characters"
	}
	return ""
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// issueTokens returns a fresh access and refresh token pair for user
func (h *Handler) issueTokens(user *models.User) (*models.AuthResponse, error) {
	access, err := middleware.GenerateToken(h.cfg, user, h.cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}
	refresh, err := middleware.GenerateRefreshToken(h.cfg, user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: access, RefreshToken: refresh, User: user}, nil
}

// Register creates a provider account and signs it in
// POST /api/auth/register
func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = normalizeEmail(req.Email)
	if msg := credentialsError(req.Email, req.Password); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}
	if req.Name != nil && len(*req.Name) > maxNameLength {
		return Error(c, fiber.StatusBadRequest, "name must be at most 100 characters")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to process password")
	}

	user, err := h.users.CreateUser(c.UserContext(), req.Email, hash, models.RoleProvider, &req)
	if err != nil {
		if errors.Is(err, database.ErrEmailExists) {
			return Error(c, fiber.StatusConflict, "email already registered")
		}
		log.Printf("Warning: failed to register %s: %v", req.Email, err)
		return Error(c, fiber.StatusInternalServerError, "failed to create account")
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login exchanges credentials for a token pair. Disabled accounts get 403
// once the password has been verified.
// POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	user, err := h.users.GetUserByEmail(c.UserContext(), normalizeEmail(req.Email))
	switch {
	case errors.Is(err, database.ErrUserNotFound):
		return Error(c, fiber.StatusUnauthorized, "invalid credentials")
	case err != nil:
		return Error(c, fiber.StatusInternalServerError, "authentication failed")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if !user.Active {
		return Error(c, fiber.StatusForbidden, "account is disabled")
	}

	if err := h.users.UpdateUserLastLogin(c.UserContext(), user.ID); err != nil {
		log.Printf("Warning: failed to record login for user %d: %v", user.ID, err)
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}
	return c.JSON(resp)
}

// Logout is client-side; tokens simply expire
// POST /api/auth/logout
func (h *Handler) Logout(c *fiber.Ctx) error {
	return Success(c, fiber.Map{"message": "logged out"})
}

// GetCurrentUser returns the account behind the access token
// GET /api/auth/me
func (h *Handler) GetCurrentUser(c *fiber.Ctx) error {
	user, err := h.users.GetUserByID(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get user")
	}
	return Success(c, user)
}

// RefreshToken trades a refresh token for a new token pair. The account is
// reloaded so role changes and deactivation take effect.
// POST /api/auth/refresh
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	var req models.RefreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return Error(c, fiber.StatusBadRequest, "refresh_token is required")
	}

	claims, err := middleware.ParseToken(h.cfg, req.RefreshToken, middleware.TokenRefresh)
	if err != nil {
		return Error(c, fiber.StatusUnauthorized, "invalid or expired refresh token")
	}

	user, err := h.users.GetUserByID(c.UserContext(), claims.UserID)
	if err != nil || !user.Active {
		return Error(c, fiber.StatusUnauthorized, "invalid or expired refresh token")
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}
	return c.JSON(resp)
}
