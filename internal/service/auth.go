package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/logger"
	"github.com/utafrali/ClientReviews/pkg/middleware"
)

// AdminRole is the token role allowed to moderate.
const AdminRole = "admin"

// BcryptCost is the cost factor for admin password hashes.
const BcryptCost = 12

const invalidCredentials = "invalid username or password"

// AdminAuthConfig configures password login for the moderation API.
type AdminAuthConfig struct {
	Username     string
	PasswordHash string // bcrypt; empty disables login
	Secret       []byte
	TTL          time.Duration
}

// AdminToken is a signed bearer token for the moderation API.
type AdminToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminAuthService exchanges the admin password for a bearer token.
type AdminAuthService struct {
	cfg    AdminAuthConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewAdminAuthService creates a new AdminAuthService.
func NewAdminAuthService(cfg AdminAuthConfig, logger *slog.Logger) *AdminAuthService {
	return &AdminAuthService{cfg: cfg, logger: logger, now: time.Now}
}

// Enabled reports whether a password hash is configured.
func (s *AdminAuthService) Enabled() bool {
	return s.cfg.PasswordHash != ""
}

// Login checks username and password and returns a token for AdminRole.
func (s *AdminAuthService) Login(ctx context.Context, username, password string) (*AdminToken, error) {
	log := logger.WithContext(ctx, s.logger)

	if !s.Enabled() {
		return nil, apperrors.Unauthorized("password login is disabled")
	}
	if username == "" || password == "" {
		return nil, apperrors.InvalidInput("username and password are required")
	}

	// The hash is always compared so an unknown username costs the same.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		log.Warn("admin login failed")
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	expires := s.now().Add(s.cfg.TTL).UTC()
	token, err := middleware.SignHS256(s.cfg.Secret, username, AdminRole, s.cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("sign admin token: %w", err)
	}

	log.Info("admin logged in", slog.String("subject", username))
	return &AdminToken{Token: token, ExpiresAt: expires}, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if len(password) < 12 {
		return "", fmt.Errorf("password must be at least 12 characters")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
