package antiforgery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ActionSubmitReview is the action id bound to review form tokens.
const ActionSubmitReview = "submit_review"

const issuer = "reviews"

// Verification failures. Callers must not reveal which one occurred.
var (
	ErrMissing  = errors.New("antiforgery: token missing")
	ErrInvalid  = errors.New("antiforgery: token invalid or expired")
	ErrMismatch = errors.New("antiforgery: token bound to another session or action")
	ErrReplayed = errors.New("antiforgery: token already used")
)

// ReplayStore records consumed token ids.
type ReplayStore interface {
	// Consume marks id as used for ttl. It returns false when id was
	// already consumed.
	Consume(ctx context.Context, id string, ttl time.Duration) (bool, error)
}

// Claims are the signed fields of a form token.
type Claims struct {
	Session string `json:"sid"`
	Action  string `json:"act"`
	jwt.RegisteredClaims
}

// Manager issues and verifies single-use, session-bound form tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  ReplayStore
	now    func() time.Time
}

// NewManager creates a Manager signing with secret. Tokens expire after ttl.
func NewManager(secret string, ttl time.Duration, store ReplayStore) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

// SessionRef returns a stable, non-reversible reference to sessionID that is
// safe to log or embed.
func SessionRef(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}

// Issue returns a token valid for sessionID and action.
func (m *Manager) Issue(_ context.Context, sessionID, action string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("issue token: %w", ErrMissing)
	}

	now := m.now().UTC()
	claims := &Claims{
		Session: SessionRef(sessionID),
		Action:  action,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign form token: %w", err)
	}
	return signed, nil
}

// Verify checks that token was issued by this Manager for sessionID and
// action, has not expired, and has not been used before. A successful call
// consumes the token.
func (m *Manager) Verify(ctx context.Context, tokenString, sessionID, action string) error {
	if tokenString == "" || sessionID == "" {
		return ErrMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if claims.Session != SessionRef(sessionID) || claims.Action != action {
		return ErrMismatch
	}
	if claims.ID == "" {
		return ErrInvalid
	}

	remaining := claims.ExpiresAt.Sub(m.now())
	if remaining <= 0 {
		remaining = time.Second
	}
	fresh, err := m.store.Consume(ctx, claims.ID, remaining)
	if err != nil {
		return fmt.Errorf("consume token: %w", err)
	}
	if !fresh {
		return ErrReplayed
	}
	return nil
}
