package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKeyType string

const (
	subjectKey contextKeyType = "subject"
	roleKey    contextKeyType = "role"
)

// Claims are the bearer token fields the handlers care about.
type Claims struct {
	Subject string
	Role    string
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

// HS256Validator verifies HMAC-SHA256 tokens signed with secret. The token
// must carry exp; sub and role are read from the map claims.
func HS256Validator(secret []byte) TokenValidator {
	return func(tokenString string) (*Claims, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			return secret, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}

		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return nil, errors.New("invalid token claims")
		}
		sub, _ := mc.GetSubject()
		role, _ := mc["role"].(string)
		return &Claims{Subject: sub, Role: role}, nil
	}
}

// SignHS256 returns a token accepted by HS256Validator(secret) for ttl.
func SignHS256(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Auth validates the Authorization bearer token and stores its claims in the
// request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(token)
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose token role is not one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="reviews-admin"`)
	writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
}
