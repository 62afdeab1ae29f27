package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ClientReviews/internal/antiforgery"
	"github.com/utafrali/ClientReviews/pkg/logger"
)

// SessionCookie names the cookie that binds form tokens to a browser.
const SessionCookie = "reviews_session"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

type sessionKey struct{}

// ensureSession returns the visitor's session id, issuing a new cookie when
// the request has none or carries a malformed one. The returned context
// remembers the id, so a second call within the same request never issues
// another cookie, and carries a short session reference for logging.
func ensureSession(ctx context.Context, w http.ResponseWriter, r *http.Request, cfg CookieConfig) (context.Context, string) {
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return ctx, id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return withSession(ctx, id.String()), id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return withSession(ctx, id), id
}

func withSession(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, id)
	return logger.WithSessionID(ctx, antiforgery.SessionRef(id)[:16])
}
