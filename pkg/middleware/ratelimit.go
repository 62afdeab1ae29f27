package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorStore keeps one token bucket per client IP and forgets clients not
// seen within ttl.
type visitorStore struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

func newVisitorStore(perMinute, burst int, ttl time.Duration) *visitorStore {
	return &visitorStore{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *visitorStore) allow(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = s.now()
	return v.limiter.AllowN(v.lastSeen, 1)
}

func (s *visitorStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for ip, v := range s.visitors {
		if now.Sub(v.lastSeen) > s.ttl {
			delete(s.visitors, ip)
		}
	}
}

func (s *visitorStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}

func (s *visitorStore) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// RateLimit enforces a per-IP token bucket of perMinute requests with the
// given burst. Only unsafe methods are counted; GET and HEAD pass through.
// The eviction goroutine stops when ctx is cancelled.
func RateLimit(ctx context.Context, perMinute, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	const ttl = 3 * time.Minute
	store := newVisitorStore(perMinute, burst, ttl)
	go store.cleanupLoop(ctx)
	return rateLimit(store, logger)
}

func rateLimit(store *visitorStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			ip := ClientIP(r)
			if !store.allow(ip) {
				logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Retry-After", "60")
				if wantsJSON(r) {
					writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
					return
				}
				http.Error(w, "Too many requests. Try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first valid address from X-Forwarded-For, then
// X-Real-IP, then the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip.String()
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
