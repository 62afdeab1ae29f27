package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/ClientReviews/internal/embed"
	"github.com/utafrali/ClientReviews/internal/view"
	"github.com/utafrali/ClientReviews/pkg/health"
	"github.com/utafrali/ClientReviews/pkg/middleware"
)

const assetMaxAge = 3600

// RouterConfig holds the knobs of NewRouter.
type RouterConfig struct {
	ServiceName        string
	AdminTokens        middleware.TokenValidator
	RateLimitPerMinute int
	RateLimitBurst     int
	// EmbedOrigins may fetch the slider fragment cross-origin.
	EmbedOrigins []string
	// PprofCIDRs enables /debug/pprof for these networks when non-empty.
	PprofCIDRs []string
}

// NewRouter creates a chi router with all reviews service routes registered.
// ctx bounds the rate limiter's background cleanup.
func NewRouter(
	ctx context.Context,
	public *PublicHandler,
	admin *AdminHandler,
	auth *AuthHandler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.SecurityHeaders)

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	// Static slider assets
	r.With(middleware.CacheControl(assetMaxAge)).
		Handle(view.DefaultAssetBase+"/*", http.StripPrefix(view.DefaultAssetBase+"/", http.FileServerFS(view.Assets())))

	// Public pages and fragments. Form posts are rate limited per client IP.
	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.RateLimit(ctx, cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger))

		r.Get("/", public.Home)
		r.Get("/pages/{pageID}", public.ShowPage)
		r.Post("/pages/{pageID}", public.SubmitPage)
		r.Get("/embed/{marker}", public.ShowEmbed)

		cors := middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.EmbedOrigins})
		r.With(cors).Get("/embed/"+embed.MarkerReviewSlider, public.ShowSlider)
		r.With(cors).Options("/embed/"+embed.MarkerReviewSlider, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/embed/review_form", public.SubmitEmbed)
	})

	// Moderation API
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)

		// Password login, when configured.
		if auth != nil {
			r.With(middleware.RateLimit(ctx, cfg.RateLimitPerMinute, cfg.RateLimitBurst, logger)).
				Post("/login", auth.Login)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.AdminTokens))
			r.Use(middleware.RequireRole(AdminRole))

			r.Get("/statuses", admin.Statuses)
			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", admin.ListReviews)
				r.Get("/{id}", admin.GetReview)
				r.Put("/{id}/status", admin.UpdateStatus)
				r.Delete("/{id}", admin.DeleteReview)
			})
		})
	})

	return r
}
