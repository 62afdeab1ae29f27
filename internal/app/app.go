package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ClientReviews/internal/antiforgery"
	"github.com/utafrali/ClientReviews/internal/config"
	"github.com/utafrali/ClientReviews/internal/embed"
	"github.com/utafrali/ClientReviews/internal/event"
	handler "github.com/utafrali/ClientReviews/internal/handler/http"
	"github.com/utafrali/ClientReviews/internal/notify"
	"github.com/utafrali/ClientReviews/internal/repository"
	"github.com/utafrali/ClientReviews/internal/repository/memory"
	"github.com/utafrali/ClientReviews/internal/repository/postgres"
	"github.com/utafrali/ClientReviews/internal/service"
	"github.com/utafrali/ClientReviews/internal/view"
	"github.com/utafrali/ClientReviews/pkg/database"
	"github.com/utafrali/ClientReviews/pkg/health"
	"github.com/utafrali/ClientReviews/pkg/httpclient"
	pkgkafka "github.com/utafrali/ClientReviews/pkg/kafka"
	"github.com/utafrali/ClientReviews/pkg/middleware"
	"github.com/utafrali/ClientReviews/pkg/tracing"
)

const (
	startupTimeout      = 30 * time.Second
	replayCleanupPeriod = 10 * time.Minute
)

// App wires together all dependencies and runs the reviews service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	dispatcher     *notify.Dispatcher
	tracerShutdown tracing.Shutdown
	httpServer     *http.Server
	stop           context.CancelFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeResources()
		}
	}()

	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
		SampleRate:   cfg.TraceSampleRate,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	// Review store.
	repo, err := a.openStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Anti-forgery tokens.
	replay, err := a.openReplayStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	tokens := antiforgery.NewManager(cfg.AntiforgerySecret, cfg.TokenTTL, replay)

	// Domain events.
	var events service.EventPublisher = event.Noop{}
	if cfg.KafkaEnabled() {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Notifications.
	sender, err := newSender(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.dispatcher = notify.NewDispatcher(sender, cfg.NotifyTimeout, logger)
	logger.Info("notifier initialized", slog.String("sender", sender.Name()))

	// Build the dependency graph.
	submissionService := service.NewSubmissionService(repo, tokens, a.dispatcher, events, service.SubmissionConfig{
		NotifyTo:     cfg.NotifyTo,
		AdminBaseURL: cfg.AdminBaseURL,
	}, logger)
	sliderService := service.NewSliderService(repo, logger)
	moderationService := service.NewModerationService(repo, events, logger)

	renderer, err := view.New(view.DefaultAssetBase)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	registry := embed.NewRegistry()
	publicHandler := handler.NewPublicHandler(registry, renderer, submissionService, sliderService, tokens,
		handler.CookieConfig{Secure: cfg.CookieSecure, MaxAge: cfg.TokenTTL}, logger)
	registry.Register(embed.MarkerReviewForm, publicHandler.FormMarker)
	registry.Register(embed.MarkerReviewSlider, publicHandler.SliderMarker)
	adminHandler := handler.NewAdminHandler(moderationService, logger)

	var authHandler *handler.AuthHandler
	authService := service.NewAdminAuthService(service.AdminAuthConfig{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       []byte(cfg.AdminJWTSecret),
		TTL:          cfg.AdminTokenTTL,
	}, logger)
	if authService.Enabled() {
		authHandler = handler.NewAuthHandler(authService, logger)
	}

	// Background work started by the router lives until Shutdown.
	runCtx, stop := context.WithCancel(context.Background())
	a.stop = stop

	router := handler.NewRouter(runCtx, publicHandler, adminHandler, authHandler, healthHandler, handler.RouterConfig{
		ServiceName:        cfg.ServiceName,
		AdminTokens:        middleware.HS256Validator([]byte(cfg.AdminJWTSecret)),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
		EmbedOrigins:       cfg.EmbedAllowedOrigins,
		PprofCIDRs:         cfg.PprofAllowedCIDRs,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("markers registered",
		slog.Any("markers", registry.Names()),
		slog.Bool("admin_password_login", authService.Enabled()),
	)
	ok = true
	return a, nil
}

func (a *App) openStore(ctx context.Context, h *health.Handler) (repository.ReviewRepository, error) {
	if a.cfg.StoreDriver != "postgres" {
		a.logger.Warn("using in-memory review store; reviews are lost on restart")
		repo := memory.NewReviewRepository()
		h.Register("store", repo.Ping)
		return repo, nil
	}

	pool, err := OpenPostgres(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.pool = pool

	if a.cfg.AutoMigrate {
		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, a.cfg.ServiceName); err != nil {
		a.logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
	}
	database.SetSlowQueryLogging(a.cfg.SlowQueryThreshold, a.logger)

	repo := postgres.NewReviewRepository(pool)
	h.Register("postgres", repo.Ping)
	return repo, nil
}

func (a *App) openReplayStore(ctx context.Context, h *health.Handler) (antiforgery.ReplayStore, error) {
	if a.cfg.TokenStore != "redis" {
		return antiforgery.NewMemoryStore(replayCleanupPeriod), nil
	}

	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr()),
		slog.Int("db", a.cfg.RedisDB),
	)

	h.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	return antiforgery.NewRedisStore(rdb), nil
}

// OpenPostgres connects to the configured PostgreSQL database.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	return pool, nil
}

// Migrate applies pending schema migrations and exits.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := OpenPostgres(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return database.RunMigrations(ctx, pool, postgres.Migrations(), logger)
}

func newSender(cfg *config.Config, logger *slog.Logger) (notify.Sender, error) {
	switch cfg.NotifyDriver {
	case "shoutrrr":
		s, err := notify.NewShoutrrrSender(cfg.NotifyURLs, cfg.NotifyTimeout)
		if err != nil {
			return nil, fmt.Errorf("create shoutrrr sender: %w", err)
		}
		return s, nil
	case "webhook":
		httpCfg := httpclient.DefaultConfig()
		httpCfg.Timeout = cfg.NotifyTimeout
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpCfg),
			httpclient.DefaultCircuitBreakerConfig("notify-webhook"),
			logger,
		)
		return notify.NewWebhookSender(cfg.WebhookURL, client), nil
	default:
		return notify.NewLogSender(logger), nil
	}
}

// Handler returns the HTTP handler, for tests that drive the full stack.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components. In-flight notifications get the
// remainder of the shutdown deadline to finish.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.dispatcher.Wait(shutdownCtx); err != nil {
		a.logger.Warn("pending notifications abandoned", slog.String("error", err.Error()))
	}

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()
	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.stop != nil {
		a.stop()
	}

	// Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	// Close Redis client.
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}
}
