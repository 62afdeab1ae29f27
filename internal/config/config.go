package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/utafrali/ClientReviews/pkg/config"
)

const (
	defaultAntiforgerySecret = "change-this-antiforgery-secret"
	defaultAdminJWTSecret    = "change-this-admin-jwt-secret"
)

// Config holds all configuration for the reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"reviews"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// AdminBaseURL prefixes the moderation link sent in notifications.
	AdminBaseURL string `env:"ADMIN_BASE_URL" envDefault:"http://localhost:8080"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"false"`
	// EmbedAllowedOrigins may fetch the slider fragment from other sites.
	EmbedAllowedOrigins []string `env:"EMBED_ALLOWED_ORIGINS" envSeparator:","`
	PprofAllowedCIDRs   []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// Storage: "memory" or "postgres".
	StoreDriver        string        `env:"STORE_DRIVER" envDefault:"memory"`
	PostgresHost       string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort       int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser       string        `env:"POSTGRES_USER" envDefault:"reviews"`
	PostgresPass       string        `env:"POSTGRES_PASSWORD" envDefault:"reviews_secret"`
	PostgresDB         string        `env:"POSTGRES_DB" envDefault:"reviews"`
	PostgresSSL        string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	AutoMigrate        bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Anti-forgery replay store: "memory" or "redis".
	TokenStore        string        `env:"TOKEN_STORE" envDefault:"memory"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	AntiforgerySecret string        `env:"ANTIFORGERY_SECRET" envDefault:"change-this-antiforgery-secret"`
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`

	// Admin API
	AdminJWTSecret    string        `env:"ADMIN_JWT_SECRET" envDefault:"change-this-admin-jwt-secret"`
	AdminTokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"1h"`
	AdminUsername     string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"` // bcrypt; empty disables password login

	// Notifications: "log", "shoutrrr" or "webhook".
	NotifyDriver  string        `env:"NOTIFY_DRIVER" envDefault:"log"`
	NotifyTo      string        `env:"NOTIFY_TO" envDefault:"admin@example.com"`
	NotifyURLs    []string      `env:"NOTIFY_URLS" envSeparator:","`
	WebhookURL    string        `env:"NOTIFY_WEBHOOK_URL"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`

	// Kafka; events are disabled when no brokers are configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Rate limit for form posts, per client IP.
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`
	RateLimitBurst     int `env:"RATE_LIMIT_BURST" envDefault:"5"`

	// Tracing
	TracingEnabled  bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTLPInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return load()
}

// LoadFrom reads configuration from environ only.
func LoadFrom(environ map[string]string) (*Config, error) {
	return load(pkgconfig.WithEnvironment(environ))
}

func load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{"memory", "postgres"}, c.StoreDriver) {
		return fmt.Errorf("STORE_DRIVER must be memory or postgres, got %q", c.StoreDriver)
	}
	if !slices.Contains([]string{"memory", "redis"}, c.TokenStore) {
		return fmt.Errorf("TOKEN_STORE must be memory or redis, got %q", c.TokenStore)
	}
	switch c.NotifyDriver {
	case "log":
	case "shoutrrr":
		if len(c.NotifyURLs) == 0 {
			return fmt.Errorf("NOTIFY_URLS is required when NOTIFY_DRIVER=shoutrrr")
		}
	case "webhook":
		if c.WebhookURL == "" {
			return fmt.Errorf("NOTIFY_WEBHOOK_URL is required when NOTIFY_DRIVER=webhook")
		}
	default:
		return fmt.Errorf("NOTIFY_DRIVER must be log, shoutrrr or webhook, got %q", c.NotifyDriver)
	}
	if u, err := url.Parse(c.AdminBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ADMIN_BASE_URL must be an absolute URL, got %q", c.AdminBaseURL)
	}
	if c.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash: %w", err)
		}
		if c.AdminUsername == "" {
			return fmt.Errorf("ADMIN_USERNAME is required when ADMIN_PASSWORD_HASH is set")
		}
	}
	if c.RateLimitPerMinute < 1 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit values must be positive")
	}
	for _, cidr := range c.PprofAllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("PPROF_ALLOWED_CIDRS: invalid CIDR %q", cidr)
		}
	}

	// Outside development both signing secrets must be set explicitly and be strong.
	if c.Environment != "development" {
		secrets := []struct{ name, value, placeholder string }{
			{"ANTIFORGERY_SECRET", c.AntiforgerySecret, defaultAntiforgerySecret},
			{"ADMIN_JWT_SECRET", c.AdminJWTSecret, defaultAdminJWTSecret},
		}
		for _, s := range secrets {
			if s.value == s.placeholder {
				return fmt.Errorf("%s must be explicitly set via environment variable in %q mode", s.name, c.Environment)
			}
			if len(s.value) < 32 {
				return fmt.Errorf("%s must be at least 32 characters long, got %d", s.name, len(s.value))
			}
		}
	}
	return nil
}

// KafkaEnabled reports whether domain events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// RedisAddr returns host:port for the token replay store.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
