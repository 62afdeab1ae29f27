package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "memory", cfg.TokenStore)
	assert.Equal(t, "log", cfg.NotifyDriver)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"HTTP_PORT":      "9000",
		"STORE_DRIVER":   "postgres",
		"TOKEN_STORE":    "redis",
		"KAFKA_BROKERS":  "k1:9092,k2:9092",
		"NOTIFY_DRIVER":  "shoutrrr",
		"NOTIFY_URLS":    "smtp://u:p@mail:25/?from=a@b.c&to=d@e.f",
		"ADMIN_BASE_URL": "https://reviews.example.com",

		"EMBED_ALLOWED_ORIGINS": "https://a.example.com,https://b.example.com",
		"PPROF_ALLOWED_CIDRS":   "10.0.0.0/8",
	})
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Len(t, cfg.NotifyURLs, 1)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.EmbedAllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.PprofAllowedCIDRs)
}

func TestLoadFrom_Invalid(t *testing.T) {
	strong := strings.Repeat("s", 32)

	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad port", map[string]string{"HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"bad store", map[string]string{"STORE_DRIVER": "mysql"}, "STORE_DRIVER"},
		{"bad token store", map[string]string{"TOKEN_STORE": "memcache"}, "TOKEN_STORE"},
		{"shoutrrr without urls", map[string]string{"NOTIFY_DRIVER": "shoutrrr"}, "NOTIFY_URLS"},
		{"webhook without url", map[string]string{"NOTIFY_DRIVER": "webhook"}, "NOTIFY_WEBHOOK_URL"},
		{"unknown notifier", map[string]string{"NOTIFY_DRIVER": "pigeon"}, "NOTIFY_DRIVER"},
		{"relative admin url", map[string]string{"ADMIN_BASE_URL": "/admin"}, "ADMIN_BASE_URL"},
		{"zero notify timeout", map[string]string{"NOTIFY_TIMEOUT": "0s"}, "NOTIFY_TIMEOUT"},
		{"bad pprof cidr", map[string]string{"PPROF_ALLOWED_CIDRS": "10.0.0.1"}, "PPROF_ALLOWED_CIDRS"},
		{"plaintext password hash", map[string]string{"ADMIN_PASSWORD_HASH": "hunter2"}, "ADMIN_PASSWORD_HASH"},
		{"production default antiforgery secret", map[string]string{
			"ENVIRONMENT": "production", "ADMIN_JWT_SECRET": strong,
		}, "ANTIFORGERY_SECRET must be explicitly set"},
		{"production short admin secret", map[string]string{
			"ENVIRONMENT": "production", "ANTIFORGERY_SECRET": strong, "ADMIN_JWT_SECRET": "short",
		}, "ADMIN_JWT_SECRET must be at least 32 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.env)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFrom_ProductionWithStrongSecrets(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"ENVIRONMENT":        "production",
		"ANTIFORGERY_SECRET": strings.Repeat("a", 40),
		"ADMIN_JWT_SECRET":   strings.Repeat("b", 40),
	})
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadFrom_AdminPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg, err := LoadFrom(map[string]string{
		"ADMIN_USERNAME":      "ops",
		"ADMIN_PASSWORD_HASH": string(hash),
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.AdminUsername)
	assert.Equal(t, string(hash), cfg.AdminPasswordHash)
}
