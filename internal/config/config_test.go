package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"JWT_SECRET": secret}), WithoutSystemEnv())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.HTTP.MaxRequestBodySize)
	assert.False(t, cfg.HTTP.SecureCookies)
	assert.Equal(t, "50060", cfg.GRPC.Port)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "storefront", cfg.Postgres.DBName)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, 24*time.Hour, cfg.Redis.VisitTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "order-events", cfg.Kafka.Topic)
	assert.Equal(t, 100, cfg.Kafka.BatchSize)
	assert.Equal(t, "storefront", cfg.Auth.Issuer)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{
		"JWT_SECRET":           secret,
		"HTTP_PORT":            "9000",
		"HTTP_SECURE_COOKIES":  "yes",
		"DB_PORT":              "6543",
		"REDIS_DB":             "2",
		"VISIT_TTL":            "30m",
		"KAFKA_BROKERS":        "k1:9092, k2:9092,",
		"OUTBOX_POLL_INTERVAL": "250ms",
		"LOG_LEVEL":            "debug",
	}), WithoutSystemEnv())
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.True(t, cfg.HTTP.SecureCookies)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 30*time.Minute, cfg.Redis.VisitTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.Kafka.PollInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_SystemEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)
	t.Setenv("DB_NAME", "from-env")

	cfg, err := Load(WithEnvMap(map[string]string{"DB_NAME": "from-map"}))
	require.NoError(t, err)

	assert.Equal(t, "from-map", cfg.Postgres.DBName)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
}

func TestLoad_ValidationError(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{
		"JWT_SECRET":          "short",
		"DB_PORT":             "not-a-port",
		"VISIT_TTL":           "-1h",
		"HTTP_SECURE_COOKIES": "maybe",
		"OUTBOX_BATCH_SIZE":   "0",
	}), WithoutSystemEnv())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"DB_PORT", "HTTP_SECURE_COOKIES", "VISIT_TTL", "OUTBOX_BATCH_SIZE", "JWT_SECRET",
	}, verr.Fields())
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
