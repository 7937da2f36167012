package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults for local development", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "")
		t.Setenv("JWT_SIGNING_KEY", "")
		t.Setenv("ENVIRONMENT", "")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":5000", cfg.Addr)
		assert.Equal(t, BackendMemory, cfg.StoreBackend)
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
		assert.NotEmpty(t, cfg.JWTSigningKey)
		assert.Equal(t, 5, cfg.Lockout.MaxFailures)
		assert.Empty(t, cfg.Kafka.Brokers)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("AGENCYHUB_ADDR", ":8081")
		t.Setenv("JWT_TTL", "1h")
		t.Setenv("STORE_BACKEND", "Mongo")
		t.Setenv("MONGO_URI", "mongodb://localhost:27017")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("LOGIN_MAX_FAILURES", "3")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8081", cfg.Addr)
		assert.Equal(t, time.Hour, cfg.JWTTTL)
		assert.Equal(t, BackendMongo, cfg.StoreBackend)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 3, cfg.Lockout.MaxFailures)
	})

	t.Run("malformed values fall back and are reported", func(t *testing.T) {
		t.Setenv("JWT_TTL", "forever")
		t.Setenv("LOGIN_MAX_FAILURES", "many")

		cfg, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_TTL")
		assert.Contains(t, err.Error(), "LOGIN_MAX_FAILURES")
		assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	})

	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SIGNING_KEY", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
	})

	t.Run("postgres backend requires DATABASE_URL", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		t.Setenv("DATABASE_URL", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})
}
