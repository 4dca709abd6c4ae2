package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_ORDER_TOPIC", "JWT_SECRET",
		"JWT_TTL_MINUTES", "SESSION_PURGE_INTERVAL_MINUTES", "ADMIN_USERNAME", "ADMIN_PASSWORD", "SEED_CATALOG", "TEMPORAL_DISABLED"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "orders.events", cfg.KafkaOrderTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Zero(t, cfg.SessionPurgeInterval)
	assert.True(t, cfg.UsingDevSecret())
	assert.False(t, cfg.SeedCatalog)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("JWT_TTL_MINUTES", "15")
	t.Setenv("SESSION_PURGE_INTERVAL_MINUTES", "5")
	t.Setenv("SEED_CATALOG", "true")
	t.Setenv("TEMPORAL_DISABLED", "1")
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 5*time.Minute, cfg.SessionPurgeInterval)
	assert.False(t, cfg.UsingDevSecret())
	assert.True(t, cfg.SeedCatalog)
	assert.True(t, cfg.TemporalDisabled)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("JWT_TTL_MINUTES", "0")
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("JWT_TTL_MINUTES", "")
	t.Setenv("ADMIN_USERNAME", "root")
	t.Setenv("ADMIN_PASSWORD", "")
	_, err = LoadConfig()
	require.Error(t, err)
}
