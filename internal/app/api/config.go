package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	platformkafka "github.com/Apurer/go-gin-shop-api/internal/platform/kafka"
)

// DevJWTSecret signs tokens when JWT_SECRET is unset. Never use it outside local development.
const DevJWTSecret = "dev-only-insecure-secret"

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	KafkaBrokers      []string
	KafkaOrderTopic   string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	JWTSecret         string
	JWTTTL            time.Duration
	AdminUsername     string
	AdminPassword     string
	SeedCatalog       bool
	// SessionPurgeInterval is zero when in-process purging is disabled.
	SessionPurgeInterval time.Duration
}

// UsingDevSecret reports whether tokens are signed with DevJWTSecret.
func (c Config) UsingDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// LoadConfig reads an optional .env file and the environment, applies
// defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KafkaBrokers:      platformkafka.SplitBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:   envDefault("KAFKA_ORDER_TOPIC", "orders.events"),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		JWTSecret:         envDefault("JWT_SECRET", DevJWTSecret),
		AdminUsername:     strings.TrimSpace(os.Getenv("ADMIN_USERNAME")),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		SeedCatalog:       isTruthy(os.Getenv("SEED_CATALOG")),
	}
	var err error
	if cfg.RedisDB, err = envInt("REDIS_DB", 0, 0); err != nil {
		return Config{}, err
	}
	ttlMinutes, err := envInt("JWT_TTL_MINUTES", 60, 1)
	if err != nil {
		return Config{}, err
	}
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	purgeMinutes, err := envInt("SESSION_PURGE_INTERVAL_MINUTES", 0, 1)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionPurgeInterval = time.Duration(purgeMinutes) * time.Minute
	if (cfg.AdminUsername == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD must be set together")
	}
	return cfg, nil
}

// envInt parses key as an integer >= min, returning fallback when unset.
func envInt(key string, fallback, min int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		return 0, fmt.Errorf("%s must be an integer >= %d", key, min)
	}
	return value, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
