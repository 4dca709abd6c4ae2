package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	catalogmemory "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"

	orderskafka "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/events/kafka"
	ordersredis "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/idempotency/redis"
	ordersmemory "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/go-gin-shop-api/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"

	usermemory "github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/memory"
	userobs "github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/observability"
	userpostgres "github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/persistence/postgres"
	usertokens "github.com/Apurer/go-gin-shop-api/internal/domains/users/adapters/tokens"
	userapp "github.com/Apurer/go-gin-shop-api/internal/domains/users/application"
	userdomain "github.com/Apurer/go-gin-shop-api/internal/domains/users/domain"
	userports "github.com/Apurer/go-gin-shop-api/internal/domains/users/ports"

	platformkafka "github.com/Apurer/go-gin-shop-api/internal/platform/kafka"
	"github.com/Apurer/go-gin-shop-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-shop-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-shop-api/internal/platform/postgres"
	platformredis "github.com/Apurer/go-gin-shop-api/internal/platform/redis"
)

// Components holds the decorated services shared by the API and worker processes.
type Components struct {
	Catalog  catalogports.Service
	Orders   orderports.Service
	Users    userports.Service
	Sessions userports.SessionStore

	users      *userapp.Service
	logger     *slog.Logger
	closers    []func()
	persistent bool
}

// Persistent reports whether the stores live in PostgreSQL, where separate
// API and worker processes see the same catalog and ledger.
func (c *Components) Persistent() bool {
	return c != nil && c.persistent
}

var errMemoryStore = errors.New("order store is in memory; the worker needs POSTGRES_DSN pointing at the API's database")

// requirePersistent refuses to run placement activities against a private in-memory store.
func (c *Components) requirePersistent() error {
	if !c.Persistent() {
		return errMemoryStore
	}
	return nil
}

type storage struct {
	catalog     catalogports.Repository
	orders      orderports.Store
	idempotency orderports.IdempotencyStore
	users       userports.Repository
	sessions    userports.SessionStore
}

// BuildComponents connects the configured backends, falling back to in-memory
// adapters when PostgreSQL is not configured or unreachable.
func BuildComponents(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Components, error) {
	logger := effectiveLogger(instruments)
	c := &Components{logger: logger}

	store := c.buildStorage(ctx, cfg)
	if client, err := connectRedis(ctx, cfg); err != nil {
		logger.Warn("redis unavailable, idempotency keys stay in the order store", slog.String("error", err.Error()))
	} else if client != nil {
		c.closers = append(c.closers, func() { _ = client.Close() })
		store.idempotency = ordersredis.NewIdempotencyStore(client)
		logger.Info("idempotency keys configured with redis", slog.String("addr", cfg.RedisAddr))
	}

	publisher := orderports.NoopEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		writer := platformkafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		c.closers = append(c.closers, func() { _ = writer.Close() })
		publisher = orderskafka.NewPublisher(writer)
		logger.Info("order events configured with kafka", slog.String("topic", cfg.KafkaOrderTopic))
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are discarded")
	}

	issuer, err := usertokens.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("configure token issuer: %w", err)
	}
	if cfg.UsingDevSecret() {
		logger.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}

	c.Catalog = catalogobs.New(
		catalogapp.NewService(store.catalog),
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)
	c.Orders = ordersobs.New(
		ordersapp.NewService(store.orders,
			ordersapp.WithIdempotencyStore(store.idempotency),
			ordersapp.WithEventPublisher(publisher),
			ordersapp.WithLogger(logger),
		),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	c.users = userapp.NewService(store.users, store.sessions, issuer)
	c.Users = userobs.New(
		c.users,
		userobs.WithLogger(logger),
		userobs.WithTracer(instruments.Tracer("internal.users.application")),
		userobs.WithMeter(instruments.Meter("internal.users.application")),
	)
	c.Sessions = store.sessions
	return c, nil
}

func (c *Components) buildStorage(ctx context.Context, cfg Config) storage {
	if db := c.connectPostgres(ctx, cfg); db != nil {
		c.logger.Info("repositories configured with postgres")
		c.persistent = true
		return storage{
			catalog:     catalogpostgres.NewRepository(db),
			orders:      orderspostgres.NewStore(db),
			idempotency: orderspostgres.NewIdempotencyStore(db),
			users:       userpostgres.NewRepository(db),
			sessions:    userpostgres.NewSessionStore(db),
		}
	}
	catalog := catalogmemory.NewRepository()
	return storage{
		catalog:     catalog,
		orders:      ordersmemory.NewStore(catalog),
		idempotency: ordersmemory.NewIdempotencyStore(),
		users:       usermemory.NewRepository(),
		sessions:    usermemory.NewSessionStore(),
	}
}

func (c *Components) connectPostgres(ctx context.Context, cfg Config) *gorm.DB {
	if cfg.PostgresDSN == "" {
		c.logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return nil
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		c.logger.Warn("failed to connect to postgres, falling back to memory", slog.String("error", err.Error()))
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		c.logger.Warn("failed to unwrap postgres connection, falling back to memory", slog.String("error", err.Error()))
		return nil
	}
	if err := migrations.Run(db); err != nil {
		_ = sqlDB.Close()
		c.logger.Warn("failed to migrate postgres schema, falling back to memory", slog.String("error", err.Error()))
		return nil
	}
	c.closers = append(c.closers, func() { _ = sqlDB.Close() })
	return db
}

// connectRedis returns a nil client when REDIS_ADDR is unset.
func connectRedis(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return platformredis.Connect(ctx, platformredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
}

// Bootstrap provisions the configured administrator and seeds the catalog.
func (c *Components) Bootstrap(ctx context.Context, cfg Config) error {
	if cfg.AdminUsername != "" {
		admin, err := c.users.Provision(ctx, userports.RegisterInput{Username: cfg.AdminUsername, Password: cfg.AdminPassword}, userdomain.RoleAdmin)
		if err != nil {
			return fmt.Errorf("provision admin: %w", err)
		}
		c.logger.Info("administrator provisioned", slog.String("user.id", admin.ID), slog.String("username", admin.Username))
	}
	if cfg.SeedCatalog {
		seeded, err := SeedCatalog(ctx, c.Catalog)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		c.logger.Info("catalog seeded", slog.Int("products", seeded))
	}
	return nil
}

// PurgeSessions removes expired sessions every interval until ctx is done.
func (c *Components) PurgeSessions(ctx context.Context, interval time.Duration) {
	if interval <= 0 || c.Sessions == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := c.Sessions.PurgeExpired(ctx)
			if err != nil {
				c.logger.Error("session purge failed", slog.String("error", err.Error()))
				continue
			}
			c.logger.Info("expired sessions purged", slog.Int64("count", purged))
		}
	}
}

// Close releases backend connections in reverse order of acquisition.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
