package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	shopserver "github.com/Apurer/go-gin-shop-api/go"

	ordersworkflows "github.com/Apurer/go-gin-shop-api/internal/domains/orders/adapters/workflows"
	orderports "github.com/Apurer/go-gin-shop-api/internal/domains/orders/ports"
	platformobservability "github.com/Apurer/go-gin-shop-api/internal/platform/observability"
)

const apiServiceName = "shop-api"

// Run boots the shop HTTP API with observability, repositories, and workflows
// wired, and serves until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, apiServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	components, err := BuildComponents(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer components.Close()
	if err := components.Bootstrap(ctx, cfg); err != nil {
		return err
	}
	go components.PurgeSessions(ctx, cfg.SessionPurgeInterval)

	orderWorkflows, closeWorkflows := selectOrderWorkflows(components, logger, func() (client.Client, error) {
		return connectTemporalClient(cfg, instruments)
	})
	defer closeWorkflows()

	handlers := shopserver.ApiHandleFunctions{
		ProductAPI: shopserver.NewProductAPI(components.Catalog),
		OrderAPI:   shopserver.NewOrderAPI(components.Orders, orderWorkflows),
		UserAPI:    shopserver.NewUserAPI(components.Users),
	}
	router := newEngine(instruments)
	shopserver.NewRouterWithGinEngine(router, handlers)

	return serve(ctx, logger, ":"+cfg.Port, router)
}

// selectOrderWorkflows places orders through Temporal only when the stores are
// persistent. With in-memory stores the worker would reserve stock in its own
// catalog, so placement stays inline.
func selectOrderWorkflows(c *Components, logger *slog.Logger, dial func() (client.Client, error)) (orderports.WorkflowOrchestrator, func()) {
	inline := ordersworkflows.NewInlineOrderWorkflows(c.Orders)
	if !c.Persistent() {
		logger.Warn("order store is in memory, placing orders inline without Temporal")
		return inline, func() {}
	}
	temporalClient, err := dial()
	if err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled")
	return ordersworkflows.NewTemporalOrderWorkflows(temporalClient), temporalClient.Close
}

func newEngine(instruments *platformobservability.Instruments) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(apiServiceName, otelgin.WithTracerProvider(instruments.TracerProvider)),
		platformobservability.NewHTTPMetrics(instruments.Registry, "shop").Middleware(),
		platformobservability.AccessLog(instruments.Logger),
	)
	router.GET("/metrics", gin.WrapH(instruments.MetricsHandler()))
	return router
}

func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("shop API listening", slog.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("shop API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down shop API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
