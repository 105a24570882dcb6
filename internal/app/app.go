package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/antoniojosev/crm-satoru/internal/cache"
	"github.com/antoniojosev/crm-satoru/internal/config"
	"github.com/antoniojosev/crm-satoru/internal/event"
	handler "github.com/antoniojosev/crm-satoru/internal/handler/http"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	"github.com/antoniojosev/crm-satoru/internal/session"
	"github.com/antoniojosev/crm-satoru/pkg/health"
	pkgkafka "github.com/antoniojosev/crm-satoru/pkg/kafka"
	"github.com/antoniojosev/crm-satoru/pkg/tracing"
)

// dashboardStatsTTL keeps the home page snappy without showing stale numbers
// for long.
const dashboardStatsTTL = 30 * time.Second

// App wires together all dependencies and runs the admin dashboard service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing (no-op when disabled).
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  "satoru-admin-dashboard",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.TracingEndpoint,
		SampleRate:   cfg.TracingSampler,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis session store.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	store := session.NewRedisStore(redisClient, cfg.SessionTTL)

	// Kafka audit producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Core API client over the session vault.
	client := satoru.NewClient(satoru.Config{
		BaseURL: cfg.SatoruAPIURL,
		Timeout: cfg.SatoruAPITimeout,
	}, session.NewVault(store), logger)

	// Build the dependency graph.
	manager := session.NewManager(store, client, logger)
	codec := session.NewCookieCodec(cfg.SessionCookieName, cfg.SessionSecret, cfg.SessionTTL, cfg.Environment != "development")
	events := event.NewPublisher(producer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", store.Ping)
	healthHandler.Register("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(handler.RouterDeps{
		Manager:        manager,
		Store:          store,
		Codec:          codec,
		Projects:       cache.NewProjectCache(client),
		Investors:      cache.NewInvestorCache(client),
		Dashboard:      cache.NewDashboardCache(client, dashboardStatsTTL),
		Events:         events,
		Health:         healthHandler,
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
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
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}
