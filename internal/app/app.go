package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meimberg-io/awesomeapps/internal/config"
	"github.com/meimberg-io/awesomeapps/internal/event"
	graphqlhandler "github.com/meimberg-io/awesomeapps/internal/handler/graphql"
	handler "github.com/meimberg-io/awesomeapps/internal/handler/http"
	"github.com/meimberg-io/awesomeapps/internal/notifier"
	"github.com/meimberg-io/awesomeapps/internal/repository/postgres"
	"github.com/meimberg-io/awesomeapps/internal/service"
	"github.com/meimberg-io/awesomeapps/migrations"
	"github.com/meimberg-io/awesomeapps/pkg/database"
	"github.com/meimberg-io/awesomeapps/pkg/health"
	"github.com/meimberg-io/awesomeapps/pkg/httpclient"
	pkgkafka "github.com/meimberg-io/awesomeapps/pkg/kafka"
	"github.com/meimberg-io/awesomeapps/pkg/tracing"
)

// App wires together all dependencies and runs the backend.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "awesomeapps-backend",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "awesomeapps-backend")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Redis is optional: the tag-count cache degrades to computing every
	// query when no client is configured.
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = database.NewRedisClient(ctx, database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("host", cfg.RedisHost),
			slog.Int("port", cfg.RedisPort),
		)
	}

	// Build the repository layer first; the revalidation notifier needs it.
	serviceRepo := postgres.NewServiceRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	memberRepo := postgres.NewMemberRepository(pool)
	favoriteRepo := postgres.NewFavoriteRepository(pool)
	tagRepo := postgres.NewTagRepository(pool)

	// Review events fan out to whichever sinks are configured: Kafka and
	// the frontend revalidation webhook are both optional and best-effort.
	var producer *pkgkafka.Producer
	var publishers service.MultiPublisher
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publishers = append(publishers, event.NewProducer(producer, logger))
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	if cfg.RevalidateEnabled {
		cbClient := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("frontend-revalidate"),
			logger,
		)
		publishers = append(publishers, notifier.NewRevalidator(cbClient, serviceRepo, cfg.RevalidateURL, cfg.RevalidateSecret, logger))
		logger.Info("frontend revalidation enabled", slog.String("url", cfg.RevalidateURL))
	}
	var eventPublisher service.ReviewEventPublisher
	if len(publishers) > 0 {
		eventPublisher = publishers
	}

	aggregateUpdater := service.NewAggregateUpdater(serviceRepo, reviewRepo, logger)
	reviewService := service.NewReviewService(reviewRepo, memberRepo, serviceRepo, aggregateUpdater, eventPublisher, logger)
	recalculator := service.NewRecalculator(serviceRepo, reviewRepo, logger)
	favoriteService := service.NewFavoriteService(favoriteRepo, memberRepo, serviceRepo, logger)
	memberService := service.NewMemberService(memberRepo, reviewRepo, favoriteRepo, logger)
	tagService := service.NewTagService(tagRepo, serviceRepo, redisClient, logger)

	// GraphQL schema.
	schema, err := graphqlhandler.NewSchema(tagService)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(handler.Handlers{
		Review:  handler.NewReviewHandler(reviewService, logger),
		Member:  handler.NewMemberHandler(memberService, favoriteService, reviewService, logger),
		Tag:     handler.NewTagHandler(tagService, logger),
		Service: handler.NewServiceHandler(recalculator, logger),
		GraphQL: graphqlhandler.NewHandler(schema, logger),
		Health:  healthHandler,
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
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

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer and Redis client
// 4. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
