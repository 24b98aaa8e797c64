package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/core/port"
	"github.com/aurelhotels/credential-service/internal/infra/config"
	"github.com/aurelhotels/credential-service/internal/infra/database"
	kafkainfra "github.com/aurelhotels/credential-service/internal/infra/kafka"
	"github.com/aurelhotels/credential-service/internal/infra/logger"
	"github.com/aurelhotels/credential-service/internal/infra/notification"
	redisinfra "github.com/aurelhotels/credential-service/internal/infra/redis"
	"github.com/aurelhotels/credential-service/internal/infra/security"
	"github.com/aurelhotels/credential-service/internal/infra/telemetry"
	memoryrepo "github.com/aurelhotels/credential-service/internal/repository/memory"
	postgresrepo "github.com/aurelhotels/credential-service/internal/repository/postgres"
	redisrepo "github.com/aurelhotels/credential-service/internal/repository/redis"
	"github.com/aurelhotels/credential-service/internal/transport/http/middleware"
	"github.com/aurelhotels/credential-service/internal/transport/http/routes"
	"github.com/aurelhotels/credential-service/internal/usecase"
)

// Application owns the wired service graph and its lifecycle.
type Application struct {
	cfg         *config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	pool        *pgxpool.Pool
	redis       *redisinfra.Client
	tracing     *telemetry.TracerProvider
	maintenance *usecase.MaintenanceService
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := security.ConfigureBcryptCost(cfg.Bcrypt.Cost); err != nil {
		return nil, fmt.Errorf("configure bcrypt: %w", err)
	}

	var tracing *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracing, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	var redisClient *redisinfra.Client
	var rateLimitStore port.RateLimitStore
	switch cfg.RateLimit.Store {
	case "redis":
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		rateLimitStore = redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: cfg.Redis.RateLimitPrefix,
			TTL:       cfg.RateLimit.WindowDuration * 2,
		})
		log.Info("redis rate limit store initialized")
	default:
		rateLimitStore = memoryrepo.NewRateLimitRepository()
		log.Info("in-memory rate limit store initialized")
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(kafkaProducer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)
	metrics := telemetry.NewMetrics()

	limiter := usecase.NewResetRateLimiter(rateLimitStore, cfg.RateLimit, log)
	history := usecase.NewPasswordHistoryLedger(repos.Users, cfg.Reset.HistoryDepth, log)
	sessionService := usecase.NewSessionService(repos.Sessions, log)
	mailer := notification.NewEventMailer(eventPublisher, log)

	resetService := usecase.NewPasswordResetService(
		repos.Users,
		repos.Tokens,
		limiter,
		history,
		sessionService,
		mailer,
		eventPublisher,
		security.DefaultPasswordValidator(),
		log,
	).WithTTL(cfg.Reset.TokenTTL).WithMetrics(metrics)

	maintenanceService := usecase.NewMaintenanceService(repos.Tokens, metrics, log)

	ipLimiter := middleware.NewIPRateLimiter(rateLimitStore, cfg.RateLimit.InitiateIPBurst, time.Minute, log)

	var cache routes.CacheChecker
	if redisClient != nil {
		cache = redisClient
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: ipLimiter,
		Database:    pool,
		Cache:       cache,
		Services: routes.ServiceSet{
			PasswordReset: resetService,
			Maintenance:   maintenanceService,
		},
	})

	return &Application{
		cfg:         cfg,
		engine:      engine,
		logger:      log,
		pool:        pool,
		redis:       redisClient,
		tracing:     tracing,
		maintenance: maintenanceService,
	}, nil
}

// Run starts the HTTP server and the maintenance loop, blocking until the
// context is canceled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.tracing != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = a.tracing.Shutdown(shutdownCtx)
		}
	}()

	go a.maintenance.Run(ctx, a.cfg.Reset.CleanupInterval)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting credential API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
