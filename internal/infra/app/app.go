package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campuswell/wellness-api/internal/core/domain"
	"github.com/campuswell/wellness-api/internal/core/port"
	"github.com/campuswell/wellness-api/internal/infra/config"
	"github.com/campuswell/wellness-api/internal/infra/database"
	kafkainfra "github.com/campuswell/wellness-api/internal/infra/kafka"
	"github.com/campuswell/wellness-api/internal/infra/logger"
	redisinfra "github.com/campuswell/wellness-api/internal/infra/redis"
	"github.com/campuswell/wellness-api/internal/infra/telemetry"
	memoryrepo "github.com/campuswell/wellness-api/internal/repository/memory"
	postgresrepo "github.com/campuswell/wellness-api/internal/repository/postgres"
	redisrepo "github.com/campuswell/wellness-api/internal/repository/redis"
	"github.com/campuswell/wellness-api/internal/transport/http/handlers"
	"github.com/campuswell/wellness-api/internal/transport/http/middleware"
	"github.com/campuswell/wellness-api/internal/transport/http/routes"
	"github.com/campuswell/wellness-api/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	pool   *pgxpool.Pool
	redis  *redisinfra.Client
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	provider, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

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

	policy := resendPolicy(cfg.Resend)
	limitStore := buildResendLimitStore(cfg, redisClient, policy, log)

	otpStore := redisrepo.NewOTPStore(redisClient.Client(), cfg.Redis.OTPPrefix)

	dispatcher := handlers.NewLoggingNotificationDispatcher(log)

	verificationService := usecase.NewVerificationService(repos.Users, limitStore, otpStore, dispatcher, eventPublisher, log).
		WithSendTimeout(cfg.Resend.SendTimeout).
		WithOTPTTL(cfg.Resend.OTPTTL)

	wellnessService := usecase.NewWellnessService(repos.Moods, repos.Goals, eventPublisher, log)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "campus:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	engine := routes.Register(routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		RateLimiter:   rateLimiter,
		ResendMetrics: provider,
		Database:      pool,
		Cache:         redisClient,
		Services: routes.ServiceSet{
			Verification: verificationService,
			Wellness:     wellnessService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		pool:   pool,
		redis:  redisClient,
	}, nil
}

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

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting wellness API",
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

func resendPolicy(cfg config.ResendSettings) domain.ResendPolicy {
	policy := domain.DefaultResendPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Window > 0 {
		policy.Window = cfg.Window
	}
	if cfg.MinInterval > 0 {
		policy.MinInterval = cfg.MinInterval
	}
	return policy
}

func buildResendLimitStore(cfg *config.AppConfig, redisClient *redisinfra.Client, policy domain.ResendPolicy, log *zap.Logger) port.ResendLimitStore {
	if strings.EqualFold(cfg.Resend.Store, "memory") {
		log.Info("resend limiter using in-memory store")
		return memoryrepo.NewResendLimitStore(policy)
	}

	return redisrepo.NewResendLimitStore(redisClient.Client(), cfg.Redis.ResendPrefix, policy)
}
