package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/arklim/taskboard-auth/internal/core/port"
	"github.com/arklim/taskboard-auth/internal/infra/config"
	"github.com/arklim/taskboard-auth/internal/infra/database"
	kafkainfra "github.com/arklim/taskboard-auth/internal/infra/kafka"
	"github.com/arklim/taskboard-auth/internal/infra/logger"
	"github.com/arklim/taskboard-auth/internal/infra/mail"
	"github.com/arklim/taskboard-auth/internal/infra/metrics"
	redisinfra "github.com/arklim/taskboard-auth/internal/infra/redis"
	"github.com/arklim/taskboard-auth/internal/infra/security"
	postgresrepo "github.com/arklim/taskboard-auth/internal/repository/postgres"
	redisrepo "github.com/arklim/taskboard-auth/internal/repository/redis"
	"github.com/arklim/taskboard-auth/internal/transport/http/handlers"
	"github.com/arklim/taskboard-auth/internal/transport/http/middleware"
	"github.com/arklim/taskboard-auth/internal/transport/http/routes"
	"github.com/arklim/taskboard-auth/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (_ *Application, err error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &Application{cfg: cfg, logger: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.Postgres.AutoMigrate {
		if err := database.MigratePool(ctx, a.pool, log); err != nil {
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	repos := postgresrepo.NewRepositories(a.pool)

	hasher, err := security.NewPasswordHasher(security.HasherConfig{
		Algorithm:  cfg.Security.HashAlgorithm,
		BcryptCost: cfg.Security.BcryptCost,
		Argon2: security.Argon2Config{
			Memory:      cfg.Security.Argon2.Memory,
			Iterations:  cfg.Security.Argon2.Iterations,
			Parallelism: cfg.Security.Argon2.Parallelism,
			SaltLength:  cfg.Security.Argon2.SaltLength,
			KeyLength:   cfg.Security.Argon2.KeyLength,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}
	policy := security.NewPasswordPolicy(security.PolicyConfigFor(
		hasher.Algorithm(), cfg.Security.PasswordMinLength, cfg.Security.PasswordMinScore))

	sessions, err := security.NewSessionTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("init session tokens: %w", err)
	}

	var rateLimitStore port.RateLimitStore
	var cache handlers.CacheChecker
	if cfg.Redis.Enabled {
		a.redis, err = redisinfra.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		window := cfg.RateLimit.WindowDuration
		if window <= 0 {
			window = 15 * time.Minute
		}
		rateLimitStore = redisrepo.NewRateLimitRepository(a.redis.Client(), redisrepo.SlidingWindowConfig{
			KeyPrefix: "taskboard:rate-limit",
			TTL:       window * 2,
		})
		cache = a.redis
	} else {
		log.Info("redis disabled, rate limiting is off")
	}

	events := a.eventPublisher()

	credentialMetrics, err := metrics.NewCredentialMetrics(prometheus.DefaultRegisterer, "")
	if err != nil {
		return nil, fmt.Errorf("init credential metrics: %w", err)
	}
	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	resets := usecase.NewResetTokenManager(repos.Accounts, hasher, policy, log).
		WithTTL(cfg.Security.ResetTokenTTL)

	credentials := usecase.NewCredentialService(usecase.CredentialDependencies{
		Accounts:      repos.Accounts,
		Hasher:        hasher,
		Policy:        policy,
		Sessions:      sessions,
		Resets:        resets,
		Notifier:      mail.NewNotifier(cfg.SMTP, log),
		Events:        events,
		Outcomes:      credentialMetrics,
		Logger:        log,
		FrontendURL:   cfg.App.FrontendURL,
		NotifyTimeout: cfg.SMTP.Timeout,
	})

	if cfg.Seed.DemoUser {
		if err := usecase.NewDemoSeeder(repos.Accounts, hasher, log).Seed(ctx); err != nil {
			log.Warn("demo account seeding failed", zap.Error(err))
		}
	}

	// The rate limiter passes everything through when Redis is disabled.
	a.engine = routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Credentials: credentials,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		HTTPMetrics: httpMetrics,
		Database:    a.pool,
		Cache:       cache,
	})

	return a, nil
}

// eventPublisher returns the Kafka publisher, or the logging stub when no brokers
// are configured or the producer cannot be created.
func (a *Application) eventPublisher() port.EventPublisher {
	if len(a.cfg.Kafka.Brokers) == 0 {
		a.logger.Info("kafka brokers not configured, using stub publisher")
		return kafkainfra.NewStubPublisher(a.logger)
	}

	producer, err := kafkainfra.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		a.logger.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
		return kafkainfra.NewStubPublisher(a.logger)
	}
	a.producer = producer
	a.logger.Info("kafka event publisher initialized", zap.Strings("brokers", a.cfg.Kafka.Brokers))
	return kafkainfra.NewEventPublisher(producer, a.cfg.App, a.logger)
}

func (a *Application) Run(ctx context.Context) error {
	defer a.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting taskboard auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.Strings("cors_origins", a.cfg.CORSOrigins()),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func (a *Application) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.logger.Sync()
}
