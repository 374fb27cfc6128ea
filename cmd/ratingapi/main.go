// Package main - точка входа rating API: хранилище рейтинга класса,
// с которым синхронизируется дашборд.
//
// Поднимает PostgreSQL (с миграциями), опциональный Redis-кеш и HTTP сервер
// с endpoint /api/rating.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mathclass/rating-hub/config"
	"github.com/mathclass/rating-hub/internal/application/command"
	"github.com/mathclass/rating-hub/internal/application/query"
	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/internal/infrastructure/messaging"
	"github.com/mathclass/rating-hub/internal/infrastructure/persistence/postgres"
	"github.com/mathclass/rating-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/mathclass/rating-hub/internal/interface/http"
	"github.com/mathclass/rating-hub/internal/interface/http/handlers"
	"github.com/mathclass/rating-hub/pkg/circuitbreaker"
	"github.com/mathclass/rating-hub/pkg/logger"
	"github.com/mathclass/rating-hub/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ratingapi: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Log.Level),
		AddCaller: cfg.IsDevelopment(),
	}).With(logger.String("service", cfg.App.Name))

	log.Info("starting rating API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warn("connection attempt failed",
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", delay),
			logger.Err(err),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	poolCfg := postgres.DefaultPoolConfig()
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	var dbConn *postgres.Connection
	err = retry.StartupRetrier(onRetry).Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL, poolCfg)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. МИГРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		applied, err := postgres.NewMigrator(dbConn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date", logger.Int("applied", applied))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		studentCache     student.Cache
		achievementCache achievement.Cache
		redisCache       *redis.Cache
	)
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.DialTimeout = cfg.Redis.DialTimeout

		err = retry.StartupRetrier(onRetry).Do(ctx, func(ctx context.Context) error {
			var connErr error
			redisCache, connErr = redis.NewCache(ctx, redisCfg)
			return connErr
		})
		if err != nil {
			redisCache = nil
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			}, redis.IsOutage)
			rc := redis.NewRatingCache(redisCache, cfg.Redis.CacheTTL, redis.WithBreaker(breaker))
			studentCache, achievementCache = rc, rc
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		m := eventBus.Metrics().Snapshot()
		log.Info("closing event bus", logger.Int64("published", m.TotalPublished))
		_ = eventBus.Close()
	}()

	_ = eventBus.Subscribe(shared.EventAchievementAwarded, func(e shared.Event) error {
		log.Info("achievement event",
			logger.String("student", e.AggregateID()),
			logger.Any("payload", e.Payload()),
		)
		return nil
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПРИЛОЖЕНИЕ И HTTP
	// ─────────────────────────────────────────────────────────────────────────
	studentRepo := postgres.NewStudentRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.PingCheck(dbConn))
	if redisCache != nil {
		health.AddOptionalCheck("redis", handlers.PingCheck(redisCache))
	}

	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins

	server := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		Students:      query.NewListStudentsHandler(studentRepo, studentCache, log),
		Achievements:  query.NewListAchievementsHandler(achievementRepo, achievementCache, log),
		UpdateScores:  command.NewUpdateScoresHandler(studentRepo, studentCache, eventBus, log),
		HealthChecker: health,
		Logger:        log,
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("rating API stopped")
	return nil
}
