// Package main is the entry point of the rehab adherence API.
//
// The binary wires the domain, application and infrastructure layers:
// - Domain: schedules, progress entries and the adherence math
// - Application: command and query handlers
// - Infrastructure: PostgreSQL or in-memory store, Redis cache, tracing
// - Interface: the gin HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rehab-hub/rehab-adherence/config"

	// Application layer
	"github.com/rehab-hub/rehab-adherence/internal/application/command"
	"github.com/rehab-hub/rehab-adherence/internal/application/query"

	// Domain layer
	"github.com/rehab-hub/rehab-adherence/internal/domain/access"
	"github.com/rehab-hub/rehab-adherence/internal/domain/store"
	"github.com/rehab-hub/rehab-adherence/internal/domain/user"

	// Infrastructure layer
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/observability"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/memory"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/postgres"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/redis"
	"github.com/rehab-hub/rehab-adherence/internal/infrastructure/persistence/seed"

	// Interface layer
	httpserver "github.com/rehab-hub/rehab-adherence/internal/interface/http"

	// Packages
	"github.com/rehab-hub/rehab-adherence/pkg/circuitbreaker"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log, err := setupLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting rehab adherence API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("store", string(cfg.App.Store)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. TRACING
	// ─────────────────────────────────────────────────────────────────────────
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.App.Name,
		Environment: string(cfg.App.Environment),
		Version:     cfg.App.Version,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		Headers:     observability.ParseHeaders(cfg.Tracing.Headers),
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("tracer shutdown failed", logger.Err(err))
		}
	}()

	health := httpserver.NewHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		onBreakerChange := func(name string, from, to circuitbreaker.State) {
			log.Warn("redis circuit breaker changed state",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}
		redisCache, err = redis.NewCache(ctx, redis.Config{
			Host:            cfg.Redis.Host,
			Port:            cfg.Redis.Port,
			Password:        cfg.Redis.Password,
			DB:              cfg.Redis.DB,
			PoolSize:        cfg.Redis.PoolSize,
			MinIdleConns:    cfg.Redis.MinIdleConns,
			MaxRetries:      redis.DefaultConfig().MaxRetries,
			DialTimeout:     cfg.Redis.DialTimeout,
			ReadTimeout:     cfg.Redis.ReadTimeout,
			WriteTimeout:    cfg.Redis.WriteTimeout,
			OnBreakerChange: onBreakerChange,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, caching and rate limiting disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer func() { _ = redisCache.Close() }()
			health.AddCheck("redis", httpserver.PingCheck(redisCache))
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. STORE
	// ─────────────────────────────────────────────────────────────────────────
	var st store.Store
	switch cfg.App.Store {
	case config.StoreMemory:
		mem := memory.New()
		if err := seed.LoadMemory(ctx, mem, seed.Demo(time.Now().UTC())); err != nil {
			return fmt.Errorf("failed to seed memory store: %w", err)
		}
		st = mem
		log.Warn("using in-memory store with demo data; nothing survives a restart")

	default:
		log.Info("connecting to database...")
		dbConn, err := postgres.Connect(ctx, cfg.Database.URL, postgres.PoolOptions{
			MaxConns:          int32(cfg.Database.MaxConns),
			MinConns:          int32(cfg.Database.MinConns),
			MaxConnLifetime:   cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime:   cfg.Database.ConnMaxIdleTime,
			HealthCheckPeriod: postgres.DefaultPoolOptions().HealthCheckPeriod,
			ConnectTimeout:    postgres.DefaultPoolOptions().ConnectTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()
		log.Info("database connection established")

		if cfg.Database.MigrateOnStart {
			if err := migrate(ctx, dbConn, log); err != nil {
				return err
			}
		}

		var users user.Cache
		if redisCache != nil {
			users = redis.NewUserCache(redisCache, cfg.Redis.UserCacheTTL)
		}
		st = postgres.NewStore(dbConn, users, log)
		health.AddCheck("postgres", httpserver.PingCheck(dbConn))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	clock := timeutil.SystemClock

	purge := command.NewPurgeStaleHandler(st, clock, cfg.Engine.StaleRetention, log)
	limits := query.Limits{
		PageSize:        cfg.Engine.PageSize,
		MaxPageSize:     cfg.Engine.MaxPageSize,
		AdminPageSize:   cfg.Engine.AdminPageSize,
		TopVideos:       cfg.Engine.TopVideos,
		EngagementRows:  cfg.Engine.EngagementRows,
		ActiveUsersDays: cfg.Engine.ActiveUsersDays,
		EngagementDays:  cfg.Engine.EngagementDays,
		MaxWindowDays:   cfg.Engine.MaxWindowDays,
	}

	auth, err := httpserver.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, clock)
	if err != nil {
		return fmt.Errorf("failed to build authenticator: %w", err)
	}
	if cfg.App.Store == config.StoreMemory && cfg.IsDevelopment() {
		logDemoTokens(auth, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.TrustedProxies = cfg.HTTP.TrustedProxies
	httpConfig.Tracing = cfg.Tracing.Enabled
	httpConfig.ServiceName = cfg.App.Name

	deps := httpserver.Dependencies{
		CreateSchedule:   command.NewCreateScheduleHandler(st, clock, log),
		CompleteSchedule: command.NewCompleteScheduleHandler(st, clock, log),
		DeleteSchedule:   command.NewDeleteScheduleHandler(st, log),
		RecordProgress:   command.NewRecordProgressHandler(st, clock, log),
		AmendProgress:    command.NewAmendProgressHandler(st, log),
		ListSchedules:    query.NewListSchedulesHandler(st, purge),
		GetSchedule:      query.NewGetScheduleHandler(st),
		ListProgress:     query.NewListProgressHandler(st, limits),
		GetSummary:       query.NewGetSummaryHandler(st, clock),
		Analytics:        query.NewAnalyticsHandler(st, clock, limits),
		Auth:             auth,
		Health:           health,
		Logger:           log,
	}
	if redisCache != nil && cfg.HTTP.RateLimitPerMinute > 0 {
		deps.RateLimiter = redis.NewRateLimiter(redisCache, cfg.HTTP.RateLimitPerMinute, time.Minute)
	}

	server := httpserver.NewServer(httpConfig, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. RUN AND GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("rehab adherence API is running", logger.String("address", server.Address()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error("http server error", logger.Err(err))
			return err
		}
		return errors.New("http server stopped unexpectedly")
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func setupLogger(cfg *config.Config) (*logger.Logger, error) {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = cfg.Observability.LogFormat
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, err
	}
	return log.With(logger.String("service", cfg.App.Name)), nil
}

func migrate(ctx context.Context, conn *postgres.Connection, log *logger.Logger) error {
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
		return nil
	}
	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
	return nil
}

// logDemoTokens prints one bearer token per demo account so the in-memory
// API can be explored with curl.
func logDemoTokens(auth *httpserver.Authenticator, log *logger.Logger) {
	for _, u := range seed.Demo(time.Now()).Users {
		token, err := auth.Issue(access.Caller{ID: u.ID, Role: u.Role})
		if err != nil {
			log.Warn("failed to issue demo token", logger.UserID(u.ID), logger.Err(err))
			continue
		}
		log.Info("demo token", logger.String("email", u.Email), logger.String("role", string(u.Role)), logger.String("token", token))
	}
}
