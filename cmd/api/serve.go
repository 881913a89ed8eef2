package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/userbase/userbase/internal/cache"
	"github.com/userbase/userbase/internal/handler"
	"github.com/userbase/userbase/internal/metrics"
	"github.com/userbase/userbase/internal/middleware"
	"github.com/userbase/userbase/internal/repository"
	"github.com/userbase/userbase/internal/server"
	"github.com/userbase/userbase/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), a, migrateFirst)
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	return cmd
}

// runServe wires the pool, optional cache, service and router, then serves
// until SIGINT/SIGTERM.
func runServe(ctx context.Context, a *app, migrateFirst bool) error {
	cfg, logger := a.cfg, a.logger

	repo, err := openRepository(ctx, a)
	if err != nil {
		return err
	}

	if migrateFirst || cfg.MigrateOnStart {
		if _, err := applyMigrations(ctx, repo, logger); err != nil {
			repo.Close()
			return err
		}
	}

	recorder := metrics.NewInMemory()
	var opts []service.Option

	// Stays a nil interface when Redis is off so /readyz reports "not configured".
	var cacheCheck handler.HealthChecker
	var cacheClient *cache.Cache
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			repo.Close()
			return fmt.Errorf("connect to redis: %s", sanitizeError(err, cfg.RedisURL))
		}
		logger.Info("connected to Redis", slog.Duration("users_cache_ttl", cfg.UsersCacheTTL))
		opts = append(opts, service.WithCache(cacheClient, cfg.UsersCacheTTL))
		cacheCheck = cacheClient
	}

	userService := service.NewUserService(repo, recorder, logger, opts...)

	router := server.NewRouter(server.RouterDeps{
		Users:    userService,
		DB:       repo,
		Cache:    cacheCheck,
		Metrics:  recorder,
		Recorder: recorder,
		Logger:   logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.GetCORSAllowedOrigins(),
			AllowedMethods: middleware.DefaultCORSConfig().AllowedMethods,
			AllowedHeaders: middleware.DefaultCORSConfig().AllowedHeaders,
			ExposedHeaders: middleware.DefaultCORSConfig().ExposedHeaders,
			MaxAge:         middleware.DefaultCORSConfig().MaxAge,
		},
		Security:     middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		MaxBodyBytes: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Options{
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Registered first, closed last.
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		slog.Int("port", cfg.Port),
		slog.Bool("cache_enabled", cfg.CacheEnabled()),
	)

	return srv.Run(ctx)
}

// openRepository connects the shared pool, logging a redacted URL on failure.
func openRepository(ctx context.Context, a *app) (*repository.Repository, error) {
	cfg, logger := a.cfg, a.logger

	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		ConnectTimeout:  cfg.DBConnectTimeout,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, fmt.Errorf("connect to database: %s", sanitizeError(err, cfg.DatabaseURL))
	}

	logger.Info("connected to database",
		slog.String("database_url", redactURL(cfg.DatabaseURL)),
		slog.Int("max_conns", int(cfg.DBMaxConns)),
	)
	return repo, nil
}
