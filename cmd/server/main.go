package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/capround/cutoffs/internal/config"
	"github.com/capround/cutoffs/internal/core"
	"github.com/capround/cutoffs/internal/logging"
	"github.com/capround/cutoffs/internal/store/memory"
	"github.com/capround/cutoffs/internal/store/postgres"
	"github.com/capround/cutoffs/internal/store/redisdoc"
	"github.com/capround/cutoffs/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_backend", cfg.Store.Backend,
		"save_debounce", cfg.Session.SaveDebounce,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	gateway, cleanup, err := openGateway(ctx, cfg)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	service := core.NewService(gateway, cfg.Session.SaveDebounce)
	server := web.NewServer(service, cfg)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go service.StartJanitor(jobCtx, core.JanitorConfig{
		IdleTTL:       cfg.Session.IdleTTL,
		CheckInterval: cfg.Session.SweepInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Flush every cached session before the process exits; a pending
		// debounce timer would otherwise lose the last burst of edits.
		if err := service.Close(shutdownCtx); err != nil {
			slog.Warn("final session flush failed", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}

// openGateway builds the persistence gateway selected by STORE_BACKEND and
// returns it with a cleanup function for its underlying connections.
func openGateway(ctx context.Context, cfg *config.Config) (core.Gateway, func(), error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case config.BackendPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		poolConfig.MaxConns = int32(cfg.Store.MaxConns)
		poolConfig.MinConns = int32(cfg.Store.MinConns)
		poolConfig.MaxConnLifetime = cfg.Store.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Store.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		if u, err := url.Parse(cfg.Store.DatabaseURL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		}

		store, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, err
		}
		slog.Info("connected to redis", "addr", cfg.Store.RedisAddr, "db", cfg.Store.RedisDB)
		return redisdoc.New(client, cfg.Store.RedisTTL), func() { client.Close() }, nil

	case config.BackendMemory:
		slog.Warn("using in-memory store, sessions are lost on restart")
		return memory.New(), func() {}, nil

	default:
		// Validate already rejected anything else.
		return memory.New(), func() {}, nil
	}
}
