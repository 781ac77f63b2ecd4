package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/swift-payments-portal/internal/config"
	"github.com/josh-kwaku/swift-payments-portal/internal/handler"
	"github.com/josh-kwaku/swift-payments-portal/internal/logging"
	"github.com/josh-kwaku/swift-payments-portal/internal/ratelimit"
	"github.com/josh-kwaku/swift-payments-portal/internal/repository"
	"github.com/josh-kwaku/swift-payments-portal/internal/server"
	"github.com/josh-kwaku/swift-payments-portal/internal/service"
	"github.com/josh-kwaku/swift-payments-portal/internal/service/payment"
	"github.com/josh-kwaku/swift-payments-portal/internal/service/user"
)

const sweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("payments-api", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	applied, err := repository.Migrate(ctx, db, cfg.DatabaseDriver)
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	checks := map[string]handler.Check{"database": db.PingContext}

	globalLimiter, authLimiter, rdb, err := buildLimiters(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	idempotency := repository.NewIdempotencyRepository(db)
	users := user.NewService(repository.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiry)
	payments := payment.NewService(repository.NewPaymentRepository(db))

	go service.NewCacheSweeper(idempotency, logger, sweepInterval).Start(ctx)

	router := server.New(server.Handlers{
		Payments: handler.NewPaymentHandler(payments),
		Auth:     handler.NewAuthHandler(users, !cfg.IsDevelopment()),
		Health:   handler.NewHealthHandler(checks),
	}, server.Options{
		JWTSecret:     cfg.JWTSecret,
		ClientOrigin:  cfg.ClientOrigin,
		IsDevelopment: cfg.IsDevelopment(),
		Logger:        logger,
		GlobalLimiter: globalLimiter,
		AuthLimiter:   authLimiter,
		Idempotency:   idempotency,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "tls", cfg.TLSEnabled(), "driver", cfg.DatabaseDriver)
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		var db *sql.DB
		if db, err = repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, pool); err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connectDB: %w", ctx.Err())
		case <-time.After(time.Second):
		}
	}

	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}

// buildLimiters shares counters through redis when REDIS_URL is set so every
// replica enforces the same window; otherwise counters are per process.
func buildLimiters(ctx context.Context, cfg *config.Config) (global, auth ratelimit.Limiter, rdb *redis.Client, err error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow),
			ratelimit.NewMemoryLimiter(cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow),
			nil, nil
	}

	rdb, err = ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return ratelimit.NewRedisLimiter(rdb, "ratelimit:global", cfg.RateLimitMax, cfg.RateLimitWindow),
		ratelimit.NewRedisLimiter(rdb, "ratelimit:auth", cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow),
		rdb, nil
}
