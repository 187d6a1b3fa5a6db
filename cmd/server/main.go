package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/crm/api"
	dbfs "github.com/garnizeh/crm/db"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/events"
	"github.com/garnizeh/crm/internal/metrics"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/redis/go-redis/v9"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set; login will refuse to issue tokens")
	}

	logger.Info("starting CRM server", slog.String("version", version), slog.String("build_time", buildTime), slog.String("env", cfg.Env))

	ctx := context.Background()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			Release:          "crm@" + version,
			TracesSampleRate: 0.2,
		}); err != nil {
			return err
		}
		// Flush buffered events before the program terminates
		defer sentry.Flush(2 * time.Second)
	}

	// Open database connection
	database, err := db.New(ctx, cfg.Database.Dialect, cfg.Database.DSN(), logger, db.WithQueryLogging(cfg.Database.Logging))
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("error closing DB", slog.Any("err", err))
		}
	}()

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx, database, dbfs.Migrations); err != nil {
			return err
		}
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable; events will be dropped until it recovers", slog.String("addr", cfg.Redis.Addr), slog.Any("err", err))
		}
		cancel()
		publisher = events.NewStreamPublisher(rdb, cfg.Redis.Stream)
	}

	var handler http.Handler = api.SetupRoutes(cfg, version, buildTime, database, publisher, metrics.New())
	if cfg.SentryDSN != "" {
		handler = sentryhttp.New(sentryhttp.Options{}).Handle(handler)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("shutting down server")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}
