package main

import (
	"context"
	"dojo-service/internal/config"
	"dojo-service/internal/http-server/router"
	"dojo-service/internal/lock"
	svc "dojo-service/internal/service"
	"dojo-service/internal/storage/memory"
	"dojo-service/internal/storage/postgres"
	slogpretty "dojo-service/pkg/handlers/slogPretty"
	"dojo-service/pkg/sl"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type storage interface {
	svc.Store
	io.Closer
}

type locker interface {
	lock.Locker
	io.Closer
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting dojo attendance API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	store, err := setupStorage(cfg)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	locks, err := setupLocker(log, cfg)
	if err != nil {
		log.Error("Failed to init redis lock", sl.Err(err))
		os.Exit(1)
	}

	service := svc.NewService(store, locks, svc.Config{
		MaxPageSize:     cfg.Attendance.MaxPageSize,
		FinalizeLockTTL: cfg.Attendance.FinalizeLockTTL,
	})

	serv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router.New(log, service, []byte(cfg.Auth.JWTSecret)),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.HTTPServer.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if err := store.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := locks.Close(); err != nil {
		log.Error("Failed to close locker", sl.Err(err))
	} else {
		log.Info("Locker closed")
	}

	log.Info("Shutdown finished, server stopped")
}

func setupStorage(cfg *config.Config) (storage, error) {
	if cfg.Storage.Driver == "memory" {
		return memory.New(), nil
	}

	store, err := postgres.New(cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Migrate {
		if err := store.Migrate(context.Background()); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	return store, nil
}

// setupLocker falls back to an in-process lock when no redis address is set,
// which is only safe for a single instance.
func setupLocker(log *slog.Logger, cfg *config.Config) (locker, error) {
	if cfg.RedisAddr == "" {
		log.Warn("redis_addr is empty, using in-process finalize lock")
		return lock.NewLocalLock(), nil
	}

	return lock.NewRedisLock(cfg.RedisAddr)
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
