package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"liveintent/internal/auth"
	"liveintent/internal/config"
	"liveintent/internal/connection"
	"liveintent/internal/console"
	transporthttp "liveintent/internal/http"
	"liveintent/internal/platform/database"
	"liveintent/internal/platform/logging"
	"liveintent/internal/platform/migrate"
	"liveintent/internal/remote"
	"liveintent/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	store, cleanup, err := buildSessionStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	var (
		hosted connection.Backend
		tiktok transporthttp.TikTokAuthenticator
	)
	if cfg.HostedBackendEnabled() {
		client := remote.NewClient(
			cfg.EdgeFunctionsURL,
			nil,
			remote.WithTimeout(15*time.Second),
			remote.WithAnonKey(cfg.EdgeFunctionsAnonKey),
		)
		verifier := remote.NewSessionVerifier(ctx, cfg.AuthIssuer, cfg.AuthJWKSURL)
		hosted = connection.NewRemoteBackend(client, verifier)
		if cfg.TikTokEnabled() {
			tiktok = auth.NewTikTokAuthenticator(cfg.TikTokClientKey, cfg.TikTokRedirectURL, client)
		}
	}

	strategy := connection.NewStrategy(cfg.DevBypassActive(), hosted, cfg.SimulatedLatency)
	if cfg.DevBypassActive() {
		logger.Warn("development bypass enabled; every new session is signed in as the synthetic user")
	}

	registry := console.NewRegistry(store, strategy, cfg.DevBypassActive(), logger)
	go sweep(ctx, registry, cfg.SweepInterval, cfg.SessionTTL, logger)

	router := transporthttp.NewRouter(cfg, registry, tiktok, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("liveintent API listening",
			"addr", srv.Addr,
			"store", cfg.DataStore,
			"simulated", strategy.Simulated(),
			"tiktok_login", tiktok != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildSessionStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (session.Store, func(), error) {
	switch cfg.DataStore {
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			_ = db.Close()
		}
		if err := migrate.Apply(ctx, db, logger); err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("connected to postgres")
		return session.NewPostgresStore(db, cfg.SessionTTL), cleanup, nil

	case "sqlite":
		db, err := database.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			_ = db.Close()
		}
		store, err := session.NewSQLiteStore(ctx, db, cfg.SessionTTL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("using sqlite session store", "path", cfg.SQLitePath)
		return store, cleanup, nil

	default:
		logger.Info("using in-memory session store")
		return session.NewMemoryStore(cfg.SessionTTL), nil, nil
	}
}

func sweep(ctx context.Context, registry *console.Registry, interval, idle time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := registry.Sweep(ctx, idle); err != nil {
				logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}
