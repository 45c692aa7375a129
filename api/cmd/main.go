package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/infrastructure/memory"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/infrastructure/postgres"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/infrastructure/redis"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/infrastructure/stats"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/transport/rest"
)

// store is satisfied by both the postgres repository and the memory store.
type store interface {
	event.EventRepo
	event.CategoryLookup
	event.UserLookup
	event.LocationStore
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		_ = os.Setenv("LOG_FORMAT", cfg.LogFormat)
	}
	logger.Init()
	log := logger.Logger.With().
		Str("service", "participation-service").
		Str("env", cfg.AppEnv).
		Logger()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := map[string]rest.Pinger{}

	// ---- Store ----
	var repo store
	if cfg.DBDSN == "" {
		log.Warn().Msg("no database configured, using in-memory store")
		repo = memory.New()
	} else {
		pool, err := pgxpool.New(rootCtx, cfg.DBDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres pool create failed")
		}
		defer pool.Close()

		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		log.Info().Msg("postgres connected")

		pg := postgres.New(pool)
		health["postgres"] = pg
		repo = pg

		if cfg.OutboxEnabled && cfg.RabbitURL != "" {
			pg.StartOutboxRelay(rootCtx, postgres.RelayConfig{
				RabbitURL: cfg.RabbitURL,
				Exchange:  cfg.RabbitExchange,
			})
			log.Info().Str("exchange", cfg.RabbitExchange).Msg("outbox relay started")
		}
	}

	deps := event.Deps{
		Repo:       repo,
		Categories: repo,
		Users:      repo,
		Locations:  repo,
		Clock:      systemClock{},
		AppName:    cfg.AppName,
		ViewsTTL:   cfg.CacheViewsTTL,
	}

	// ---- Redis (optional view cache) ----
	if cfg.RedisURL != "" {
		cache, err := redis.New(cfg.RedisURL, "participation:")
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, view cache disabled")
		} else {
			defer cache.Close()
			health["redis"] = cache
			deps.Cache = cache
			log.Info().Msg("redis connected")
		}
	}

	// ---- Stats collector (optional) ----
	if cfg.StatsURL != "" {
		deps.Stats = stats.NewClient(stats.Config{
			BaseURL:  cfg.StatsURL,
			Timeout:  cfg.StatsTimeout,
			Failures: cfg.StatsBreakerFailures,
			Reset:    cfg.StatsBreakerReset,
		})
	} else {
		log.Warn().Msg("STATS_URL not set, views are reported as 0")
	}

	svc := event.New(deps)

	httpHandler := rest.NewRouter(rest.RouterDeps{
		Handler:          rest.NewHandler(svc),
		Health:           rest.NewHealthHandler(health),
		Verifier:         security.NewHS256Verifier(cfg.JWTSecret, cfg.JWTIssuer),
		RateLimitEnabled: cfg.RLEnabled,
		RateLimit:        cfg.RLIPLimit,
		RateWindow:       cfg.RLIPWindow,
	})

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
