package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/streeteats-connect/api/routes"
	"github.com/angelmondragon/streeteats-connect/internal/notifications"
	"github.com/angelmondragon/streeteats-connect/internal/sessioncart"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/maps"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"github.com/angelmondragon/streeteats-connect/pkg/migrate"
	"github.com/angelmondragon/streeteats-connect/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.LoadFor(config.ServiceKindAPI)
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	deps := routes.Deps{Config: cfg, Logger: logg, DB: dbClient}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		deps.Cache = redisClient
		deps.Idempotency = redisClient
		deps.Limiter = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured; idempotency and rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Gatherer = registry
	searchMetrics := metrics.NewSearchMetrics(registry)

	inbox, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	deps.Notifications = inbox

	cart, err := sessioncart.NewService(sessioncart.NewRepository(dbClient.DB()), dbClient, inbox, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	deps.Cart = cart

	supplierDeps := suppliers.Deps{
		Metrics: searchMetrics,
		Rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
		Logger:  logg,
	}
	if cfg.GoogleMaps.APIKey != "" {
		places, err := maps.NewClient(cfg.GoogleMaps.APIKey,
			maps.WithHTTPClient(&http.Client{Timeout: cfg.GoogleMaps.Timeout}),
			maps.WithBreaker(cfg.GoogleMaps.BreakerMaxFailures, cfg.GoogleMaps.BreakerOpenTimeout),
			maps.WithStateChange(func(_, to gobreaker.State) { searchMetrics.SetBreakerState(float64(to)) }),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create places client", err)
			os.Exit(1)
		}
		supplierDeps.Provider = places
	} else {
		logg.Warn(context.Background(), "google maps key missing; supplier search serves demo data")
	}
	search, err := suppliers.NewService(supplierDeps)
	if err != nil {
		logg.Error(context.Background(), "failed to create supplier service", err)
		os.Exit(1)
	}
	deps.Suppliers = search

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
