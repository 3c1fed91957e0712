package main

import (
	"bufio"
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/streeteats-connect/internal/cart"
	"github.com/angelmondragon/streeteats-connect/internal/localstore"
	"github.com/angelmondragon/streeteats-connect/internal/orders"
	"github.com/angelmondragon/streeteats-connect/internal/popup"
	"github.com/angelmondragon/streeteats-connect/internal/storefront"
	"github.com/angelmondragon/streeteats-connect/internal/suppliers"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/maps"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"github.com/angelmondragon/streeteats-connect/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront", Format: "console", Output: os.Stderr})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.LoadFor(config.ServiceKindStorefront)
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       cfg.App.LogLevel,
		Format:      "console",
		WarnStack:   cfg.App.LogWarnStack,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := localStore(ctx, cfg, logg)

	popups := popup.NewManager(popup.NewTerminal(os.Stdout))
	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderStoreMetrics(registry)
	searchMetrics := metrics.NewSearchMetrics(registry)

	orderDB, err := orders.Open(ctx, orders.SQLiteOpener(cfg.Storefront.LocalDBPath), store, logg, orders.WithMetrics(orderMetrics))
	if err != nil {
		logg.Error(ctx, "failed to open order store", err)
		os.Exit(1)
	}

	var savedToken string
	if _, err := localstore.GetJSON(ctx, store, localstore.KeySession, &savedToken); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "saved session unreadable")
	}
	client, err := storefront.New(cfg.Storefront.BaseURL, cfg.Storefront.Timeout,
		storefront.WithToken(savedToken),
		storefront.WithTokenSink(func(token string) {
			if err := localstore.SetJSON(context.Background(), store, localstore.KeySession, token); err != nil {
				logg.Warn(logg.WithField(context.Background(), "error", err.Error()), "saving session token failed")
			}
		}),
	)
	if err != nil {
		logg.Error(ctx, "failed to create storefront client", err)
		os.Exit(1)
	}

	seed := cfg.Storefront.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	supplierDeps := suppliers.Deps{
		Products: orderDB,
		Notifier: popups,
		Metrics:  searchMetrics,
		Rand:     rand.New(rand.NewSource(seed)),
		Logger:   logg,
	}
	if cfg.GoogleMaps.APIKey != "" {
		places, err := maps.NewClient(cfg.GoogleMaps.APIKey,
			maps.WithHTTPClient(&http.Client{Timeout: cfg.GoogleMaps.Timeout}),
			maps.WithBreaker(cfg.GoogleMaps.BreakerMaxFailures, cfg.GoogleMaps.BreakerOpenTimeout),
			maps.WithStateChange(func(_, to gobreaker.State) { searchMetrics.SetBreakerState(float64(to)) }),
		)
		if err != nil {
			logg.Error(ctx, "failed to create places client", err)
			os.Exit(1)
		}
		supplierDeps.Provider = places
	}
	search, err := suppliers.NewService(supplierDeps)
	if err != nil {
		logg.Error(ctx, "failed to create supplier search", err)
		os.Exit(1)
	}

	vendor := orders.VendorInfo{
		Name:    cfg.Storefront.VendorName,
		Phone:   cfg.Storefront.VendorPhone,
		Address: cfg.Storefront.VendorAddress,
	}
	vendorCart, err := cart.NewService(cart.Deps{
		Store:    store,
		Orders:   orderDB,
		Remote:   client,
		Notifier: popups,
		Vendor:   vendor,
		Logger:   logg,
		Metrics:  orderMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart", err)
		os.Exit(1)
	}
	if err := vendorCart.Load(ctx); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "saved cart unreadable, starting empty")
	}
	if _, err := vendorCart.RefreshCount(ctx); err != nil {
		popups.Warning("", "Storefront server unreachable; cart count may be stale.")
	}

	sh := &shell{
		in:     bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
		popups: popups,
		search: search,
		cart:   vendorCart,
		orders: orderDB,
		server: client,
		vendor: vendor,
		logg:   logg,
	}
	if err := sh.run(ctx); err != nil {
		logg.Error(ctx, "storefront shell stopped", err)
		os.Exit(1)
	}
}

// localStore prefers redis so several terminals can share one vendor
// session; without it the store lives in memory.
func localStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) localstore.Store {
	if !cfg.Redis.Enabled() {
		return localstore.NewMemory()
	}
	client, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis unavailable, keeping local data in memory")
		return localstore.NewMemory()
	}
	store, err := localstore.NewRedis(client, cfg.Storefront.Namespace, 0)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "redis local store rejected, keeping local data in memory")
		return localstore.NewMemory()
	}
	return store
}
