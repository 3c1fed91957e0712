package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/streeteats-connect/internal/cron"
	"github.com/angelmondragon/streeteats-connect/internal/notifications"
	"github.com/angelmondragon/streeteats-connect/internal/sessioncart"
	"github.com/angelmondragon/streeteats-connect/pkg/config"
	"github.com/angelmondragon/streeteats-connect/pkg/db"
	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
	"github.com/angelmondragon/streeteats-connect/pkg/migrate"
	"github.com/angelmondragon/streeteats-connect/pkg/redis"
)

const lockKeyName = "cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single cleanup cycle and exit")
	only := flag.String("jobs", "", "comma separated job names to run with -once (default all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.LoadFor(config.ServiceKindCron)
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	var lock cron.Lock = &cron.LocalLock{}
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
		redisLock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
		lock = redisLock
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	inbox, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}
	carts, err := sessioncart.NewService(sessioncart.NewRepository(dbClient.DB()), dbClient, inbox, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationJob, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:    logg,
		Inbox:     inbox,
		Metrics:   metricsCollector,
		Retention: cfg.Cron.NotificationRetention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification cleanup job", err)
		os.Exit(1)
	}
	cartJob, err := cron.NewCartCleanupJob(cron.CartCleanupJobParams{
		Logger:    logg,
		Carts:     carts,
		Metrics:   metricsCollector,
		Retention: cfg.Cron.CartRetention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart cleanup job", err)
		os.Exit(1)
	}

	registry, err := cron.NewRegistry(notificationJob, cartJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}
	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    metricsCollector,
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"once":        *once,
	})

	if *once {
		report, err := service.RunOnce(ctx, jobNames(*only)...)
		if err != nil {
			logg.Error(ctx, "cron cycle failed", err)
			os.Exit(1)
		}
		for _, res := range report.Results {
			status := "ok"
			if res.Err != nil {
				status = res.Err.Error()
			}
			fmt.Printf("%-28s %8s  %s\n", res.Job, res.Duration.Round(time.Millisecond), status)
		}
		if report.Failed() > 0 {
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s:%s", lockKeyName, env)
}

func jobNames(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
