package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
)

const (
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultCartRetention         = 7 * 24 * time.Hour
)

type notificationPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type cartPurger interface {
	PurgeAbandoned(ctx context.Context, before time.Time) (int64, error)
}

type NotificationCleanupJobParams struct {
	Logger    *logger.Logger
	Inbox     notificationPruner
	Metrics   *metrics.CronJobMetrics
	Retention time.Duration
}

type CartCleanupJobParams struct {
	Logger    *logger.Logger
	Carts     cartPurger
	Metrics   *metrics.CronJobMetrics
	Retention time.Duration
}

// NewNotificationCleanupJob drops notifications older than the retention.
func NewNotificationCleanupJob(p NotificationCleanupJobParams) (Job, error) {
	if p.Inbox == nil {
		return nil, errors.New("notifications service required")
	}
	return newRetentionJob("notification-cleanup", p.Logger, p.Metrics, p.Retention, defaultNotificationRetention, p.Inbox.DeleteOlderThan)
}

// NewCartCleanupJob drops session carts untouched since the retention.
func NewCartCleanupJob(p CartCleanupJobParams) (Job, error) {
	if p.Carts == nil {
		return nil, errors.New("session cart service required")
	}
	return newRetentionJob("abandoned-cart-cleanup", p.Logger, p.Metrics, p.Retention, defaultCartRetention, p.Carts.PurgeAbandoned)
}

type pruneFunc func(ctx context.Context, before time.Time) (int64, error)

// retentionJob deletes rows created (or last touched) before now minus
// retention and records the count.
type retentionJob struct {
	name      string
	logg      *logger.Logger
	metrics   *metrics.CronJobMetrics
	retention time.Duration
	prune     pruneFunc
	now       func() time.Time
}

func newRetentionJob(name string, logg *logger.Logger, m *metrics.CronJobMetrics, retention, fallback time.Duration, prune pruneFunc) (Job, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if retention <= 0 {
		retention = fallback
	}
	return &retentionJob{name: name, logg: logg, metrics: m, retention: retention, prune: prune, now: time.Now}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	before := j.now().UTC().Add(-j.retention)
	deleted, err := j.prune(ctx, before)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.metrics.AddDeleted(j.name, deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"before":         before,
		"retention_days": int(j.retention.Hours() / 24),
		"rows_deleted":   deleted,
	}), "retention cleanup complete")
	return nil
}
