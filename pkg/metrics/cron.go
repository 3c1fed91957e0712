package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// CronJobMetrics records cron worker job runs. The zero value and a nil
// pointer record nothing.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	deleted     *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_job_runs_total",
			Help:      "Cron job runs by outcome.",
		}, []string{"job", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cron_job_duration_seconds",
			Help:      "Cron job run time.",
			Buckets:   []float64{.05, .1, .5, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cron_rows_deleted_total",
			Help:      "Notifications and carts removed by cleanup jobs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cron_job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
		now: time.Now,
	}
	reg.MustRegister(m.runs, m.duration, m.deleted, m.lastSuccess)
	return m
}

func (c *CronJobMetrics) ObserveDuration(job string, d time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(d.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.runs == nil {
		return
	}
	job = normalizeLabel(job)
	c.runs.WithLabelValues(job, outcomeSuccess).Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(c.now().Unix()))
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), outcomeFailure).Inc()
}

func (c *CronJobMetrics) AddDeleted(job string, rows int64) {
	if c == nil || c.deleted == nil || rows <= 0 {
		return
	}
	c.deleted.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
