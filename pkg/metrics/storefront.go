package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "streeteats"

// SearchMetrics tracks supplier searches and the places breaker.
type SearchMetrics struct {
	searches *prometheus.CounterVec
	duration prometheus.Histogram
	breaker  prometheus.Gauge
}

func NewSearchMetrics(reg prometheus.Registerer) *SearchMetrics {
	if reg == nil {
		return &SearchMetrics{}
	}
	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "supplier_searches_total",
		Help:      "Supplier searches by result source and final state.",
	}, []string{"source", "state"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "supplier_search_duration_seconds",
		Help:      "End-to-end supplier search latency.",
		Buckets:   prometheus.DefBuckets,
	})
	breaker := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "places_breaker_state",
		Help:      "Places breaker state (0=closed, 1=half-open, 2=open).",
	})
	reg.MustRegister(searches, duration, breaker)
	return &SearchMetrics{searches: searches, duration: duration, breaker: breaker}
}

func (m *SearchMetrics) ObserveSearch(source, state string, took time.Duration) {
	if m == nil || m.searches == nil {
		return
	}
	m.searches.WithLabelValues(normalizeLabel(source), normalizeLabel(state)).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *SearchMetrics) SetBreakerState(state float64) {
	if m == nil || m.breaker == nil {
		return
	}
	m.breaker.Set(state)
}

// OrderStoreMetrics tracks the local order store and checkouts.
type OrderStoreMetrics struct {
	mode      *prometheus.GaugeVec
	saved     *prometheus.CounterVec
	checkouts *prometheus.CounterVec
}

func NewOrderStoreMetrics(reg prometheus.Registerer) *OrderStoreMetrics {
	if reg == nil {
		return &OrderStoreMetrics{}
	}
	mode := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "order_store_mode",
		Help:      "1 for the active order store mode (primary or fallback).",
	}, []string{"mode"})
	saved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_saved_total",
		Help:      "Orders persisted by store mode.",
	}, []string{"mode"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(mode, saved, checkouts)
	return &OrderStoreMetrics{mode: mode, saved: saved, checkouts: checkouts}
}

// SetMode flips the mode gauge so exactly one label reads 1.
func (m *OrderStoreMetrics) SetMode(active string, all ...string) {
	if m == nil || m.mode == nil {
		return
	}
	for _, mode := range all {
		m.mode.WithLabelValues(mode).Set(0)
	}
	m.mode.WithLabelValues(normalizeLabel(active)).Set(1)
}

func (m *OrderStoreMetrics) IncSaved(mode string) {
	if m == nil || m.saved == nil {
		return
	}
	m.saved.WithLabelValues(normalizeLabel(mode)).Inc()
}

func (m *OrderStoreMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}
