// metrics содержит prometheus-коллекторы gallery-service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pribylovaa/reddit-gallery/internal/models"
)

const namespace = "gallery"

// Исходы загрузки страницы (метка outcome).
const (
	OutcomeOK        = "ok"
	OutcomeEmpty     = "upstream_empty"
	OutcomeUnusable  = "upstream_unusable"
	OutcomeTransport = "transport"
)

// Metrics — набор коллекторов. Нулевой указатель безопасен: все методы no-op.
type Metrics struct {
	pages    *prometheus.CounterVec
	items    *prometheus.CounterVec
	fetch    prometheus.Histogram
	sessions prometheus.Gauge
}

// New создаёт коллекторы и регистрирует их в reg.
// reg == nil — используется prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Listing pages fetched, by outcome.",
		}, []string{"outcome"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Normalized media items appended to feeds, by kind.",
		}, []string{"kind"}),
		fetch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_fetch_seconds",
			Help:      "Latency of listing page fetch and parse.",
			Buckets:   prometheus.DefBuckets,
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Viewer sessions currently open.",
		}),
	}

	reg.MustRegister(m.pages, m.items, m.fetch, m.sessions)

	return m
}

// ObservePage учитывает одну загруженную страницу.
func (m *Metrics) ObservePage(outcome string, items []models.MediaItem, dur time.Duration) {
	if m == nil {
		return
	}

	m.pages.WithLabelValues(outcome).Inc()
	m.fetch.Observe(dur.Seconds())
	for _, it := range items {
		m.items.WithLabelValues(string(it.Kind)).Inc()
	}
}

// SessionOpened увеличивает число активных сессий.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}

	m.sessions.Inc()
}

// SessionClosed уменьшает число активных сессий.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}

	m.sessions.Dec()
}
