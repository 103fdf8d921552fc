// Package metrics provides Prometheus metrics for the sync and scoring runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prospectpulse"

// Manager holds the Prometheus instruments the run loops report into.
type Manager struct {
	contactsProcessed prometheus.Counter
	contactsCreated   prometheus.Counter
	contactsMerged    prometheus.Counter
	prospectsScored   prometheus.Counter
	rateLimitRetries  prometheus.Counter
	itemFailures      *prometheus.CounterVec
	runDuration       prometheus.Histogram
	handler           http.Handler
}

// New registers all instruments against the given registerer. Passing nil uses
// the default registry.
func New(reg prometheus.Registerer) *Manager {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	handler := promhttp.Handler()
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	return &Manager{
		handler: handler,
		contactsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_processed_total",
			Help:      "Raw contacts pushed through resolve+merge.",
		}),
		contactsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_created_total",
			Help:      "Contacts created on first sighting.",
		}),
		contactsMerged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_merged_total",
			Help:      "Sightings folded into existing contacts.",
		}),
		prospectsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prospects_scored_total",
			Help:      "Prospects whose connection score was recomputed.",
		}),
		rateLimitRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_retries_total",
			Help:      "Item retries triggered by provider rate limiting.",
		}),
		itemFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_failures_total",
			Help:      "Per-item failures by error class.",
		}, []string{"class"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of complete sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}
}

// Handler returns the scrape endpoint for the registered instruments.
func (m *Manager) Handler() http.Handler {
	if m == nil || m.handler == nil {
		return promhttp.Handler()
	}
	return m.handler
}

// ContactProcessed records one raw contact attempt.
func (m *Manager) ContactProcessed() {
	if m != nil {
		m.contactsProcessed.Inc()
	}
}

// ContactCreated records a first-sighting insert.
func (m *Manager) ContactCreated() {
	if m != nil {
		m.contactsCreated.Inc()
	}
}

// ContactMerged records a fold into an existing contact.
func (m *Manager) ContactMerged() {
	if m != nil {
		m.contactsMerged.Inc()
	}
}

// ProspectScored records one recomputed prospect score.
func (m *Manager) ProspectScored() {
	if m != nil {
		m.prospectsScored.Inc()
	}
}

// RateLimitRetry records a backoff-and-retry of the current item.
func (m *Manager) RateLimitRetry() {
	if m != nil {
		m.rateLimitRetries.Inc()
	}
}

// ItemFailure records a per-item failure under the given error class.
func (m *Manager) ItemFailure(class string) {
	if m != nil {
		m.itemFailures.WithLabelValues(class).Inc()
	}
}

// ObserveRun records the wall time of one complete run.
func (m *Manager) ObserveRun(d time.Duration) {
	if m != nil {
		m.runDuration.Observe(d.Seconds())
	}
}
