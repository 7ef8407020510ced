package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "compliance_atlas"

// Metrics exposes audit counters on a private registry. A nil *Metrics and a
// disabled one both accept every call and record nothing.
type Metrics struct {
	accountsAudited  *prometheus.CounterVec
	resourcesAudited *prometheus.CounterVec
	findingActions   *prometheus.CounterVec
	exportFailures   *prometheus.CounterVec
	persistOutcomes  *prometheus.CounterVec
	writeAttempts    prometheus.Histogram
	accountDuration  prometheus.Histogram

	registry *prometheus.Registry
}

func NewMetrics(enabled bool) *Metrics {
	if !enabled {
		return &Metrics{}
	}

	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,

		accountsAudited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "accounts_audited_total",
				Help:      "Account passes by outcome",
			},
			[]string{"outcome"},
		),
		resourcesAudited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resources_audited_total",
				Help:      "Resources evaluated by verdict",
			},
			[]string{"verdict"},
		),
		findingActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "finding_actions_total",
				Help:      "Finding documents submitted by action",
			},
			[]string{"action"},
		),
		exportFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "finding_export_failures_total",
				Help:      "Finding submissions that failed by kind",
			},
			[]string{"kind"},
		),
		persistOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "record_writes_total",
				Help:      "State record writes by outcome",
			},
			[]string{"outcome"},
		),
		writeAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "record_write_attempts",
				Help:      "Write attempts used per state record",
				Buckets:   []float64{1, 2, 3, 5, 10, 15, 21},
			},
		),
		accountDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "account_audit_duration_seconds",
				Help:      "Duration of one account pass in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.accountsAudited,
		m.resourcesAudited,
		m.findingActions,
		m.exportFailures,
		m.persistOutcomes,
		m.writeAttempts,
		m.accountDuration,
	)

	return m
}

func (m *Metrics) enabled() bool {
	return m != nil && m.registry != nil
}

func (m *Metrics) RecordAccount(outcome string, duration time.Duration) {
	if !m.enabled() {
		return
	}
	m.accountsAudited.WithLabelValues(outcome).Inc()
	m.accountDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordVerdict(verdict string) {
	if !m.enabled() {
		return
	}
	m.resourcesAudited.WithLabelValues(verdict).Inc()
}

func (m *Metrics) RecordAction(action string) {
	if !m.enabled() {
		return
	}
	m.findingActions.WithLabelValues(action).Inc()
}

// RecordExportFailure counts a failed submission; kind is "transport" or "rejected".
func (m *Metrics) RecordExportFailure(kind string) {
	if !m.enabled() {
		return
	}
	m.exportFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordWrite(outcome string, attempts int) {
	if !m.enabled() {
		return
	}
	m.persistOutcomes.WithLabelValues(outcome).Inc()
	m.writeAttempts.Observe(float64(attempts))
}

// Registry returns the private registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if !m.enabled() {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
