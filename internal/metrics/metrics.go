package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors shared by the store, the write pool and the
// live streams. Collectors are registered on a caller-supplied registerer so
// tests can use an isolated registry.
type Metrics struct {
	Writes        *prometheus.CounterVec
	WriteErrors   *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	StreamReloads *prometheus.CounterVec
	ActiveStreams prometheus.Gauge
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozhat", Name: "writes_total", Help: "Committed writes by operation",
		}, []string{"op"}),
		WriteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozhat", Name: "write_errors_total", Help: "Failed writes by operation",
		}, []string{"op"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vozhat", Name: "write_duration_seconds", Help: "Write job duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		StreamReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vozhat", Name: "stream_reloads_total", Help: "Observable query reloads by table",
		}, []string{"table"}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vozhat", Name: "active_streams", Help: "Open observable queries",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Writes, m.WriteErrors, m.JobDuration, m.StreamReloads, m.ActiveStreams)
	}
	return m
}

// ObserveJob records one finished write job.
func (m *Metrics) ObserveJob(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.WriteErrors.WithLabelValues(op).Inc()
		return
	}
	m.Writes.WithLabelValues(op).Inc()
}

// StreamOpened counts a live stream
func (m *Metrics) StreamOpened() {
	if m != nil {
		m.ActiveStreams.Inc()
	}
}

// StreamClosed uncounts a live stream
func (m *Metrics) StreamClosed() {
	if m != nil {
		m.ActiveStreams.Dec()
	}
}

// Reloaded counts a stream reload per changed table
func (m *Metrics) Reloaded(tables []string) {
	if m == nil {
		return
	}
	for _, t := range tables {
		m.StreamReloads.WithLabelValues(t).Inc()
	}
}
