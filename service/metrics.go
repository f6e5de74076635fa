package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ludo-technologies/dupscan/domain"
)

const metricsNamespace = "dupscan"

// Metrics exposes Prometheus collectors that report pipeline activity. Each
// instance owns its registry so it can be written as a node_exporter textfile
// at the end of a batch run.
type Metrics struct {
	registry *prometheus.Registry

	stageDuration  *prometheus.HistogramVec
	documents      *prometheus.CounterVec
	candidates     prometheus.Counter
	reportedPairs  prometheus.Counter
	maxBucketSize  prometheus.Gauge
	bandCollisions prometheus.Counter
}

// NewMetrics constructs a Metrics instance with a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration spent in each pipeline stage.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage", "status"},
		),
		documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "documents_total",
				Help:      "Documents processed, by outcome.",
			},
			[]string{"outcome"},
		),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "lsh",
			Name:      "candidate_pairs_total",
			Help:      "Distinct candidate pairs emitted by banding.",
		}),
		reportedPairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reported_pairs_total",
			Help:      "Pairs reported after verification and filtering.",
		}),
		maxBucketSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "lsh",
			Name:      "max_bucket_size",
			Help:      "Occupancy of the fullest bucket in the last run.",
		}),
		bandCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "lsh",
			Name:      "bucket_collisions_total",
			Help:      "Pairs emitted by bucket collisions before deduplication.",
		}),
	}

	m.registry.MustRegister(m.stageDuration, m.documents, m.candidates, m.reportedPairs, m.maxBucketSize, m.bandCollisions)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveStage records the time spent in a stage
func (m *Metrics) ObserveStage(stage string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
}

// AddDocuments counts documents by outcome: tokenized, empty, skipped
func (m *Metrics) AddDocuments(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.documents.WithLabelValues(outcome).Add(float64(n))
}

// RecordBanding records the bucket statistics of one banding run
func (m *Metrics) RecordBanding(summary domain.BandingSummary, candidates int) {
	if m == nil {
		return
	}
	m.candidates.Add(float64(candidates))
	m.bandCollisions.Add(float64(summary.Collisions))
	m.maxBucketSize.Set(float64(summary.MaxBucketSize))
}

// AddReported counts pairs that survived verification
func (m *Metrics) AddReported(n int) {
	if m == nil {
		return
	}
	m.reportedPairs.Add(float64(n))
}

// WriteTextfile writes all collectors in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return domain.NewOutputError("failed to write metrics file "+path, err)
	}
	return nil
}
