package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion and facet Prometheus metrics.
var (
	IngestJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "ingest_jobs_total",
			Help:      "Import jobs by terminal state",
		},
		[]string{"state"},
	)

	IngestActiveJobs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facetdex",
			Name:      "ingest_active_jobs",
			Help:      "Import jobs currently running",
		},
	)

	IngestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "ingest_records_total",
			Help:      "Records processed by import jobs",
		},
		[]string{"result"}, // "succeeded" / "failed"
	)

	IngestBatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "ingest_batches_total",
			Help:      "Batches written by import jobs",
		},
		[]string{"result"}, // "ok" / "partial" / "error"
	)

	IngestRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "ingest_retries_total",
			Help:      "Batch write retries after transient failures",
		},
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "facetdex",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Batch write duration in seconds, retries and facet update included",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	FacetUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "facet_updates_total",
			Help:      "Per-field facet table updates",
		},
		[]string{"type"},
	)

	FacetTruncationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facetdex",
			Name:      "facet_truncations_total",
			Help:      "Facet updates that dropped values at the cardinality cap",
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers ingestion and facet metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestJobsTotal)
	prometheus.MustRegister(IngestActiveJobs)
	prometheus.MustRegister(IngestRecordsTotal)
	prometheus.MustRegister(IngestBatchesTotal)
	prometheus.MustRegister(IngestRetriesTotal)
	prometheus.MustRegister(IngestBatchDuration)
	prometheus.MustRegister(FacetUpdatesTotal)
	prometheus.MustRegister(FacetTruncationsTotal)
	ingestMetricsRegistered = true
}
