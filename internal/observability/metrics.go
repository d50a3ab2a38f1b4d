// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	EventsProcessed       prometheus.Counter
	EventsSkipped         *prometheus.CounterVec
	ObservationsProduced  prometheus.Counter
	TradesEnriched        *prometheus.CounterVec
	AmbiguousSwapsSkipped prometheus.Counter

	// Buffer metrics
	BufferedBuckets   prometheus.Gauge
	HighestBucketSeen prometheus.Gauge

	// Aggregation metrics
	CandlesEmitted prometheus.Counter
	BucketsFlushed prometheus.Counter

	// Latency metrics
	EventProcessingLatency prometheus.Histogram
	RPCCallLatency         *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulFlush prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "candle_oracle"
	}

	return &Metrics{
		EventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_processed_total",
			Help:      "Total number of pool events processed",
		}),
		EventsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_skipped_total",
			Help:      "Total number of pool events skipped by error kind",
		}, []string{"error_kind"}),
		ObservationsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "observations_produced_total",
			Help:      "Total number of price observations produced",
		}),
		TradesEnriched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "trades_enriched_total",
			Help:      "Total number of enriched trades by direction",
		}, []string{"direction"}),
		AmbiguousSwapsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "ambiguous_swaps_skipped_total",
			Help:      "Total number of swaps excluded as ambiguous",
		}),

		BufferedBuckets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "buffered_buckets",
			Help:      "Current number of open interval buckets in the buffer",
		}),
		HighestBucketSeen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_bucket_seen",
			Help:      "Highest interval bucket start seen (epoch seconds)",
		}),

		CandlesEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "candles_emitted_total",
			Help:      "Total number of candles emitted",
		}),
		BucketsFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "buckets_flushed_total",
			Help:      "Total number of interval buckets flushed",
		}),

		EventProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "event_processing_latency_seconds",
			Help:      "Event processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evm",
			Name:      "rpc_call_latency_seconds",
			Help:      "Ethereum RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		LastSuccessfulFlush: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_flush_timestamp",
			Help:      "Unix timestamp of last successful bucket flush",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventProcessed increments the events processed counter.
func RecordEventProcessed() {
	DefaultMetrics.EventsProcessed.Inc()
}

// RecordEventSkipped records a skipped event by error kind.
func RecordEventSkipped(errorKind string) {
	DefaultMetrics.EventsSkipped.WithLabelValues(errorKind).Inc()
}

// RecordObservation increments the observations produced counter.
func RecordObservation() {
	DefaultMetrics.ObservationsProduced.Inc()
}

// RecordTrade records an enriched trade by direction.
func RecordTrade(direction string) {
	DefaultMetrics.TradesEnriched.WithLabelValues(direction).Inc()
}

// RecordAmbiguousSwap increments the ambiguous swaps counter.
func RecordAmbiguousSwap() {
	DefaultMetrics.AmbiguousSwapsSkipped.Inc()
}

// UpdateBufferSize updates the open bucket gauge.
func UpdateBufferSize(buckets int) {
	DefaultMetrics.BufferedBuckets.Set(float64(buckets))
}

// UpdateHighestBucket updates the highest bucket seen gauge.
func UpdateHighestBucket(bucketStart int64) {
	DefaultMetrics.HighestBucketSeen.Set(float64(bucketStart))
}

// RecordFlush records a flushed bucket and the candles it emitted.
func RecordFlush(candles int, at int64) {
	DefaultMetrics.BucketsFlushed.Inc()
	DefaultMetrics.CandlesEmitted.Add(float64(candles))
	DefaultMetrics.LastSuccessfulFlush.Set(float64(at))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
