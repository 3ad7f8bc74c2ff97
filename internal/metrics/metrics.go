package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

var (
	// TracesParsed counts full parses by where the trace came from.
	TracesParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debuglens_traces_parsed_total",
		Help: "Total traces given a full parse",
	}, []string{"source"})

	TracesTruncated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debuglens_traces_truncated_total",
		Help: "Total parsed traces that ended before their execution tree closed",
	})

	MetadataOnly = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debuglens_traces_metadata_only_total",
		Help: "Total traces above the line guard that only had metadata extracted",
	})

	ImportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debuglens_import_failures_total",
		Help: "Total traces that failed during a batch import",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debuglens_analysis_cache_hits_total",
		Help: "Total parses answered from the analysis cache",
	})

	GroupsBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "debuglens_groups_built_total",
		Help: "Total transaction groups reconstructed",
	})

	// BusEvents counts ingest bus deliveries by topic and outcome: published,
	// handled, failed, undecodable or panicked.
	BusEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debuglens_bus_events_total",
		Help: "Total events seen on the ingest event bus",
	}, []string{"topic", "outcome"})

	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debuglens_parse_duration_seconds",
		Help:    "Time spent parsing one trace",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
)

func ObserveParse(source string, started time.Time, truncated bool) {
	TracesParsed.WithLabelValues(source).Inc()
	ParseDuration.Observe(time.Since(started).Seconds())
	if truncated {
		TracesTruncated.Inc()
	}
}
