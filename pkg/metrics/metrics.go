// Package metrics exposes decode-path counters on the default prometheus
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SchemaCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etwparse_schema_cache_hits_total",
		Help: "Total number of schema lookups served from the locator cache.",
	})

	SchemaCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etwparse_schema_cache_misses_total",
		Help: "Total number of schema lookups that required a native resolution.",
	})

	SchemaParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etwparse_schema_parse_failures_total",
		Help: "Total number of lenient property-list accesses that observed a memoized parse failure.",
	})

	RecordsSerialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etwparse_records_serialized_total",
		Help: "Total number of event records fully rendered to an output sink.",
	})

	FieldsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "etwparse_fields_skipped_total",
		Help: "Total number of event fields omitted from output because no decoding strategy exists.",
	})
)
