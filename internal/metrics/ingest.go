package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	FeaturesIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topomesh",
			Name:      "features_ingested_total",
			Help:      "Total number of features converted into topology geometries",
		},
		[]string{"topology", "class", "status"},
	)

	IngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "topomesh",
			Name:      "ingest_duration_seconds",
			Help:      "Feature ingestion duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"topology", "class"},
	)

	PrimitivesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topomesh",
			Name:      "primitives_written_total",
			Help:      "Total mesh primitives referenced during ingestion",
		},
		[]string{"topology", "kind"}, // kind: "node" / "edge" / "face"
	)

	RelationDuplicatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "topomesh",
			Name:      "relation_duplicates_total",
			Help:      "Relation tuples skipped because an equivalent tuple already existed",
		},
		[]string{"topology"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(FeaturesIngestedTotal)
	prometheus.MustRegister(IngestDuration)
	prometheus.MustRegister(PrimitivesWrittenTotal)
	prometheus.MustRegister(RelationDuplicatesTotal)
	ingestMetricsRegistered = true
}
