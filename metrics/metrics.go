package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "certgen"

var (
	// BatchesLoaded counts spreadsheet loads by source kind (upload, paste, file)
	BatchesLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_loaded_total",
		Help:      "Spreadsheets loaded into record batches.",
	}, []string{"source"})

	// RecordsLoaded counts records produced from spreadsheets
	RecordsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_loaded_total",
		Help:      "Records derived from spreadsheet rows.",
	})

	DocumentsRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_rendered_total",
		Help:      "Documents rendered from the template.",
	})

	// Conversions counts PDF conversions by result (ok, error)
	Conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pdf_conversions_total",
		Help:      "Document to PDF conversions.",
	}, []string{"result"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "generation_duration_seconds",
		Help:      "Wall time of complete generation runs.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// Handler serves the metrics in the Prometheus text format
func Handler() http.Handler {
	return promhttp.Handler()
}
