package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initOnce ensures metrics are registered only once
	initOnce sync.Once

	// stixExportsTotal tracks bundle exports by status
	stixExportsTotal *prometheus.CounterVec

	// stixImportsTotal tracks bundle imports by status
	stixImportsTotal *prometheus.CounterVec

	// stixObjectsTotal tracks converted objects by STIX type and direction
	stixObjectsTotal *prometheus.CounterVec

	// stixDroppedTotal tracks import objects dropped as unsupported kinds
	stixDroppedTotal *prometheus.CounterVec

	// stixConvertDuration tracks latency of export/import calls
	stixConvertDuration *prometheus.HistogramVec

	// feedExportsTotal tracks feed downloads by format
	feedExportsTotal *prometheus.CounterVec

	// taxiiPushErrorsTotal tracks TAXII push failures by error type
	taxiiPushErrorsTotal *prometheus.CounterVec
)

// Init registers all Prometheus metrics for the STIX conversion pipeline.
// This should be called once at application startup.
func Init() {
	initOnce.Do(func() {
		stixExportsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stix_exports_total",
				Help: "Total number of STIX bundle exports by status",
			},
			[]string{"status"},
		)

		stixImportsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stix_imports_total",
				Help: "Total number of STIX bundle imports by status",
			},
			[]string{"status"},
		)

		stixObjectsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stix_objects_total",
				Help: "Total number of converted STIX objects by type and direction",
			},
			[]string{"type", "direction"},
		)

		stixDroppedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stix_import_dropped_total",
				Help: "Total number of unsupported STIX objects dropped on import",
			},
			[]string{"type"},
		)

		stixConvertDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stix_convert_duration_seconds",
				Help:    "Duration of bundle conversion calls in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"direction"},
		)

		feedExportsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feed_exports_total",
				Help: "Total number of indicator feed exports by format",
			},
			[]string{"format"},
		)

		taxiiPushErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxii_push_errors_total",
				Help: "Total number of TAXII push errors by error type",
			},
			[]string{"error_type"},
		)
	})
}

// RecordExport records a bundle export with status "success" or "error".
func RecordExport(status string) {
	if stixExportsTotal != nil {
		stixExportsTotal.WithLabelValues(status).Inc()
	}
}

// RecordImport records a bundle import with status "success" or "error".
func RecordImport(status string) {
	if stixImportsTotal != nil {
		stixImportsTotal.WithLabelValues(status).Inc()
	}
}

// RecordObject records one converted object.
// direction: "export" or "import".
func RecordObject(objectType, direction string) {
	if stixObjectsTotal != nil {
		stixObjectsTotal.WithLabelValues(objectType, direction).Inc()
	}
}

// RecordDropped records an unsupported object dropped during import.
func RecordDropped(objectType string) {
	if stixDroppedTotal != nil {
		stixDroppedTotal.WithLabelValues(objectType).Inc()
	}
}

// RecordConvertDuration records how long a conversion call took.
func RecordConvertDuration(direction string, d time.Duration) {
	if stixConvertDuration != nil {
		stixConvertDuration.WithLabelValues(direction).Observe(d.Seconds())
	}
}

// RecordFeedExport records an indicator feed download by format ("stix", "cef").
func RecordFeedExport(format string) {
	if feedExportsTotal != nil {
		feedExportsTotal.WithLabelValues(format).Inc()
	}
}

// RecordTAXIIError records a TAXII push failure.
// errorType: "timeout", "auth", "rate_limit", "server_error", "connection", "circuit_open".
func RecordTAXIIError(errorType string) {
	if taxiiPushErrorsTotal != nil {
		taxiiPushErrorsTotal.WithLabelValues(errorType).Inc()
	}
}

// Timer measures the duration of a conversion call.
type Timer struct {
	start     time.Time
	direction string
}

// StartTimer begins timing a conversion in the given direction.
func StartTimer(direction string) *Timer {
	return &Timer{start: time.Now(), direction: direction}
}

// ObserveDuration records the elapsed time since the timer started.
func (t *Timer) ObserveDuration() {
	if t != nil {
		RecordConvertDuration(t.direction, time.Since(t.start))
	}
}
