package service

import (
	"time"

	"sikap/internal/upload"

	"github.com/prometheus/client_golang/prometheus"
)

// Upload outcomes used as the "outcome" label of sikap_uploads_total.
const (
	OutcomeSuccess         = "success"
	OutcomeRejected        = "rejected"
	OutcomeNotFound        = "not_found"
	OutcomeDuplicate       = "duplicate"
	OutcomeScanUnavailable = "scan_unavailable"
	OutcomeError           = "error"
)

// Category label values for requests whose type is missing or not one of
// the known upload categories.
const (
	categoryUnknown = "unknown"
	categoryInvalid = "invalid"
)

// UploadMetrics holds the orchestrator's prometheus collectors.
// A nil *UploadMetrics records nothing.
type UploadMetrics struct {
	uploads      *prometheus.CounterVec
	scanDuration prometheus.Histogram
}

// NewUploadMetrics creates the collectors and registers them with reg.
func NewUploadMetrics(reg prometheus.Registerer) (*UploadMetrics, error) {
	m := &UploadMetrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sikap_uploads_total",
				Help: "Total number of upload attempts by category and outcome.",
			},
			[]string{"category", "outcome"},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sikap_scan_duration_seconds",
				Help:    "Time spent screening uploaded content.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	if err := reg.Register(m.uploads); err != nil {
		return nil, err
	}
	if err := reg.Register(m.scanDuration); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *UploadMetrics) observeUpload(category, outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(categoryLabel(category), outcome).Inc()
}

func categoryLabel(category string) string {
	switch {
	case category == "":
		return categoryUnknown
	case !upload.Category(category).Valid():
		return categoryInvalid
	default:
		return category
	}
}

func (m *UploadMetrics) observeScan(d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(d.Seconds())
}
