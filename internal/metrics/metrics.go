// Package metrics exposes Prometheus counters for uploads and purge passes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// UploadsTotal counts upload attempts by result ("stored" or a rejection kind).
	UploadsTotal *prometheus.CounterVec
	// UploadedBytes counts bytes written to storage.
	UploadedBytes prometheus.Counter
	// PurgeRunsTotal counts completed purge passes.
	PurgeRunsTotal prometheus.Counter
	// PurgedFilesTotal counts files deleted by purge passes.
	PurgedFilesTotal prometheus.Counter
	// PurgedBytesTotal counts bytes reclaimed by purge passes.
	PurgedBytesTotal prometheus.Counter
	// PurgeErrorsTotal counts per-file purge failures.
	PurgeErrorsTotal prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ofu_uploads_total",
				Help: "Upload attempts by result",
			},
			[]string{"result"},
		),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ofu_uploaded_bytes_total",
			Help: "Bytes written to storage by accepted uploads",
		}),
		PurgeRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ofu_purge_runs_total",
			Help: "Completed purge passes",
		}),
		PurgedFilesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ofu_purged_files_total",
			Help: "Files deleted by purge passes",
		}),
		PurgedBytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ofu_purged_bytes_total",
			Help: "Bytes reclaimed by purge passes",
		}),
		PurgeErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ofu_purge_errors_total",
			Help: "Files a purge pass failed to delete",
		}),
	}

	reg.MustRegister(
		m.UploadsTotal,
		m.UploadedBytes,
		m.PurgeRunsTotal,
		m.PurgedFilesTotal,
		m.PurgedBytesTotal,
		m.PurgeErrorsTotal,
	)
	return m
}

// Upload records the outcome of one uploaded file.
func (m *Metrics) Upload(result string, size int64) {
	if m == nil {
		return
	}
	m.UploadsTotal.WithLabelValues(result).Inc()
	if size > 0 {
		m.UploadedBytes.Add(float64(size))
	}
}

// Purge records the outcome of one purge pass.
func (m *Metrics) Purge(deleted int, reclaimed int64, failed int) {
	if m == nil {
		return
	}
	m.PurgeRunsTotal.Inc()
	m.PurgedFilesTotal.Add(float64(deleted))
	m.PurgedBytesTotal.Add(float64(reclaimed))
	m.PurgeErrorsTotal.Add(float64(failed))
}
