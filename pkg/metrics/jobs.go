package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceJobMetrics records metadata for catalog maintenance jobs.
type MaintenanceJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	updated  *prometheus.CounterVec
}

// NewMaintenanceJobMetrics registers the maintenance job metrics on the provided registerer.
func NewMaintenanceJobMetrics(reg prometheus.Registerer) *MaintenanceJobMetrics {
	if reg == nil {
		return &MaintenanceJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of maintenance jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful maintenance job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed maintenance job executions.",
	}, []string{"job"})
	updated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_rows_updated",
		Help: "Rows touched by maintenance job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, updated)
	return &MaintenanceJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		updated:  updated,
	}
}

// ObserveDuration records the duration for the named job.
func (m *MaintenanceJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *MaintenanceJobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *MaintenanceJobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddRowsUpdated adds the number of rows a job run touched.
func (m *MaintenanceJobMetrics) AddRowsUpdated(job string, rows int) {
	if m == nil || m.updated == nil || rows <= 0 {
		return
	}
	m.updated.WithLabelValues(normalizeLabel(job)).Add(float64(rows))
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
