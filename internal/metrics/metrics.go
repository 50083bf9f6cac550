// Package metrics holds the Prometheus collectors for the workflow, the
// notification fan-out, draft sync and the scheduled jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rcca-backend/internal/domain"
)

const namespace = "rcca"

type Metrics struct {
	registry *prometheus.Registry

	TransitionsTotal     *prometheus.CounterVec
	ConflictsTotal       prometheus.Counter
	NotificationFailures *prometheus.CounterVec
	DraftsSyncedTotal    *prometheus.CounterVec
	RecordsByStatus      *prometheus.GaugeVec

	JobRunsTotal   *prometheus.CounterVec
	JobErrorsTotal *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	JobLastRunTime *prometheus.GaugeVec
}

// New creates the collectors on a private registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Committed workflow transitions by event type.",
		}, []string{"event"}),
		ConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_conflicts_total",
			Help:      "Approve or reject attempts that lost the status compare-and-swap.",
		}),
		NotificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Notification deliveries that failed, by sink.",
		}, []string{"sink"}),
		DraftsSyncedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_synced_total",
			Help:      "Locally cached drafts processed by sync, by result.",
		}, []string{"result"}),
		RecordsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Live reconciled records by status.",
		}, []string{"status"}),
		JobRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs.",
		}, []string{"job_name"}),
		JobErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_errors_total",
			Help:      "Total number of scheduled job failures, panics included.",
		}, []string{"job_name"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		}, []string{"job_name"}),
		JobLastRunTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_run_time_seconds",
			Help:      "Last run time of a scheduled job in seconds since epoch.",
		}, []string{"job_name"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TransitionsTotal,
		m.ConflictsTotal,
		m.NotificationFailures,
		m.DraftsSyncedTotal,
		m.RecordsByStatus,
		m.JobRunsTotal,
		m.JobErrorsTotal,
		m.JobDuration,
		m.JobLastRunTime,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveEvent counts a committed transition.
func (m *Metrics) ObserveEvent(ev domain.Event) {
	m.TransitionsTotal.WithLabelValues(string(ev.Type)).Inc()
}

func (m *Metrics) ObserveNotificationFailure(sink string) {
	m.NotificationFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) ObserveConflict() {
	m.ConflictsTotal.Inc()
}

func (m *Metrics) ObserveDraftSync(result string) {
	m.DraftsSyncedTotal.WithLabelValues(result).Inc()
}

// SetStatusCounts replaces the live record gauges.
func (m *Metrics) SetStatusCounts(counts map[domain.RecordStatus]int) {
	m.RecordsByStatus.Reset()
	for status, n := range counts {
		m.RecordsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
}

// ObserveJob records one job execution.
func (m *Metrics) ObserveJob(name string, started time.Time, failed bool) {
	m.JobRunsTotal.WithLabelValues(name).Inc()
	m.JobDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	m.JobLastRunTime.WithLabelValues(name).Set(float64(started.Unix()))
	if failed {
		m.JobErrorsTotal.WithLabelValues(name).Inc()
	}
}
