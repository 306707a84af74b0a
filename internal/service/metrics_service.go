package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP
// surface and the assignment engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	assignmentsCreated  *prometheus.CounterVec
	conflictResolutions prometheus.Counter
	capacityRejections  prometheus.Counter
	plannerPlacements   prometheus.Counter
	plannerFailures     prometheus.Counter
	plannerRunDuration  prometheus.Histogram
}

// NewMetricsService registers the collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	assignmentsCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assignments_created_total",
		Help: "Assignment records created, by assignment type",
	}, []string{"type"})

	conflictResolutions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_conflicts_resolved_total",
		Help: "Same-course assignments deleted before a reassignment",
	})

	capacityRejections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_capacity_rejections_total",
		Help: "Placements rejected because a group or session was at ceiling",
	})

	plannerPlacements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auto_assign_placements_total",
		Help: "Trainees placed by the auto-assignment planner",
	})

	plannerFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auto_assign_failures_total",
		Help: "Trainees the planner could not place",
	})

	plannerRunDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auto_assign_run_duration_seconds",
		Help:    "Duration of auto-assignment planner runs",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		assignmentsCreated,
		conflictResolutions,
		capacityRejections,
		plannerPlacements,
		plannerFailures,
		plannerRunDuration,
	)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		assignmentsCreated:  assignmentsCreated,
		conflictResolutions: conflictResolutions,
		capacityRejections:  capacityRejections,
		plannerPlacements:   plannerPlacements,
		plannerFailures:     plannerFailures,
		plannerRunDuration:  plannerRunDuration,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// IncAssignmentCreated counts a persisted assignment record.
func (m *MetricsService) IncAssignmentCreated(assignmentType string) {
	if m == nil {
		return
	}
	m.assignmentsCreated.WithLabelValues(assignmentType).Inc()
}

// IncConflictResolved counts one same-course conflict resolution.
func (m *MetricsService) IncConflictResolved() {
	if m == nil {
		return
	}
	m.conflictResolutions.Inc()
}

// IncCapacityRejected counts one ceiling rejection.
func (m *MetricsService) IncCapacityRejected() {
	if m == nil {
		return
	}
	m.capacityRejections.Inc()
}

// ObservePlannerRun records a completed planner pass.
func (m *MetricsService) ObservePlannerRun(placed, failed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.plannerPlacements.Add(float64(placed))
	m.plannerFailures.Add(float64(failed))
	m.plannerRunDuration.Observe(duration.Seconds())
}
