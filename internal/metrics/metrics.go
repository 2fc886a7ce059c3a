package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// ScoringEvaluations counts vehicle/order evaluations by outcome
	ScoringEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scoring_evaluations_total", Help: "Vehicle scoring evaluations by outcome."},
		[]string{"outcome"},
	)
	// Assignments counts batch assignment results by status
	Assignments = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "assignments_total", Help: "Order assignments by status."},
		[]string{"status"},
	)
	// AssignDuration records per-order assignment latency in seconds
	AssignDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "assign_duration_seconds", Help: "Per-order assignment duration in seconds.", Buckets: prometheus.DefBuckets},
	)

	// GraphCache counts road-graph cache lookups by result (hit, miss, store_hit)
	GraphCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "graph_cache_lookups_total", Help: "Road graph cache lookups by result."},
		[]string{"result"},
	)
	// PathCache counts shortest-path cache lookups by result
	PathCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "path_cache_lookups_total", Help: "Shortest path cache lookups by result."},
		[]string{"result"},
	)
	// ZoneLookups counts zone classifications by layer and result
	ZoneLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "zone_lookups_total", Help: "Zone lookups by layer and result."},
		[]string{"layer", "result"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(ScoringEvaluations)
		Registry.MustRegister(Assignments)
		Registry.MustRegister(AssignDuration)
		Registry.MustRegister(GraphCache)
		Registry.MustRegister(PathCache)
		Registry.MustRegister(ZoneLookups)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
