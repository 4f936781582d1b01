package prometheus

import (
	"strconv"
	"time"
)

// Plan outcome labels for PlansTotal.
const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusError   = "error"
	StatusCached  = "cached"
)

// AppMetrics holds fieldplan's metric families.
type AppMetrics struct {
	PlansTotal   CounterVec
	PlanDuration HistogramVec
	PlanFields   HistogramVec
	PlanRestarts HistogramVec
	PlansActive  GaugeVec

	CacheHitsTotal CounterVec

	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

var (
	PlanDurationBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	PlanFieldBuckets    = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000}
	PlanRestartBuckets  = []float64{1, 2, 4, 8, 16, 32, 64, 128, 256}
	HTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
)

// NewAppMetrics registers every family on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.PlansTotal = collector.RegisterCounter("plans_total", "Plans requested, by outcome", "status")
	m.PlanDuration = collector.RegisterHistogram("plan_duration_seconds", "Wall time to compute a plan", PlanDurationBuckets)
	m.PlanFields = collector.RegisterHistogram("plan_fields", "Fields in computed plans", PlanFieldBuckets)
	m.PlanRestarts = collector.RegisterHistogram("plan_restarts", "Search restarts completed per plan", PlanRestartBuckets)
	m.PlansActive = collector.RegisterGauge("plans_active", "Plans being computed")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Plan cache lookups, by result", "result")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "HTTP requests", "method", "route", "status")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request latency", HTTPDurationBuckets, "method", "route")

	return m
}

// NewNoopAppMetrics returns metrics that record nothing.
func NewNoopAppMetrics() *AppMetrics {
	return NewAppMetrics(NewNoopCollector())
}

// RecordPlan records one computed plan.
func RecordPlan(m *AppMetrics, status string, d time.Duration, fields, restarts int) {
	m.PlansTotal.WithLabelValues(status).Inc()
	if status == StatusError {
		return
	}
	m.PlanDuration.WithLabelValues().Observe(d.Seconds())
	m.PlanFields.WithLabelValues().Observe(float64(fields))
	m.PlanRestarts.WithLabelValues().Observe(float64(restarts))
}

// RecordCacheAccess records a cache lookup.
func RecordCacheAccess(m *AppMetrics, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheHitsTotal.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records a served request. route is the matched pattern,
// not the raw path.
func RecordHTTPRequest(m *AppMetrics, method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

//Personal.AI order the ending
