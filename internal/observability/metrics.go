package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
	gradesTotal          *prometheus.CounterVec
	assistRequestsTotal  *prometheus.CounterVec
	eventsPublishedTotal *prometheus.CounterVec
	cacheLookupsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the classroom API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroom_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_submissions_total",
			Help: "Submissions turned in, by action (created, resubmitted, rejected).",
		}, []string{"action"})

		gradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_grades_total",
			Help: "Grading attempts, by outcome.",
		}, []string{"outcome"})

		assistRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_assist_requests_total",
			Help: "Assist calls, by kind and outcome.",
		}, []string{"kind", "outcome"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_events_published_total",
			Help: "Submission events published, by transport.",
		}, []string{"transport"})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_cache_lookups_total",
			Help: "Read cache lookups, by cache and result.",
		}, []string{"cache", "result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			gradesTotal,
			assistRequestsTotal,
			eventsPublishedTotal,
			cacheLookupsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions exposes the submission counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Grades exposes the grading counter.
func Grades() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesTotal
}

// AssistRequests exposes the assist counter.
func AssistRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return assistRequestsTotal
}

// EventsPublished exposes the event publication counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// CacheLookups exposes the cache hit/miss counter.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}
