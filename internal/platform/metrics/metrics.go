package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Components accept
// a nil *Metrics and skip recording, which keeps unit tests free of registry
// collisions.
type Metrics struct {
	RequestDuration     *prometheus.HistogramVec
	UsersRegistered     prometheus.Counter
	DocumentsUploaded   *prometheus.CounterVec
	Verifications       *prometheus.CounterVec
	ApplicationsCreated prometheus.Counter
	MatchDuration       prometheus.Histogram
	ProfileCacheHits    prometheus.Counter
	ProfileCacheMisses  prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
// Call it once per process.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seva_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route, and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seva_users_registered_total",
			Help: "Total number of users registered.",
		}),
		DocumentsUploaded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seva_documents_uploaded_total",
			Help: "Total documents uploaded, by declared document type.",
		}, []string{"document_type"}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "seva_verifications_total",
			Help: "Completed verification attempts by outcome (verified, failed, upstream_error).",
		}, []string{"outcome"}),
		ApplicationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seva_applications_created_total",
			Help: "Total scheme applications submitted.",
		}),
		MatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "seva_eligibility_match_duration_seconds",
			Help:    "Time spent matching a profile against the scheme catalog.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		}),
		ProfileCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seva_profile_cache_hits_total",
			Help: "Profile reads served from the redis cache.",
		}),
		ProfileCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "seva_profile_cache_misses_total",
			Help: "Profile reads that fell through to the primary store.",
		}),
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(seconds)
}

func (m *Metrics) IncUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

func (m *Metrics) IncDocumentsUploaded(documentType string) {
	if m == nil {
		return
	}
	m.DocumentsUploaded.WithLabelValues(documentType).Inc()
}

func (m *Metrics) IncVerifications(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncApplicationsCreated() {
	if m == nil {
		return
	}
	m.ApplicationsCreated.Inc()
}

func (m *Metrics) ObserveMatchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.MatchDuration.Observe(seconds)
}

func (m *Metrics) IncProfileCacheHit() {
	if m == nil {
		return
	}
	m.ProfileCacheHits.Inc()
}

func (m *Metrics) IncProfileCacheMiss() {
	if m == nil {
		return
	}
	m.ProfileCacheMisses.Inc()
}
