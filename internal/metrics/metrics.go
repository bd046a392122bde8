// Package metrics defines the Prometheus collectors of the server.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry returns a registry with build info, Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Manager holds the application collectors. A nil *Manager is valid and
// records nothing.
type Manager struct {
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	finalizations       *prometheus.CounterVec
	setsToggled         prometheus.Counter
	persistenceFailures *prometheus.CounterVec
	mealScans           *prometheus.CounterVec
}

// NewManager registers the collectors on reg.
func NewManager(namespace string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)
	return &Manager{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		finalizations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workout_finalizations_total",
			Help:      "Workout finalize attempts by result",
		}, []string{"result"}),
		setsToggled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sets_toggled_total",
			Help:      "The total number of set toggles",
		}),
		persistenceFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Snapshot load and save failures",
		}, []string{"op"}),
		mealScans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meal_scans_total",
			Help:      "Meal photo analyses by result",
		}, []string{"result"}),
	}
}

// ObserveRequest records one served HTTP request.
func (m *Manager) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// Finalized counts a finalize attempt; result is "logged", "already_logged" or "rejected".
func (m *Manager) Finalized(result string) {
	if m == nil {
		return
	}
	m.finalizations.WithLabelValues(result).Inc()
}

func (m *Manager) SetToggled() {
	if m == nil {
		return
	}
	m.setsToggled.Inc()
}

// PersistenceFailed counts a failed "load" or "save".
func (m *Manager) PersistenceFailed(op string) {
	if m == nil {
		return
	}
	m.persistenceFailures.WithLabelValues(op).Inc()
}

// MealScanned counts an analysis; result is "ok", "invalid" or "unavailable".
func (m *Manager) MealScanned(result string) {
	if m == nil {
		return
	}
	m.mealScans.WithLabelValues(result).Inc()
}
