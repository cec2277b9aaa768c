// Package observability holds the Prometheus metrics for the admin gate.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	LoginSuccess     = "success"
	LoginInvalid     = "invalid_credential"
	LoginRateLimited = "rate_limited"
)

var (
	registerOnce sync.Once

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pointstracker",
			Subsystem: "admin",
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by outcome.",
		},
		[]string{"outcome"},
	)
	authorizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pointstracker",
			Subsystem: "admin",
			Name:      "authorizations_total",
			Help:      "Admin token checks on protected routes.",
		},
		[]string{"result"},
	)
	trackedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pointstracker",
			Subsystem: "admin",
			Name:      "login_limiter_clients",
			Help:      "Clients currently tracked by the login limiter.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(loginAttempts, authorizations, trackedClients)
	})
}

func RecordLogin(outcome string) {
	loginAttempts.WithLabelValues(outcome).Inc()
}

func RecordAuthorization(allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	authorizations.WithLabelValues(result).Inc()
}

func SetTrackedClients(n int) {
	trackedClients.Set(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
