// Package metrics expone los contadores Prometheus del servicio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es la interfaz que usan handlers y servicios para registrar eventos.
type Recorder interface {
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
	SessionCreated()
	SignInFailed(reason string)
	InvitationSent()
}

// NopRecorder descarta todas las mediciones.
type NopRecorder struct{}

func (NopRecorder) ObserveHTTPRequest(string, string, int, time.Duration) {}
func (NopRecorder) SessionCreated()                                       {}
func (NopRecorder) SignInFailed(string)                                   {}
func (NopRecorder) InvitationSent()                                       {}

// Collector implementa Recorder sobre Prometheus.
type Collector struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	sessionsCreated prometheus.Counter
	signInFailures  *prometheus.CounterVec
	invitationsSent prometheus.Counter
}

// NewCollector crea los collectors y los registra en reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_sessions_created_total",
			Help: "Sessions issued by sign-in and sign-up.",
		}),
		signInFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskboard_signin_failures_total",
			Help: "Rejected sign-in attempts by reason.",
		}, []string{"reason"}),
		invitationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskboard_invitations_sent_total",
			Help: "Workspace invitation emails delivered.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.sessionsCreated,
		c.signInFailures,
		c.invitationsSent,
	)
	return c
}

func (c *Collector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) SessionCreated() {
	c.sessionsCreated.Inc()
}

func (c *Collector) SignInFailed(reason string) {
	c.signInFailures.WithLabelValues(reason).Inc()
}

func (c *Collector) InvitationSent() {
	c.invitationsSent.Inc()
}

// Handler devuelve el endpoint /metrics para el registry dado.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
