package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Client metrics
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geohop_probes_total",
		Help: "Health probes issued, by result status.",
	}, []string{"status"})
	ProbeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "geohop_probe_latency_seconds",
		Help:    "Round trip time of healthy probes.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})
	ConnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geohop_connects_total",
		Help: "Connect attempts, by outcome.",
	}, []string{"outcome"})
	RefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "geohop_refreshes_total",
		Help: "Token refreshes, by outcome.",
	}, []string{"outcome"})
	SessionsLost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geohop_sessions_lost_total",
		Help: "Sessions torn down after refresh recovery was exhausted.",
	})

	// Relay metrics
	RelayActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_sessions_active",
		Help: "Sessions currently registered with the relay.",
	})
	RelayHandshakes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_handshakes_total",
		Help: "Connect handshakes handled, by result.",
	}, []string{"result"})
	RelayProxied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_proxy_requests_total",
		Help: "Proxy requests, by result.",
	}, []string{"result"})
	RelaySweptSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_sessions_swept_total",
		Help: "Expired sessions removed by the sweeper.",
	})
)

// Outcome label values shared by the client counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
