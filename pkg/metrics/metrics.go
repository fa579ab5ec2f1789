// Package metrics holds the Prometheus collectors shared by the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiservice_http_requests_total",
		Help: "HTTP requests handled, by route and status code",
	}, []string{"route", "status"})

	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiservice_gateway_requests_total",
		Help: "Calls to the model gateway, by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	GatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aiservice_gateway_latency_seconds",
		Help:    "Generation round-trip latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
	})

	VoiceStageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aiservice_voice_stage_seconds",
		Help:    "Latency of each voice pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	VoiceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiservice_voice_runs_total",
		Help: "Voice pipeline runs, by terminal state and failed stage",
	}, []string{"state", "stage"})

	BiometricVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aiservice_biometric_verifications_total",
		Help: "Face verifications, by outcome",
	}, []string{"outcome"})

	WarmupReady = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aiservice_warmup_ready",
		Help: "1 once the target model is confirmed on the gateway",
	})
)

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
