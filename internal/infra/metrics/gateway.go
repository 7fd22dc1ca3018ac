package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		gatewayCallsTotal,
		gatewayCallLatencyMs,
		photosUploadedTotal,
		photosDroppedTotal,
	)
}

var (
	gatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_calls_total",
			Help: "External gateway calls, by gateway, operation and outcome.",
		},
		[]string{"gateway", "op", "outcome"},
	)

	gatewayCallLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_call_latency_ms",
			Help:    "External gateway call latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"gateway", "op"},
	)

	photosUploadedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photos_uploaded_total",
			Help: "Photos successfully stored in the photo bucket.",
		},
	)

	photosDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "photos_dropped_total",
			Help: "Photos dropped during the best-effort upload pipeline.",
		},
	)
)

func ObserveGatewayCall(gateway, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	gatewayCallsTotal.WithLabelValues(gateway, op, outcome).Inc()
	gatewayCallLatencyMs.WithLabelValues(gateway, op).Observe(float64(time.Since(start).Milliseconds()))
}

func IncPhotosUploaded() { photosUploadedTotal.Inc() }
func IncPhotosDropped()  { photosDroppedTotal.Inc() }
