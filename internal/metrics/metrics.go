package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	WSClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_clients_connected",
			Help: "Currently connected websocket clients",
		},
	)

	WSSnapshotsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_snapshots_sent_total",
			Help: "Snapshot messages pushed to websocket subscribers",
		},
		[]string{"collection"},
	)
)
