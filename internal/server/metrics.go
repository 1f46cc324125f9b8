package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cro_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cro_http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cro_upload_size_bytes",
		Help:    "Size of accepted experiment uploads",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

func observeRequest(method, route string, status int, d time.Duration) {
	if status == 0 {
		status = 200
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
