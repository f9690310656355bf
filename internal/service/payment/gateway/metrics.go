// internal/service/payment/gateway/metrics.go
package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	txResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transactions_total",
		Help: "Terminal payment transactions by method and status.",
	}, []string{"method", "status"})

	processDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "payment_process_duration_seconds",
		Help:    "Wall time of gateway Process calls.",
		Buckets: prometheus.DefBuckets,
	})
)
