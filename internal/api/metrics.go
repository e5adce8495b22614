package api

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simple_mercari",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Backend requests issued by the API client.",
	}, []string{"operation", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "simple_mercari",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "Latency of backend requests issued by the API client.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

const (
	opFetchItems = "fetch_items"
	opSearch     = "search"
	opPostItem   = "post_item"
)

// observe records one request. outcome is "ok", "status" or "error".
func observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var se *StatusError
		if errors.As(err, &se) {
			outcome = "status"
		}
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
