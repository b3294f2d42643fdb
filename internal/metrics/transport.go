package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InstrumentTransport wraps next with request count and latency metrics
// labelled by method and status code. A nil next uses http.DefaultTransport.
func InstrumentTransport(reg prometheus.Registerer, next http.RoundTripper) (http.RoundTripper, error) {
	if next == nil {
		next = http.DefaultTransport
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_client_requests_total",
		Help:      "Total number of upstream HTTP requests.",
	}, []string{"method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_client_request_duration_seconds",
		Help:      "Upstream HTTP request duration in seconds.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "code"})

	if err := registerOrReuse(reg, &requests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &duration); err != nil {
		return nil, err
	}

	return promhttp.InstrumentRoundTripperCounter(requests,
		promhttp.InstrumentRoundTripperDuration(duration, next),
	), nil
}
