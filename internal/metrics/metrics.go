package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adstudio/internal/domain"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adstudio_provider_requests_total",
			Help: "Total number of calls made to external providers",
		},
		[]string{"provider", "operation", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adstudio_provider_request_duration_seconds",
			Help:    "Duration of external provider calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adstudio_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"route", "method", "status"},
	)
)

// ObserveProvider records one provider call. Call it with the time the call
// started and the error it returned.
func ObserveProvider(provider, operation string, started time.Time, err error) {
	ProviderDuration.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
	ProviderRequests.WithLabelValues(provider, operation, Outcome(err)).Inc()
}

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, domain.ErrTimeout) {
		return "timeout"
	}
	return string(domain.KindOf(err))
}
