//nolint:gochecknoglobals
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "skillbridge"

var (
	lifecycleMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_operations_total",
		Help:      "Application lifecycle operations by operation and outcome kind",
	}, []string{"operation", "outcome"})

	retryMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_conflict_retries_total",
		Help:      "Transactions retried after a write conflict",
	}, []string{"operation"})

	deliveryMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_deliveries_total",
		Help:      "Outbox event deliveries by sink and outcome",
	}, []string{"sink", "outcome"})

	deadEventsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispatch_dead_events_total",
		Help:      "Events that exhausted their delivery attempts",
	})

	httpRequestsDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "The latency of the HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "code"})
)

// LifecycleOutcome counts one lifecycle operation. outcome is "ok" or the
// error kind.
func LifecycleOutcome(operation, outcome string) {
	lifecycleMetric.WithLabelValues(operation, outcome).Inc()
}

func ConflictRetry(operation string) {
	retryMetric.WithLabelValues(operation).Inc()
}

func Delivery(sink string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	deliveryMetric.WithLabelValues(sink, outcome).Inc()
}

func DeadEvent() {
	deadEventsMetric.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{DisableCompression: true})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware observes request latency labelled by the matched route template.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpRequestsDuration.With(prometheus.Labels{
			"route":  route,
			"method": r.Method,
			"code":   strconv.Itoa(rec.code),
		}).Observe(time.Since(start).Seconds())
	})
}
