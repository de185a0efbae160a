// Package metrics exposes service counters in the Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ballot"

type Recorder struct {
	registry     *prometheus.Registry
	outcomes     *prometheus.CounterVec
	transactions *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Coordinator operations by outcome kind.",
		}, []string{"operation", "outcome"}),
		transactions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_transaction_seconds",
			Help:      "Time from gas estimation to confirmation.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"method", "outcome"}),
	}
	r.registry.MustRegister(
		r.outcomes,
		r.transactions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveOutcome(operation, kind string) {
	r.outcomes.WithLabelValues(operation, outcome(kind)).Inc()
}

func (r *Recorder) ObserveTransaction(method, kind string, elapsed time.Duration) {
	r.transactions.WithLabelValues(method, outcome(kind)).Observe(elapsed.Seconds())
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func outcome(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}
