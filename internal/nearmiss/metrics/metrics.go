package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the near-miss batch and delivery.
type Metrics struct {
	Runs             *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	PairsCompared    prometheus.Counter
	EventsDetected   prometheus.Counter
	CorruptSkipped   prometheus.Counter
	EventsDelivered  prometheus.Counter
	DeliveryFailures prometheus.Counter
}

// New creates a new Metrics instance with all near-miss metrics registered.
func New() *Metrics {
	return &Metrics{
		Runs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bubble_nearmiss_runs_total",
			Help: "Near-miss runs by outcome (committed, aborted)",
		}, []string{"outcome"}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bubble_nearmiss_run_duration_seconds",
			Help:    "Wall time of a near-miss run from sweep to commit",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		PairsCompared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_nearmiss_pairs_compared_total",
			Help: "Eligible pairs whose histories were compared",
		}),
		EventsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_nearmiss_events_detected_total",
			Help: "Near-miss events produced by committed runs",
		}),
		CorruptSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_nearmiss_corrupt_records_total",
			Help: "Corrupt history records skipped during runs",
		}),
		EventsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_nearmiss_events_delivered_total",
			Help: "Events handed to the notification publisher",
		}),
		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_nearmiss_delivery_failures_total",
			Help: "Events the publisher rejected; retried on the next pass",
		}),
	}
}

func (m *Metrics) IncrementRun(outcome string) {
	m.Runs.WithLabelValues(outcome).Inc()
}

// ObserveRun records the duration of a run.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRun(start time.Time) {
	m.RunDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddCommitted(pairs, events, corrupt int) {
	m.PairsCompared.Add(float64(pairs))
	m.EventsDetected.Add(float64(events))
	m.CorruptSkipped.Add(float64(corrupt))
}

func (m *Metrics) AddDelivered(n int) {
	m.EventsDelivered.Add(float64(n))
}

func (m *Metrics) IncrementDeliveryFailure() {
	m.DeliveryFailures.Inc()
}
