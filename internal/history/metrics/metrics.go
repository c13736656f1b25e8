package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the location history store.
type Metrics struct {
	RecordsAppended prometheus.Counter
	RecordsCorrupt  prometheus.Counter
	RecordsPurged   prometheus.Counter
	QueryDuration   prometheus.Histogram
}

// New creates a new Metrics instance with all history metrics registered.
func New() *Metrics {
	return &Metrics{
		RecordsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_history_records_appended_total",
			Help: "Total number of sealed location records written",
		}),
		RecordsCorrupt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_history_records_corrupt_total",
			Help: "Records skipped because they failed to decrypt or decode",
		}),
		RecordsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_history_records_purged_total",
			Help: "Expired location records physically deleted by the retention sweep",
		}),
		QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "bubble_history_query_duration_seconds",
			Help:    "Duration of per-user history queries including decryption",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementAppended() {
	m.RecordsAppended.Inc()
}

func (m *Metrics) IncrementCorrupt() {
	m.RecordsCorrupt.Inc()
}

func (m *Metrics) AddPurged(n int) {
	m.RecordsPurged.Add(float64(n))
}

// ObserveQuery records the duration of a Query call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveQuery(start time.Time) {
	m.QueryDuration.Observe(time.Since(start).Seconds())
}
