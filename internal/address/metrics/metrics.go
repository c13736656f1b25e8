package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the address registry.
type Metrics struct {
	AddressesRegistered *prometheus.CounterVec
	AddressChanges      *prometheus.CounterVec
	LockedRejections    prometheus.Counter
	ChangeRequests      *prometheus.CounterVec
	VersionConflicts    prometheus.Counter
}

// New creates a new Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		AddressesRegistered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bubble_address_registered_total",
			Help: "Addresses registered, by kind",
		}, []string{"kind"}),
		AddressChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bubble_address_changes_total",
			Help: "Address coordinate changes, by path (direct or approved)",
		}, []string{"path"}),
		LockedRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_address_locked_rejections_total",
			Help: "Change attempts rejected because the address was still locked",
		}),
		ChangeRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bubble_address_change_requests_total",
			Help: "Special change requests, by outcome (requested, approved, rejected)",
		}, []string{"outcome"}),
		VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bubble_address_version_conflicts_total",
			Help: "Writes rejected by the optimistic version check",
		}),
	}
}

func (m *Metrics) IncrementRegistered(kind string) {
	m.AddressesRegistered.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrementChanged(path string) {
	m.AddressChanges.WithLabelValues(path).Inc()
}

func (m *Metrics) IncrementLocked() {
	m.LockedRejections.Inc()
}

func (m *Metrics) IncrementChangeRequest(outcome string) {
	m.ChangeRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementConflict() {
	m.VersionConflicts.Inc()
}
