package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for onboarding and client maintenance.
type Metrics struct {
	AgenciesOnboarded prometheus.Counter
	ClientsCreated    prometheus.Counter
	Rollbacks         *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New registers agency metrics with reg, or the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AgenciesOnboarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "agencyhub_agencies_onboarded_total",
			Help: "Total number of agencies onboarded with their clients",
		}),
		ClientsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "agencyhub_clients_created_total",
			Help: "Total number of clients created through onboarding",
		}),
		Rollbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agencyhub_onboarding_rollbacks_total",
			Help: "Compensating agency deletions after a failed client insert, by outcome (success, failure, agency_kept)",
		}, []string{"outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agencyhub_agency_operation_duration_seconds",
			Help:    "Duration of agency and client service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementOnboarded records one agency and its n clients.
func (m *Metrics) IncrementOnboarded(clients int) {
	m.AgenciesOnboarded.Inc()
	m.ClientsCreated.Add(float64(clients))
}

func (m *Metrics) IncrementRollback(outcome string) {
	m.Rollbacks.WithLabelValues(outcome).Inc()
}

// ObserveOperation records the duration of op. Call with time.Now() at the start.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
