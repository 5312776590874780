package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arklim/taskboard-auth/internal/core/port"
)

// CredentialMetrics counts credential operation outcomes.
type CredentialMetrics struct {
	Outcomes *prometheus.CounterVec
}

// NewCredentialMetrics registers the outcome counter with reg, reusing an existing one if present.
func NewCredentialMetrics(reg prometheus.Registerer, namespace string) (*CredentialMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "taskboard_auth"
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "credentials",
		Name:      "operations_total",
		Help:      "Credential operations partitioned by operation and outcome.",
	}, []string{"operation", "outcome"})

	if err := reg.Register(outcomes); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, fmt.Errorf("register credential outcomes collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("existing credential outcomes collector has unexpected type %T", already.ExistingCollector)
		}
		outcomes = existing
	}

	return &CredentialMetrics{Outcomes: outcomes}, nil
}

// RecordOutcome implements port.OutcomeRecorder.
func (m *CredentialMetrics) RecordOutcome(operation, outcome string) {
	if m == nil || m.Outcomes == nil {
		return
	}
	m.Outcomes.WithLabelValues(operation, outcome).Inc()
}

var _ port.OutcomeRecorder = (*CredentialMetrics)(nil)
