package graph

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/graphflow/internal/runtime/entity"
)

// Metrics tracks discovery statistics: how many tokens were observed
// with which outcome, and how many entities are currently live per kind.
type Metrics struct {
	mu sync.Mutex

	tokensTotal     *prometheus.CounterVec
	entitiesCurrent *prometheus.GaugeVec

	registerer prometheus.Registerer
	registered bool
}

// Token observation outcomes used as the "result" label.
const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
	resultRemoved  = "removed"
)

// newGraphCounterVec creates a counter vec in the graphflow/graph namespace.
func newGraphCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "graphflow",
			Subsystem: "graph",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// newGraphGaugeVec creates a gauge vec in the graphflow/graph namespace.
func newGraphGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "graphflow",
			Subsystem: "graph",
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

// NewMetrics creates a metrics collector. A nil registerer falls back
// to the Prometheus default registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		registerer:      registerer,
		tokensTotal:     newGraphCounterVec("tokens_total", "Total number of liveliness tokens observed, by outcome", []string{"result"}),
		entitiesCurrent: newGraphGaugeVec("entities_current", "Current number of live graph entities, by kind", []string{"kind"}),
	}
}

// Register registers the Prometheus collectors. Safe to call multiple
// times, and safe across instances: if a collector with the same name
// is already registered, the existing one is adopted so increments
// from this instance stay visible to scrapes.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}
	if err := m.registerer.Register(m.tokensTotal); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		m.tokensTotal = are.ExistingCollector.(*prometheus.CounterVec)
	}
	if err := m.registerer.Register(m.entitiesCurrent); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		m.entitiesCurrent = are.ExistingCollector.(*prometheus.GaugeVec)
	}
	m.registered = true
	return nil
}

// TokenRejected counts a token that failed to parse.
func (m *Metrics) TokenRejected() {
	m.tokensTotal.WithLabelValues(resultRejected).Inc()
}

func (m *Metrics) entityAdded(kind entity.Kind) {
	m.tokensTotal.WithLabelValues(resultAccepted).Inc()
	m.entitiesCurrent.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) entityRemoved(kind entity.Kind) {
	m.tokensTotal.WithLabelValues(resultRemoved).Inc()
	m.entitiesCurrent.WithLabelValues(kind.String()).Dec()
}
