package observability

import (
	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the chatsim collectors.
type Metrics struct {
	TurnsRevealed   *prometheus.CounterVec
	Intents         *prometheus.CounterVec
	Supersedes      *prometheus.CounterVec
	ActionsIgnored  *prometheus.CounterVec
	Reconciliations prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsRevealed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatsim_turns_revealed_total",
				Help: "Total number of scripted turns revealed",
			},
			[]string{"mode"},
		),
		Intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatsim_intents_total",
				Help: "Total number of navigation intents emitted",
			},
			[]string{"kind"},
		),
		Supersedes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatsim_supersedes_total",
				Help: "Total number of message rewrites",
			},
			[]string{"reason"},
		),
		ActionsIgnored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatsim_actions_ignored_total",
				Help: "Total number of inputs dropped as unknown",
			},
			[]string{"reason"},
		),
		Reconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatsim_reconciliations_total",
			Help: "Total number of external returns folded into a conversation",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatsim_active_sessions",
			Help: "Number of mounted sessions",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.TurnsRevealed,
			m.Intents,
			m.Supersedes,
			m.ActionsIgnored,
			m.Reconciliations,
			m.ActiveSessions,
		)
	}
	return m
}

// Hooks returns lifecycle hooks that record events into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvent: m.record,
	}
}

func (m *Metrics) record(e domain.Event) {
	switch e.Type {
	case domain.EventTurnRevealed:
		m.TurnsRevealed.WithLabelValues(string(e.Mode)).Inc()
	case domain.EventIntent:
		if e.Intent != nil {
			m.Intents.WithLabelValues(string(e.Intent.Kind)).Inc()
		}
	case domain.EventSuperseded:
		m.Supersedes.WithLabelValues(e.Reason).Inc()
	case domain.EventActionIgnored:
		m.ActionsIgnored.WithLabelValues(e.Reason).Inc()
	case domain.EventReconciled:
		m.Reconciliations.Inc()
	case domain.EventSessionMounted:
		m.ActiveSessions.Inc()
	case domain.EventSessionClosed:
		m.ActiveSessions.Dec()
	}
}
