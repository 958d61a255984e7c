package production

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/safetychart"
)

const (
	namespace = "safetychart"
)

// Metrics exports transition counters and the current top state.
type Metrics struct {
	transitions *prometheus.CounterVec
	faults      prometheus.Counter
	topState    *prometheus.GaugeVec
}

var _ safetychart.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors on reg. A nil reg registers on the
// default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	m := &Metrics{
		transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Total number of applied transitions",
			},
			[]string{"from", "to", "event"},
		),
		faults: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "faults_total",
				Help:      "Total number of transitions into Faulted",
			},
		),
		topState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "top_state",
				Help:      "Current top state (1=current, 0=not current)",
			},
			[]string{"state"},
		),
	}
	m.setTop(safetychart.Idle)
	return m
}

func (m *Metrics) OnTransition(t safetychart.Transition) {
	m.transitions.WithLabelValues(t.From.String(), t.To.String(), t.Event.String()).Inc()
	if t.To.Top == safetychart.Faulted {
		m.faults.Inc()
	}
	m.setTop(t.To.Top)
}

func (m *Metrics) setTop(cur safetychart.TopState) {
	for _, s := range safetychart.TopStates() {
		v := 0.0
		if s == cur {
			v = 1
		}
		m.topState.WithLabelValues(s.String()).Set(v)
	}
}
