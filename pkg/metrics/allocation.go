package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the allocation counters.
const (
	OutcomeOK       = "ok"
	OutcomeConflict = "conflict"
	OutcomeNotFound = "not_found"
	OutcomeNoop     = "noop"
	OutcomeError    = "error"
)

// AllocationMetrics tracks workspace activity.
type AllocationMetrics struct {
	moves        *prometheus.CounterVec
	resets       prometheus.Counter
	saves        *prometheus.CounterVec
	saveDuration prometheus.Histogram
	workspaces   prometheus.Gauge
}

func NewAllocationMetrics(reg prometheus.Registerer) *AllocationMetrics {
	if reg == nil {
		return &AllocationMetrics{}
	}
	m := &AllocationMetrics{
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_moves_total",
			Help:      "Line item moves by outcome.",
		}, []string{"outcome"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_resets_total",
			Help:      "Scenario resets.",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_saves_total",
			Help:      "Scenario saves by outcome.",
		}, []string{"outcome"}),
		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "allocation_save_duration_seconds",
			Help:      "Time spent persisting a scenario snapshot.",
			Buckets:   prometheus.DefBuckets,
		}),
		workspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_workspaces",
			Help:      "Scenarios currently held in memory.",
		}),
	}
	reg.MustRegister(m.moves, m.resets, m.saves, m.saveDuration, m.workspaces)
	return m
}

func (m *AllocationMetrics) IncMove(outcome string) {
	if m == nil || m.moves == nil {
		return
	}
	m.moves.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *AllocationMetrics) IncReset() {
	if m == nil || m.resets == nil {
		return
	}
	m.resets.Inc()
}

func (m *AllocationMetrics) ObserveSave(outcome string, took time.Duration) {
	if m == nil || m.saves == nil {
		return
	}
	m.saves.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.saveDuration.Observe(took.Seconds())
}

func (m *AllocationMetrics) SetOpenWorkspaces(n int) {
	if m == nil || m.workspaces == nil {
		return
	}
	m.workspaces.Set(float64(n))
}
