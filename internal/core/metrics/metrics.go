// Package metrics provides Prometheus instrumentation for the resolver.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/types"
)

// Metrics holds all collectors on a private registry so tests and multiple
// instances never trip duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	Resolutions       *prometheus.CounterVec
	UnknownConditions *prometheus.CounterVec
	MemoHits          *prometheus.CounterVec
	MemoMisses        *prometheus.CounterVec
	ResolveDuration   prometheus.Histogram
	RuleSetUpdates    prometheus.Counter
}

// New creates a metrics collection under the given namespace.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "dynlogic"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolver passes per entity type.",
		}, []string{"entity_type"}),
		UnknownConditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_conditions_total",
			Help:      "Unknown condition types encountered during evaluation (data-quality signal).",
		}, []string{"entity_type", "condition_type"}),
		MemoHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_hits_total",
			Help:      "Resolutions served from the per-entity memo.",
		}, []string{"entity_type"}),
		MemoMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memo_misses_total",
			Help:      "Resolutions that recomputed state.",
		}, []string{"entity_type"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Wall time of one resolver pass.",
			// Resolution is in-memory; sub-millisecond buckets matter.
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		RuleSetUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_set_updates_total",
			Help:      "Admin rule-set writes accepted.",
		}),
	}

	registry.MustRegister(
		m.Resolutions,
		m.UnknownConditions,
		m.MemoHits,
		m.MemoMisses,
		m.ResolveDuration,
		m.RuleSetUpdates,
	)

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ResolverHooks wires resolver observations into the collectors.
func (m *Metrics) ResolverHooks() logic.Hooks {
	return logic.Hooks{
		UnknownType: func(entityType types.EntityType, conditionType types.ConditionType, _ string) {
			m.UnknownConditions.WithLabelValues(string(entityType), string(conditionType)).Inc()
		},
		MemoHit: func(entityType types.EntityType) {
			m.MemoHits.WithLabelValues(string(entityType)).Inc()
		},
		MemoMiss: func(entityType types.EntityType) {
			m.MemoMisses.WithLabelValues(string(entityType)).Inc()
		},
	}
}
