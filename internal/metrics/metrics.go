// Package metrics counts statements and schema heals for the CRM stores.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Statement kinds.
const (
	KindExecute = "execute"
	KindQuery   = "query"
)

// Statement outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector holds the store counters. A nil *Collector is valid and
// records nothing, so callers never need to check before observing.
type Collector struct {
	// Statements counts facade statements by kind and outcome.
	Statements *prometheus.CounterVec

	// RelationsCreated counts relations the Guardian had to create.
	RelationsCreated *prometheus.CounterVec
}

// NewCollector creates the counters and registers them on reg.
// Pass prometheus.DefaultRegisterer for process-wide metrics, or a fresh
// prometheus.NewRegistry() in tests.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		Statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crmstore",
				Name:      "statements_total",
				Help:      "Total number of statements run through the query facade",
			},
			[]string{"kind", "outcome"},
		),
		RelationsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crmstore",
				Name:      "relations_created_total",
				Help:      "Total number of catalog relations created on store open",
			},
			[]string{"relation"},
		),
	}

	for _, col := range []prometheus.Collector{c.Statements, c.RelationsCreated} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveStatement records one facade statement.
func (c *Collector) ObserveStatement(kind string, err error) {
	if c == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	c.Statements.WithLabelValues(kind, outcome).Inc()
}

// RelationCreated records a relation created by the Guardian.
func (c *Collector) RelationCreated(relation string) {
	if c == nil {
		return
	}
	c.RelationsCreated.WithLabelValues(relation).Inc()
}
