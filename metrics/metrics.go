package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HeartbeatsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetmon_heartbeats_total",
			Help: "Total number of agent heartbeats recorded",
		},
	)

	SamplesIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetmon_metric_samples_total",
			Help: "Total number of metric samples ingested",
		},
	)

	RuleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetmon_rule_evaluations_total",
			Help: "Total number of rule evaluations",
		},
		[]string{"result"}, // triggered, clean, skipped
	)

	AlertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetmon_alerts_created_total",
			Help: "Total number of alerts created",
		},
		[]string{"severity"},
	)

	AlertsUpdatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetmon_alerts_updated_total",
			Help: "Total number of open alerts refreshed in place by evaluation",
		},
	)

	AlertTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetmon_alert_transitions_total",
			Help: "Total number of alert state transitions",
		},
		[]string{"to"}, // acknowledged, resolved
	)

	AgentsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetmon_agents_swept_total",
			Help: "Total number of stale agents demoted to inactive by the sweep",
		},
	)
)
