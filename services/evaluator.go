package services

import (
	"fleetmonitor/logger"
	"fleetmonitor/metrics"
	"fleetmonitor/models"
)

// EvaluateRule checks the latest sample of every agent reporting the rule's
// metric and upserts an open alert for each violation. Disabled rules are a
// no-op here, not in the caller.
//
// Evaluation only ever triggers; a sample that no longer violates the rule
// does not resolve anything. Resolution is an explicit operator action.
func EvaluateRule(rule models.Rule) ([]models.Alert, error) {
	if !rule.Enabled {
		metrics.RuleEvaluationsTotal.WithLabelValues("skipped").Inc()
		return []models.Alert{}, nil
	}

	log := logger.WithComponent("evaluator")

	samples, err := LatestPerAgent(rule.MetricName)
	if err != nil {
		return nil, err
	}

	var touched []models.Alert
	for _, sample := range samples {
		if !Compare(sample.Value, rule.Condition, rule.Threshold) {
			continue
		}

		message := TriggerMessage(rule, sample.Value)
		alert, created, err := UpsertOpenAlert(sample.AgentID, rule.ID, sample.Value, message)
		if err != nil {
			return nil, err
		}
		touched = append(touched, alert)

		if created {
			metrics.AlertsCreatedTotal.WithLabelValues(rule.Severity).Inc()
			log.Info().
				Str("rule", rule.Name).
				Str("agent_id", sample.AgentID).
				Float64("value", sample.Value).
				Msg("alert created")
			go NotifyAlert(alert, rule)
		}
	}

	if len(touched) > 0 {
		metrics.RuleEvaluationsTotal.WithLabelValues("triggered").Inc()
	} else {
		metrics.RuleEvaluationsTotal.WithLabelValues("clean").Inc()
	}

	if touched == nil {
		touched = []models.Alert{}
	}
	return touched, nil
}
