package services

import (
	"fmt"

	"fleetmonitor/models"
)

// Compare applies a rule operator to a sample value. Equality is literal
// float64 equality, not epsilon-tolerant: eq/ne rules against non-integral
// thresholds will rarely fire, which is the documented behavior.
func Compare(value float64, operator string, threshold float64) bool {
	switch operator {
	case models.OpGreaterThan:
		return value > threshold
	case models.OpLessThan:
		return value < threshold
	case models.OpEqual:
		return value == threshold
	case models.OpNotEqual:
		return value != threshold
	}
	return false
}

// TriggerMessage builds the human-readable message stored on an alert.
func TriggerMessage(rule models.Rule, value float64) string {
	return fmt.Sprintf("Metric %s with value %g triggered rule '%s' (%s %g)",
		rule.MetricName, value, rule.Name, models.OperatorLabel(rule.Condition), rule.Threshold)
}
