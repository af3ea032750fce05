package services

import (
	"database/sql"
	"fmt"

	"fleetmonitor/db"
	"fleetmonitor/metrics"
	"fleetmonitor/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const alertColumns = `id, agent_id, rule_id, status, value, message,
	COALESCE(notes, ''), COALESCE(acknowledged_by, ''),
	created_at, updated_at, resolved_at`

func scanAlert(row interface{ Scan(...interface{}) error }) (models.Alert, error) {
	var a models.Alert
	err := row.Scan(&a.ID, &a.AgentID, &a.RuleID, &a.Status, &a.Value, &a.Message,
		&a.Notes, &a.AcknowledgedBy, &a.CreatedAt, &a.UpdatedAt, &a.ResolvedAt)
	return a, err
}

// UpsertOpenAlert refreshes the open alert for (agent, rule) in place, or
// creates one with status=new if none is open. The returned bool is true when
// a row was created.
//
// Atomicity: the update-then-insert pair is not wrapped in a lock. Instead the
// partial unique index on open (agent_id, rule_id) pairs makes the insert the
// arbiter: if two evaluators race past the update, one insert fails with a
// unique violation and that loser retries the update against the winner's row.
func UpsertOpenAlert(agentID, ruleID string, value float64, message string) (models.Alert, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		alert, err := scanAlert(db.GetDB().QueryRow(`
			UPDATE alerts
			SET value = $3, message = $4, updated_at = NOW()
			WHERE agent_id = $1 AND rule_id = $2 AND status IN ('new', 'acknowledged')
			RETURNING `+alertColumns,
			agentID, ruleID, value, message))
		if err == nil {
			metrics.AlertsUpdatedTotal.Inc()
			return alert, false, nil
		}
		if err != sql.ErrNoRows {
			return models.Alert{}, false, err
		}

		alert, err = scanAlert(db.GetDB().QueryRow(`
			INSERT INTO alerts (id, agent_id, rule_id, status, value, message)
			VALUES ($1, $2, $3, 'new', $4, $5)
			RETURNING `+alertColumns,
			uuid.NewString(), agentID, ruleID, value, message))
		if err == nil {
			return alert, true, nil
		}
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Lost the race to a concurrent evaluator; update its row.
			continue
		}
		return models.Alert{}, false, err
	}
	return models.Alert{}, false, fmt.Errorf("upsert open alert for agent %s rule %s did not converge", agentID, ruleID)
}

// Acknowledge moves an alert to acknowledged and records who did it.
// Re-acknowledging is idempotent; acknowledging a resolved alert is a Conflict.
func Acknowledge(alertID, actor string) (models.Alert, error) {
	if actor == "" {
		return models.Alert{}, fmt.Errorf("acknowledging identity is required: %w", ErrValidation)
	}

	alert, err := scanAlert(db.GetDB().QueryRow(`
		UPDATE alerts
		SET status = 'acknowledged', acknowledged_by = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('new', 'acknowledged')
		RETURNING `+alertColumns,
		alertID, actor))
	if err == nil {
		metrics.AlertTransitionsTotal.WithLabelValues(models.AlertAcknowledged).Inc()
		return alert, nil
	}
	if err != sql.ErrNoRows {
		return models.Alert{}, err
	}

	if _, err := GetAlert(alertID); err != nil {
		return models.Alert{}, err
	}
	return models.Alert{}, fmt.Errorf("alert %s is resolved: %w", alertID, ErrConflict)
}

// Resolve closes an alert. Resolving one that is already resolved is a no-op
// success so bulk callers and retries stay quiet.
func Resolve(alertID string) (models.Alert, error) {
	alert, err := scanAlert(db.GetDB().QueryRow(`
		UPDATE alerts
		SET status = 'resolved', resolved_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status IN ('new', 'acknowledged')
		RETURNING `+alertColumns,
		alertID))
	if err == nil {
		metrics.AlertTransitionsTotal.WithLabelValues(models.AlertResolved).Inc()
		return alert, nil
	}
	if err != sql.ErrNoRows {
		return models.Alert{}, err
	}

	// Already terminal, or gone. GetAlert distinguishes the two.
	return GetAlert(alertID)
}

// GetAlert fetches one alert by id.
func GetAlert(alertID string) (models.Alert, error) {
	alert, err := scanAlert(db.GetDB().QueryRow(`
		SELECT `+alertColumns+` FROM alerts WHERE id = $1
	`, alertID))
	if err == sql.ErrNoRows {
		return models.Alert{}, fmt.Errorf("alert %s: %w", alertID, ErrNotFound)
	}
	return alert, err
}

// BulkAcknowledge acknowledges every listed alert still in status new, skipping
// the rest, and returns how many rows actually changed.
func BulkAcknowledge(alertIDs []string, actor string) (int64, error) {
	if actor == "" {
		return 0, fmt.Errorf("acknowledging identity is required: %w", ErrValidation)
	}
	res, err := db.GetDB().Exec(`
		UPDATE alerts
		SET status = 'acknowledged', acknowledged_by = $2, updated_at = NOW()
		WHERE id = ANY($1) AND status = 'new'
	`, pq.Array(alertIDs), actor)
	if err != nil {
		return 0, err
	}
	count, _ := res.RowsAffected()
	metrics.AlertTransitionsTotal.WithLabelValues(models.AlertAcknowledged).Add(float64(count))
	return count, nil
}

// BulkResolve resolves every listed alert still open, skipping the rest, and
// returns how many rows actually changed.
func BulkResolve(alertIDs []string) (int64, error) {
	res, err := db.GetDB().Exec(`
		UPDATE alerts
		SET status = 'resolved', resolved_at = NOW(), updated_at = NOW()
		WHERE id = ANY($1) AND status IN ('new', 'acknowledged')
	`, pq.Array(alertIDs))
	if err != nil {
		return 0, err
	}
	count, _ := res.RowsAffected()
	metrics.AlertTransitionsTotal.WithLabelValues(models.AlertResolved).Add(float64(count))
	return count, nil
}

// AlertFilter narrows ListAlerts. Empty fields are ignored; set fields are
// AND-combined.
type AlertFilter struct {
	AgentID  string
	Status   string
	Severity string
}

// ListAlerts returns alerts newest-first, joined with agent and rule display
// fields.
func ListAlerts(filter AlertFilter) ([]models.Alert, error) {
	query := `
		SELECT a.id, a.agent_id, a.rule_id, a.status, a.value, a.message,
			COALESCE(a.notes, ''), COALESCE(a.acknowledged_by, ''),
			a.created_at, a.updated_at, a.resolved_at,
			ag.name, r.name, r.severity
		FROM alerts a
		JOIN agents ag ON ag.id = a.agent_id
		JOIN rules r ON r.id = a.rule_id
		WHERE 1=1
	`
	var args []interface{}
	if filter.AgentID != "" {
		args = append(args, filter.AgentID)
		query += fmt.Sprintf(" AND a.agent_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		query += fmt.Sprintf(" AND r.severity = $%d", len(args))
	}
	query += " ORDER BY a.created_at DESC"

	rows, err := db.GetDB().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		err := rows.Scan(&a.ID, &a.AgentID, &a.RuleID, &a.Status, &a.Value, &a.Message,
			&a.Notes, &a.AcknowledgedBy, &a.CreatedAt, &a.UpdatedAt, &a.ResolvedAt,
			&a.AgentName, &a.RuleName, &a.Severity)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
