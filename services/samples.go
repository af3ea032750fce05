package services

import (
	"database/sql"
	"fmt"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/metrics"
	"fleetmonitor/models"

	"github.com/google/uuid"
)

// SampleInput is one reported metric observation before it is persisted.
type SampleInput struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// RecordSamples appends a batch of samples for one agent in a single
// transaction, with server-assigned timestamps. Values are not sanity-checked
// beyond shape: deciding whether a value is alarming is the rule engine's job.
func RecordSamples(agentID string, inputs []SampleInput) ([]models.MetricSample, error) {
	for _, in := range inputs {
		if in.Name == "" {
			return nil, fmt.Errorf("sample name is required: %w", ErrValidation)
		}
	}

	var exists int
	err := db.GetDB().QueryRow("SELECT 1 FROM agents WHERE id = $1", agentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	tx, err := db.GetDB().Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created := make([]models.MetricSample, 0, len(inputs))
	for _, in := range inputs {
		s := models.MetricSample{
			ID:         uuid.NewString(),
			AgentID:    agentID,
			MetricName: in.Name,
			Value:      in.Value,
		}
		err := tx.QueryRow(`
			INSERT INTO agent_metrics (id, agent_id, metric_name, metric_value)
			VALUES ($1, $2, $3, $4)
			RETURNING timestamp
		`, s.ID, s.AgentID, s.MetricName, s.Value).Scan(&s.Timestamp)
		if err != nil {
			return nil, err
		}
		created = append(created, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	metrics.SamplesIngestedTotal.Add(float64(len(created)))
	return created, nil
}

// LatestPerAgent returns, for every agent that has ever reported metricName,
// only its most recent sample. DISTINCT ON rides the
// (metric_name, agent_id, timestamp) index, so cost scales with agents rather
// than with history.
func LatestPerAgent(metricName string) ([]models.MetricSample, error) {
	rows, err := db.GetDB().Query(`
		SELECT DISTINCT ON (agent_id) id, agent_id, metric_name, metric_value, timestamp
		FROM agent_metrics
		WHERE metric_name = $1
		ORDER BY agent_id, timestamp DESC
	`, metricName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.MetricSample
	for rows.Next() {
		var s models.MetricSample
		if err := rows.Scan(&s.ID, &s.AgentID, &s.MetricName, &s.Value, &s.Timestamp); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// QueryRange returns an agent's samples since a point in time, ascending by
// timestamp, optionally restricted to one metric name. Read-only feed for
// charts and reports.
func QueryRange(agentID, metricName string, since time.Time) ([]models.MetricSample, error) {
	query := `
		SELECT id, agent_id, metric_name, metric_value, timestamp
		FROM agent_metrics
		WHERE agent_id = $1 AND timestamp >= $2
	`
	args := []interface{}{agentID, since}
	if metricName != "" {
		query += " AND metric_name = $3"
		args = append(args, metricName)
	}
	query += " ORDER BY timestamp ASC"

	rows, err := db.GetDB().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.MetricSample
	for rows.Next() {
		var s models.MetricSample
		if err := rows.Scan(&s.ID, &s.AgentID, &s.MetricName, &s.Value, &s.Timestamp); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
