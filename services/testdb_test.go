package services

import (
	"os"
	"testing"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// testDB connects to the scratch database named by TEST_DATABASE_URL, applies
// the schema and truncates all tables. Tests that need Postgres are skipped
// when the variable is unset.
func testDB(t *testing.T) {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	if db.GetDB() == nil {
		require.NoError(t, db.InitDB(connStr))
	}

	schema, err := os.ReadFile("../schema.sql")
	require.NoError(t, err)
	_, err = db.GetDB().Exec(string(schema))
	require.NoError(t, err)

	_, err = db.GetDB().Exec("TRUNCATE agents, agent_metrics, rules, alerts, users CASCADE")
	require.NoError(t, err)
}

func createTestAgent(t *testing.T, name string) models.Agent {
	t.Helper()

	a := models.Agent{ID: uuid.NewString(), Name: name, Status: models.AgentActive}
	_, err := db.GetDB().Exec(`
		INSERT INTO agents (id, name, status, config) VALUES ($1, $2, $3, '{}')
	`, a.ID, a.Name, a.Status)
	require.NoError(t, err)
	return a
}

func setHeartbeat(t *testing.T, agentID string, at time.Time) {
	t.Helper()

	_, err := db.GetDB().Exec("UPDATE agents SET last_heartbeat = $2 WHERE id = $1", agentID, at)
	require.NoError(t, err)
}

func createTestRule(t *testing.T, metricName, condition string, threshold float64, enabled bool) models.Rule {
	t.Helper()

	r := models.Rule{
		ID:         uuid.NewString(),
		Name:       "test rule " + metricName,
		MetricName: metricName,
		Condition:  condition,
		Threshold:  threshold,
		Severity:   models.SeverityHigh,
		Enabled:    enabled,
	}
	_, err := db.GetDB().Exec(`
		INSERT INTO rules (id, name, metric_name, condition, threshold, severity, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.Name, r.MetricName, r.Condition, r.Threshold, r.Severity, r.Enabled)
	require.NoError(t, err)
	return r
}

// insertSampleAt writes a sample with a controlled timestamp, bypassing the
// server-assigned NOW() used by RecordSamples.
func insertSampleAt(t *testing.T, agentID, metricName string, value float64, at time.Time) {
	t.Helper()

	_, err := db.GetDB().Exec(`
		INSERT INTO agent_metrics (id, agent_id, metric_name, metric_value, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), agentID, metricName, value, at)
	require.NoError(t, err)
}

func openAlertCount(t *testing.T, agentID, ruleID string) int {
	t.Helper()

	var n int
	err := db.GetDB().QueryRow(`
		SELECT COUNT(*) FROM alerts
		WHERE agent_id = $1 AND rule_id = $2 AND status IN ('new', 'acknowledged')
	`, agentID, ruleID).Scan(&n)
	require.NoError(t, err)
	return n
}
