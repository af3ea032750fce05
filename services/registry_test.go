package services

import (
	"errors"
	"testing"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHeartbeat(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "hb-agent")
	require.NoError(t, RecordHeartbeat(agent.ID))

	var hb *time.Time
	require.NoError(t, db.GetDB().QueryRow(
		"SELECT last_heartbeat FROM agents WHERE id = $1", agent.ID).Scan(&hb))
	require.NotNil(t, hb)
	assert.WithinDuration(t, time.Now(), *hb, 5*time.Second)
}

func TestRecordHeartbeatUnknownAgent(t *testing.T) {
	testDB(t)

	err := RecordHeartbeat("00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func agentStatus(t *testing.T, id string) string {
	t.Helper()
	var s string
	require.NoError(t, db.GetDB().QueryRow("SELECT status FROM agents WHERE id = $1", id).Scan(&s))
	return s
}

func TestSweepStaleAgentsBoundary(t *testing.T) {
	testDB(t)

	fresh := createTestAgent(t, "fresh")
	setHeartbeat(t, fresh.ID, time.Now().Add(-299*time.Second))

	stale := createTestAgent(t, "stale")
	setHeartbeat(t, stale.ID, time.Now().Add(-301*time.Second))

	count, err := SweepStaleAgents(300 * time.Second)
	require.NoError(t, err)

	assert.Equal(t, int64(1), count)
	assert.Equal(t, models.AgentActive, agentStatus(t, fresh.ID))
	assert.Equal(t, models.AgentInactive, agentStatus(t, stale.ID))
}

func TestSweepIgnoresNullHeartbeat(t *testing.T) {
	testDB(t)

	// Active but never heartbeated: the sweep leaves it alone.
	silent := createTestAgent(t, "silent")

	count, err := SweepStaleAgents(300 * time.Second)
	require.NoError(t, err)

	assert.Equal(t, int64(0), count)
	assert.Equal(t, models.AgentActive, agentStatus(t, silent.ID))
}

func TestSweepIgnoresNonActiveStatuses(t *testing.T) {
	testDB(t)

	errored := createTestAgent(t, "errored")
	_, err := db.GetDB().Exec("UPDATE agents SET status = 'error' WHERE id = $1", errored.ID)
	require.NoError(t, err)
	setHeartbeat(t, errored.ID, time.Now().Add(-time.Hour))

	count, err := SweepStaleAgents(300 * time.Second)
	require.NoError(t, err)

	assert.Equal(t, int64(0), count)
	assert.Equal(t, models.AgentError, agentStatus(t, errored.ID))
}
