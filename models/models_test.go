package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAgentOnlineAt(t *testing.T) {
	now := time.Now()

	heartbeatAgo := func(d time.Duration) Agent {
		hb := now.Add(-d)
		return Agent{LastHeartbeat: &hb}
	}

	assert.True(t, heartbeatAgo(0).OnlineAt(now))
	assert.True(t, heartbeatAgo(299*time.Second).OnlineAt(now))
	assert.False(t, heartbeatAgo(300*time.Second).OnlineAt(now))
	assert.False(t, heartbeatAgo(301*time.Second).OnlineAt(now))

	// Never heartbeated means offline, regardless of declared status.
	assert.False(t, Agent{Status: AgentActive}.OnlineAt(now))
}

func TestOperatorLabel(t *testing.T) {
	assert.Equal(t, "Greater Than", OperatorLabel(OpGreaterThan))
	assert.Equal(t, "Less Than", OperatorLabel(OpLessThan))
	assert.Equal(t, "Equals", OperatorLabel(OpEqual))
	assert.Equal(t, "Not Equals", OperatorLabel(OpNotEqual))
	assert.Equal(t, "??", OperatorLabel("??"))
}

func TestValidOperator(t *testing.T) {
	for _, op := range []string{OpGreaterThan, OpLessThan, OpEqual, OpNotEqual} {
		assert.True(t, ValidOperator(op), op)
	}
	assert.False(t, ValidOperator(">"))
	assert.False(t, ValidOperator(""))
}

func TestValidSeverity(t *testing.T) {
	for _, s := range []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		assert.True(t, ValidSeverity(s), s)
	}
	assert.False(t, ValidSeverity("warning"))
}

func TestAlertOpen(t *testing.T) {
	assert.True(t, Alert{Status: AlertNew}.Open())
	assert.True(t, Alert{Status: AlertAcknowledged}.Open())
	assert.False(t, Alert{Status: AlertResolved}.Open())
}
