package services

import (
	"errors"
	"sync"
	"testing"

	"fleetmonitor/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertOpenAlertCreatesThenUpdates(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "A1")
	rule := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)

	first, created, err := UpsertOpenAlert(agent.ID, rule.ID, 95, "m1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.AlertNew, first.Status)
	assert.Equal(t, 95.0, first.Value)

	second, created, err := UpsertOpenAlert(agent.ID, rule.ID, 97, "m2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 97.0, second.Value)
	assert.Equal(t, "m2", second.Message)

	assert.Equal(t, 1, openAlertCount(t, agent.ID, rule.ID))
}

// The open-alert invariant must hold when many evaluators race on the same
// (agent, rule) pair.
func TestUpsertOpenAlertConcurrent(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "A1")
	rule := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			_, _, err := UpsertOpenAlert(agent.ID, rule.ID, v, "race")
			errs <- err
		}(float64(90 + i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, openAlertCount(t, agent.ID, rule.ID))
}

func TestAcknowledge(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "A1")
	rule := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)
	alert, _, err := UpsertOpenAlert(agent.ID, rule.ID, 95, "m")
	require.NoError(t, err)

	acked, err := Acknowledge(alert.ID, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, acked.Status)
	assert.Equal(t, "ops@example.com", acked.AcknowledgedBy)

	// Re-ack is idempotent.
	again, err := Acknowledge(alert.ID, "ops2@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.AlertAcknowledged, again.Status)
}

func TestAcknowledgeRequiresActor(t *testing.T) {
	testDB(t)

	_, err := Acknowledge("whatever", "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestAcknowledgeResolvedConflicts(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "A1")
	rule := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)
	alert, _, err := UpsertOpenAlert(agent.ID, rule.ID, 95, "m")
	require.NoError(t, err)

	_, err = Resolve(alert.ID)
	require.NoError(t, err)

	_, err = Acknowledge(alert.ID, "ops@example.com")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestResolveIsIdempotent(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "A1")
	rule := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)
	alert, _, err := UpsertOpenAlert(agent.ID, rule.ID, 95, "m")
	require.NoError(t, err)

	resolved, err := Resolve(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Second resolve is a no-op success; resolved_at does not move.
	again, err := Resolve(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, again.Status)
	require.NotNil(t, again.ResolvedAt)
	assert.Equal(t, resolved.ResolvedAt.UTC(), again.ResolvedAt.UTC())
}

func TestResolveUnknownAlert(t *testing.T) {
	testDB(t)

	_, err := Resolve("00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBulkOperationsSkipIneligible(t *testing.T) {
	testDB(t)

	agent := createTestAgent(t, "A1")
	r1 := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)
	r2 := createTestRule(t, "memory", models.OpGreaterThan, 90, true)
	r3 := createTestRule(t, "disk", models.OpGreaterThan, 90, true)

	a1, _, err := UpsertOpenAlert(agent.ID, r1.ID, 95, "m")
	require.NoError(t, err)
	a2, _, err := UpsertOpenAlert(agent.ID, r2.ID, 95, "m")
	require.NoError(t, err)
	a3, _, err := UpsertOpenAlert(agent.ID, r3.ID, 95, "m")
	require.NoError(t, err)

	_, err = Resolve(a3.ID)
	require.NoError(t, err)

	// a3 is resolved and skipped; the rest acknowledge.
	count, err := BulkAcknowledge([]string{a1.ID, a2.ID, a3.ID}, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Acknowledged alerts are not eligible for bulk acknowledge again.
	count, err = BulkAcknowledge([]string{a1.ID, a2.ID}, "ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Bulk resolve takes new and acknowledged, skips resolved.
	count, err = BulkResolve([]string{a1.ID, a2.ID, a3.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestListAlertsFilters(t *testing.T) {
	testDB(t)

	a1 := createTestAgent(t, "A1")
	a2 := createTestAgent(t, "A2")
	rule := createTestRule(t, "cpu", models.OpGreaterThan, 90, true)

	al1, _, err := UpsertOpenAlert(a1.ID, rule.ID, 95, "m")
	require.NoError(t, err)
	_, _, err = UpsertOpenAlert(a2.ID, rule.ID, 96, "m")
	require.NoError(t, err)
	_, err = Resolve(al1.ID)
	require.NoError(t, err)

	all, err := ListAlerts(AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byAgent, err := ListAlerts(AlertFilter{AgentID: a1.ID})
	require.NoError(t, err)
	require.Len(t, byAgent, 1)
	assert.Equal(t, "A1", byAgent[0].AgentName)
	assert.Equal(t, models.SeverityHigh, byAgent[0].Severity)

	open, err := ListAlerts(AlertFilter{Status: models.AlertNew})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, a2.ID, open[0].AgentID)

	none, err := ListAlerts(AlertFilter{AgentID: a1.ID, Status: models.AlertNew})
	require.NoError(t, err)
	assert.Empty(t, none)

	bySeverity, err := ListAlerts(AlertFilter{Severity: models.SeverityCritical})
	require.NoError(t, err)
	assert.Empty(t, bySeverity)
}
