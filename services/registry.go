package services

import (
	"fmt"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/logger"
	"fleetmonitor/metrics"
)

// RecordHeartbeat bumps the agent's last-heartbeat to now. The status field is
// left alone; liveness and declared status are independent.
func RecordHeartbeat(agentID string) error {
	res, err := db.GetDB().Exec(`
		UPDATE agents
		SET last_heartbeat = NOW(), updated_at = NOW()
		WHERE id = $1
	`, agentID)
	if err != nil {
		return err
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("agent %s: %w", agentID, ErrNotFound)
	}

	metrics.HeartbeatsTotal.Inc()
	return nil
}

// SweepStaleAgents demotes active agents whose last heartbeat is older than
// timeout to inactive, and returns how many were demoted. A single conditional
// UPDATE, so a heartbeat landing mid-sweep wins the race: its row no longer
// matches the predicate. Agents with no heartbeat at all are left alone.
func SweepStaleAgents(timeout time.Duration) (int64, error) {
	res, err := db.GetDB().Exec(`
		UPDATE agents
		SET status = 'inactive', updated_at = NOW()
		WHERE status = 'active'
		  AND last_heartbeat IS NOT NULL
		  AND last_heartbeat < NOW() - $1 * INTERVAL '1 second'
	`, timeout.Seconds())
	if err != nil {
		return 0, err
	}

	count, _ := res.RowsAffected()
	metrics.AgentsSweptTotal.Add(float64(count))
	return count, nil
}

// RunSweep is the background task body: one sweep pass with logging. Safe to
// call from a scheduler; never panics out.
func RunSweep(timeout time.Duration) {
	log := logger.WithComponent("sweep")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("sweep panicked")
		}
	}()

	count, err := SweepStaleAgents(timeout)
	if err != nil {
		log.Error().Err(err).Msg("sweep failed")
		return
	}
	if count > 0 {
		log.Info().Int64("demoted", count).Msg("stale agents marked inactive")
	}
}
