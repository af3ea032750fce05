package handlers

import (
	"net/http"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/models"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns the aggregate view behind the operator landing page:
// agent counts by status and liveness, alert counts by status, and the ten
// most recent alerts.
func GetDashboard(c *gin.Context) {
	dbConn := db.GetDB()

	var agents struct {
		Total    int `json:"total"`
		Online   int `json:"online"`
		Active   int `json:"active"`
		Inactive int `json:"inactive"`
		Error    int `json:"error"`
	}

	_ = dbConn.QueryRow("SELECT COUNT(*) FROM agents").Scan(&agents.Total)
	_ = dbConn.QueryRow("SELECT COUNT(*) FROM agents WHERE status = 'active'").Scan(&agents.Active)
	_ = dbConn.QueryRow("SELECT COUNT(*) FROM agents WHERE status = 'inactive'").Scan(&agents.Inactive)
	_ = dbConn.QueryRow("SELECT COUNT(*) FROM agents WHERE status = 'error'").Scan(&agents.Error)

	// Online is a liveness predicate, independent of declared status.
	_ = dbConn.QueryRow(`
		SELECT COUNT(*) FROM agents
		WHERE last_heartbeat IS NOT NULL
		  AND last_heartbeat > NOW() - $1 * INTERVAL '1 second'
	`, models.OnlineWindow.Seconds()).Scan(&agents.Online)

	var alerts struct {
		Total        int           `json:"total"`
		New          int           `json:"new"`
		Acknowledged int           `json:"acknowledged"`
		Resolved     int           `json:"resolved"`
		Latest       []latestAlert `json:"latest"`
	}

	_ = dbConn.QueryRow("SELECT COUNT(*) FROM alerts").Scan(&alerts.Total)
	_ = dbConn.QueryRow("SELECT COUNT(*) FROM alerts WHERE status = 'new'").Scan(&alerts.New)
	_ = dbConn.QueryRow("SELECT COUNT(*) FROM alerts WHERE status = 'acknowledged'").Scan(&alerts.Acknowledged)
	_ = dbConn.QueryRow("SELECT COUNT(*) FROM alerts WHERE status = 'resolved'").Scan(&alerts.Resolved)

	alerts.Latest = []latestAlert{}
	rows, err := dbConn.Query(`
		SELECT a.id, ag.name, r.name, r.severity, a.value, a.status, a.created_at
		FROM alerts a
		JOIN agents ag ON ag.id = a.agent_id
		JOIN rules r ON r.id = a.rule_id
		ORDER BY a.created_at DESC
		LIMIT 10
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var la latestAlert
			var createdAt time.Time
			if err := rows.Scan(&la.ID, &la.Agent, &la.Rule, &la.Severity, &la.Value, &la.Status, &createdAt); err != nil {
				continue
			}
			la.CreatedAt = createdAt.Format("2006-01-02 15:04:05")
			alerts.Latest = append(alerts.Latest, la)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"agents": agents,
		"alerts": alerts,
	})
}

type latestAlert struct {
	ID        string  `json:"id"`
	Agent     string  `json:"agent"`
	Rule      string  `json:"rule"`
	Severity  string  `json:"severity"`
	Value     float64 `json:"value"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
}
