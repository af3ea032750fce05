package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/models"
	"fleetmonitor/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func RegisterAgent(c *gin.Context) {
	var req struct {
		Name      string                 `json:"name"`
		IPAddress string                 `json:"ip_address"`
		Version   string                 `json:"version"`
		Config    map[string]interface{} `json:"config"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if req.Name == "" || len(req.Name) > 255 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required and must be under 255 chars"})
		return
	}

	if req.Config == nil {
		req.Config = map[string]interface{}{}
	}
	configJSON, _ := json.Marshal(req.Config)

	agent := models.Agent{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Status:    models.AgentInactive,
		IPAddress: req.IPAddress,
		Version:   req.Version,
		Config:    req.Config,
	}

	err := db.GetDB().QueryRow(`
		INSERT INTO agents (id, name, status, ip_address, version, config)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING created_at, updated_at
	`, agent.ID, agent.Name, agent.Status, agent.IPAddress, agent.Version, configJSON).
		Scan(&agent.CreatedAt, &agent.UpdatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "Agent name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register agent"})
		return
	}

	c.JSON(http.StatusCreated, agent)
}

func scanAgentRow(rows interface{ Scan(...interface{}) error }) (models.Agent, error) {
	var a models.Agent
	var ip sql.NullString
	var configRaw []byte
	err := rows.Scan(&a.ID, &a.Name, &a.Status, &ip, &a.LastHeartbeat, &a.Version,
		&configRaw, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return a, err
	}
	a.IPAddress = ip.String
	if len(configRaw) > 0 {
		_ = json.Unmarshal(configRaw, &a.Config)
	}
	a.IsOnline = a.OnlineAt(time.Now())
	return a, nil
}

const agentColumns = `id, name, status, ip_address, last_heartbeat, version, config, created_at, updated_at`

func ListAgents(c *gin.Context) {
	rows, err := db.GetDB().Query(`
		SELECT ` + agentColumns + ` FROM agents ORDER BY name
	`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	agents := []models.Agent{}
	for rows.Next() {
		a, err := scanAgentRow(rows)
		if err != nil {
			continue
		}
		agents = append(agents, a)
	}

	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func GetAgent(c *gin.Context) {
	id := c.Param("id")

	a, err := scanAgentRow(db.GetDB().QueryRow(`
		SELECT `+agentColumns+` FROM agents WHERE id = $1
	`, id))

	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, a)
}

func Heartbeat(c *gin.Context) {
	id := c.Param("id")

	if err := services.RecordHeartbeat(id); err != nil {
		serviceError(c, err, "Failed to record heartbeat")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "heartbeat updated"})
}

func ReportMetrics(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Metrics []services.SampleInput `json:"metrics"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	created, err := services.RecordSamples(id, req.Metrics)
	if err != nil {
		serviceError(c, err, "Failed to save metrics")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"metrics": created})
}

// GetAgentMetrics serves the chart/report feed: samples for one agent within
// the last N hours, optionally one metric name, ascending by time.
func GetAgentMetrics(c *gin.Context) {
	id := c.Param("id")
	metricName := c.Query("metric")

	hours := 1
	if h := c.Query("hours"); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = n
	}

	var exists int
	err := db.GetDB().QueryRow("SELECT 1 FROM agents WHERE id = $1", id).Scan(&exists)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	samples, err := services.QueryRange(id, metricName, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if samples == nil {
		samples = []models.MetricSample{}
	}

	c.JSON(http.StatusOK, gin.H{"metrics": samples})
}
