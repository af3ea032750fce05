package handlers

import (
	"net/http"

	"fleetmonitor/models"
	"fleetmonitor/services"

	"github.com/gin-gonic/gin"
)

func ListAlerts(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != models.AlertNew && status != models.AlertAcknowledged && status != models.AlertResolved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}
	severity := c.Query("severity")
	if severity != "" && !models.ValidSeverity(severity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid severity filter"})
		return
	}

	alerts, err := services.ListAlerts(services.AlertFilter{
		AgentID:  c.Query("agent_id"),
		Status:   status,
		Severity: severity,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// actorIdentity resolves who is acting: the authenticated user when auth is
// on, otherwise an explicit actor field in the body. Never invented.
func actorIdentity(c *gin.Context, bodyActor string) string {
	if email, ok := c.Get("userEmail"); ok {
		if s, ok := email.(string); ok && s != "" {
			return s
		}
	}
	return bodyActor
}

func AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Actor string `json:"actor"`
	}
	// Body is optional when the JWT supplies the identity.
	_ = c.ShouldBindJSON(&req)

	actor := actorIdentity(c, req.Actor)
	if actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor is required"})
		return
	}

	alert, err := services.Acknowledge(id, actor)
	if err != nil {
		serviceError(c, err, "Failed to acknowledge alert")
		return
	}

	c.JSON(http.StatusOK, alert)
}

func ResolveAlert(c *gin.Context) {
	id := c.Param("id")

	alert, err := services.Resolve(id)
	if err != nil {
		serviceError(c, err, "Failed to resolve alert")
		return
	}

	c.JSON(http.StatusOK, alert)
}

type bulkRequest struct {
	IDs   []string `json:"ids"`
	Actor string   `json:"actor"`
}

func BulkAcknowledgeAlerts(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	actor := actorIdentity(c, req.Actor)
	if actor == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor is required"})
		return
	}

	count, err := services.BulkAcknowledge(req.IDs, actor)
	if err != nil {
		serviceError(c, err, "Failed to acknowledge alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": count})
}

func BulkResolveAlerts(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	count, err := services.BulkResolve(req.IDs)
	if err != nil {
		serviceError(c, err, "Failed to resolve alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": count})
}
