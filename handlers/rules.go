package handlers

import (
	"database/sql"
	"net/http"

	"fleetmonitor/db"
	"fleetmonitor/models"
	"fleetmonitor/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ruleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MetricName  string   `json:"metric_name"`
	Condition   string   `json:"condition"`
	Threshold   *float64 `json:"threshold"`
	Severity    string   `json:"severity"`
	Enabled     *bool    `json:"enabled"`
}

func (r ruleInput) validate() string {
	if r.Name == "" {
		return "name is required"
	}
	if r.MetricName == "" {
		return "metric_name is required"
	}
	if !models.ValidOperator(r.Condition) {
		return "Invalid condition. Must be gt, lt, eq or ne"
	}
	if r.Threshold == nil {
		return "threshold is required"
	}
	if !models.ValidSeverity(r.Severity) {
		return "Invalid severity. Must be low, medium, high or critical"
	}
	return ""
}

func CreateRule(c *gin.Context) {
	var req ruleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	rule := models.Rule{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		MetricName:  req.MetricName,
		Condition:   req.Condition,
		Threshold:   *req.Threshold,
		Severity:    req.Severity,
		Enabled:     enabled,
	}

	err := db.GetDB().QueryRow(`
		INSERT INTO rules (id, name, description, metric_name, condition, threshold, severity, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, rule.ID, rule.Name, rule.Description, rule.MetricName, rule.Condition,
		rule.Threshold, rule.Severity, rule.Enabled).
		Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

const ruleColumns = `id, name, description, metric_name, condition, threshold, severity, enabled, created_at, updated_at`

func scanRule(row interface{ Scan(...interface{}) error }) (models.Rule, error) {
	var r models.Rule
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.MetricName, &r.Condition,
		&r.Threshold, &r.Severity, &r.Enabled, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func ListRules(c *gin.Context) {
	rows, err := db.GetDB().Query(`SELECT ` + ruleColumns + ` FROM rules ORDER BY created_at DESC`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	defer rows.Close()

	rules := []models.Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			continue
		}
		rules = append(rules, r)
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

func GetRule(c *gin.Context) {
	id := c.Param("id")

	r, err := scanRule(db.GetDB().QueryRow(`SELECT `+ruleColumns+` FROM rules WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, r)
}

func UpdateRule(c *gin.Context) {
	id := c.Param("id")

	var req ruleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	r, err := scanRule(db.GetDB().QueryRow(`
		UPDATE rules
		SET name = $2, description = $3, metric_name = $4, condition = $5,
			threshold = $6, severity = $7, enabled = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING `+ruleColumns,
		id, req.Name, req.Description, req.MetricName, req.Condition,
		*req.Threshold, req.Severity, enabled))

	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, r)
}

func DeleteRule(c *gin.Context) {
	id := c.Param("id")
	res, err := db.GetDB().Exec("DELETE FROM rules WHERE id = $1", id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}

// EvaluateRule runs one rule now against the latest sample of every agent
// reporting its metric and returns the alerts it created or refreshed.
func EvaluateRule(c *gin.Context) {
	id := c.Param("id")

	rule, err := scanRule(db.GetDB().QueryRow(`SELECT `+ruleColumns+` FROM rules WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	alerts, err := services.EvaluateRule(rule)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
