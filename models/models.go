package models

import (
	"time"
)

// Agent statuses. An agent's status is declared/derived state; whether it is
// "online" is a separate predicate of its last heartbeat (see OnlineAt).
const (
	AgentActive   = "active"
	AgentInactive = "inactive"
	AgentError    = "error"
)

// OnlineWindow is how recently an agent must have heartbeated to count as online.
const OnlineWindow = 300 * time.Second

type Agent struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Status        string                 `json:"status"`
	IPAddress     string                 `json:"ip_address,omitempty"`
	LastHeartbeat *time.Time             `json:"last_heartbeat"`
	Version       string                 `json:"version"`
	Config        map[string]interface{} `json:"config"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	IsOnline      bool                   `json:"is_online"` // Computed field
}

// OnlineAt reports whether the agent heartbeated within OnlineWindow of now.
// Agents that have never heartbeated are offline.
func (a Agent) OnlineAt(now time.Time) bool {
	if a.LastHeartbeat == nil {
		return false
	}
	return now.Sub(*a.LastHeartbeat) < OnlineWindow
}

type MetricSample struct {
	ID         string    `json:"id"`
	AgentID    string    `json:"agent_id"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"metric_value"`
	Timestamp  time.Time `json:"timestamp"`
}

// Rule operators and their display labels (used in alert messages).
const (
	OpGreaterThan = "gt"
	OpLessThan    = "lt"
	OpEqual       = "eq"
	OpNotEqual    = "ne"
)

var operatorLabels = map[string]string{
	OpGreaterThan: "Greater Than",
	OpLessThan:    "Less Than",
	OpEqual:       "Equals",
	OpNotEqual:    "Not Equals",
}

// OperatorLabel returns the human label for a rule operator, or the operator
// itself if it is unknown.
func OperatorLabel(op string) string {
	if label, ok := operatorLabels[op]; ok {
		return label
	}
	return op
}

// ValidOperator reports whether op is one of the supported comparison operators.
func ValidOperator(op string) bool {
	_, ok := operatorLabels[op]
	return ok
}

// Rule severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ValidSeverity reports whether s is one of the supported severities.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Rule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MetricName  string    `json:"metric_name"`
	Condition   string    `json:"condition"`
	Threshold   float64   `json:"threshold"`
	Severity    string    `json:"severity"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Alert statuses. Lifecycle: new -> acknowledged -> resolved, or new -> resolved.
// Resolved is terminal; a later violation creates a fresh alert row.
const (
	AlertNew          = "new"
	AlertAcknowledged = "acknowledged"
	AlertResolved     = "resolved"
)

type Alert struct {
	ID             string     `json:"id"`
	AgentID        string     `json:"agent_id"`
	RuleID         string     `json:"rule_id"`
	Status         string     `json:"status"`
	Value          float64    `json:"value"`
	Message        string     `json:"message"`
	Notes          string     `json:"notes,omitempty"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ResolvedAt     *time.Time `json:"resolved_at"`

	// Filled by list/dashboard queries for display.
	AgentName string `json:"agent_name,omitempty"`
	RuleName  string `json:"rule_name,omitempty"`
	Severity  string `json:"severity,omitempty"`
}

// Open reports whether the alert still counts against the one-open-alert limit.
func (a Alert) Open() bool {
	return a.Status == AlertNew || a.Status == AlertAcknowledged
}
