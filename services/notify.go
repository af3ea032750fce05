package services

import (
	"fmt"
	"os"
	"strings"
	"time"

	"fleetmonitor/db"
	"fleetmonitor/logger"
	"fleetmonitor/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// NotifyAlert sends best-effort notifications for a freshly created alert.
// The alert row is already committed; delivery failures are logged and
// swallowed. Called in a goroutine by the evaluator.
func NotifyAlert(alert models.Alert, rule models.Rule) {
	log := logger.WithComponent("notify")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("notify panicked")
		}
	}()

	var agentName string
	if err := db.GetDB().QueryRow("SELECT name FROM agents WHERE id = $1", alert.AgentID).Scan(&agentName); err != nil {
		agentName = alert.AgentID
	}

	go SendSlackAlert(agentName, rule, alert)

	apiKey := os.Getenv("SENDGRID_API_KEY")
	alertEmail := os.Getenv("ALERT_EMAIL")
	if apiKey == "" || alertEmail == "" {
		log.Debug().Msg("missing SendGrid config, skipping email")
		return
	}

	subject := fmt.Sprintf("[%s] %s triggered on %s",
		strings.ToUpper(rule.Severity), rule.Name, agentName)

	plainTextContent := fmt.Sprintf(`%s

AGENT: %s
RULE: %s (%s %g, severity %s)
METRIC: %s
VALUE: %g
TIME: %s

%s

---
Alert ID: %s`,
		subject,
		agentName,
		rule.Name,
		models.OperatorLabel(rule.Condition),
		rule.Threshold,
		rule.Severity,
		rule.MetricName,
		alert.Value,
		alert.CreatedAt.Format(time.RFC3339),
		alert.Message,
		alert.ID,
	)

	from := mail.NewEmail("FleetMonitor", alertEmail)
	to := mail.NewEmail("Admin", alertEmail)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, plainTextContent)
	client := sendgrid.NewSendClient(apiKey)

	response, err := client.Send(message)
	if err != nil {
		log.Error().Err(err).Msg("error sending alert email")
	} else {
		log.Info().Int("status", response.StatusCode).Msg("alert email sent")
	}
}
