package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"fleetmonitor/logger"
	"fleetmonitor/models"
)

// SendSlackAlert posts a new alert to the configured Slack webhook.
// Fire-and-forget: any failure is logged, never propagated.
func SendSlackAlert(agentName string, rule models.Rule, alert models.Alert) {
	log := logger.WithComponent("slack")

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("slack notify panicked")
		}
	}()

	webhookURL := os.Getenv("SLACK_WEBHOOK_URL")
	if webhookURL == "" {
		log.Debug().Msg("slack skipped: SLACK_WEBHOOK_URL not set")
		return
	}

	payload := map[string]string{
		"text": fmt.Sprintf("🚨 Fleet Alert [%s]\n\nAgent: %s\nRule: %s\nTime: %s\n\n%s\n\nAlert ID: %s",
			rule.Severity,
			agentName,
			rule.Name,
			alert.CreatedAt.Format(time.RFC3339),
			alert.Message,
			alert.ID,
		),
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("error marshaling slack payload")
		return
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(jsonPayload))
	if err != nil {
		log.Error().Err(err).Msg("error sending slack request")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Error().Int("status", resp.StatusCode).Msg("slack API error")
	}
}
