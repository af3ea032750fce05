package config

import (
	"os"
	"strconv"
)

type Config struct {
	DatabaseURL string
	Port        string

	AuthEnabled  bool
	JWTSecret    string
	APITokenFile string

	SweepIntervalSeconds int
	AgentTimeoutSeconds  int

	SendGridAPIKey  string
	AlertEmail      string
	SlackWebhookURL string

	LogLevel string
	LogFile  string
}

func Load() Config {
	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        envOr("PORT", "8080"),

		AuthEnabled:  os.Getenv("AUTH_ENABLED") == "true",
		JWTSecret:    os.Getenv("JWT_SECRET"),
		APITokenFile: envOr("API_TOKEN_FILE", "api_token.json"),

		SweepIntervalSeconds: envInt("SWEEP_INTERVAL_SECONDS", 60),
		AgentTimeoutSeconds:  envInt("AGENT_TIMEOUT_SECONDS", 300),

		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		AlertEmail:      os.Getenv("ALERT_EMAIL"),
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
