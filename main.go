package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fleetmonitor/config"
	"fleetmonitor/db"
	"fleetmonitor/handlers"
	"fleetmonitor/logger"
	"fleetmonitor/middleware"
	"fleetmonitor/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

func runMigrations() {
	sqlBytes, err := os.ReadFile("schema.sql")
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to read schema.sql")
	}

	if _, err := db.GetDB().Exec(string(sqlBytes)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to apply schema")
	}
	logger.Logger.Info().Msg("database schema verified")
}

func main() {
	genToken := flag.Bool("generate-token", false, "generate a fresh agent API token and exit")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFile)

	if *genToken {
		token, err := middleware.GenerateAPIToken(cfg.APITokenFile)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("failed to generate API token")
		}
		fmt.Printf("API token generated: %s\nSaved to %s\n", token, cfg.APITokenFile)
		return
	}

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	runMigrations()

	logger.Logger.Info().
		Bool("auth", cfg.AuthEnabled).
		Int("sweep_interval_s", cfg.SweepIntervalSeconds).
		Int("agent_timeout_s", cfg.AgentTimeoutSeconds).
		Msg("fleetmonitor starting")

	// Background liveness sweep: demote active agents that stopped heartbeating.
	timeout := time.Duration(cfg.AgentTimeoutSeconds) * time.Second
	sched := cron.New()
	if _, err := sched.AddFunc(fmt.Sprintf("@every %ds", cfg.SweepIntervalSeconds), func() {
		services.RunSweep(timeout)
	}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to schedule liveness sweep")
	}
	sched.Start()
	defer sched.Stop()

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Agent ingress: static token auth.
	agents := r.Group("/api/agents", middleware.AgentTokenRequired(cfg.APITokenFile))
	{
		agents.POST("", handlers.RegisterAgent)
		agents.GET("", handlers.ListAgents)
		agents.GET("/:id", handlers.GetAgent)
		agents.POST("/:id/heartbeat", handlers.Heartbeat)
		agents.POST("/:id/metrics", handlers.ReportMetrics)
		agents.GET("/:id/metrics", handlers.GetAgentMetrics)
	}

	r.POST("/api/auth/signup", handlers.Signup)
	r.POST("/api/auth/login", handlers.Login)

	// Operator surface: JWT auth behind the AUTH_ENABLED flag.
	api := r.Group("/api", middleware.AuthRequired(cfg))
	{
		api.GET("/auth/me", handlers.Me)

		api.POST("/rules", handlers.CreateRule)
		api.GET("/rules", handlers.ListRules)
		api.GET("/rules/:id", handlers.GetRule)
		api.PUT("/rules/:id", handlers.UpdateRule)
		api.DELETE("/rules/:id", handlers.DeleteRule)
		api.POST("/rules/:id/evaluate", handlers.EvaluateRule)

		api.GET("/alerts", handlers.ListAlerts)
		api.POST("/alerts/:id/acknowledge", handlers.AcknowledgeAlert)
		api.POST("/alerts/:id/resolve", handlers.ResolveAlert)
		// Bulk actions live under their own prefix; gin cannot route a
		// static segment alongside /alerts/:id.
		api.POST("/bulk/alerts/acknowledge", handlers.BulkAcknowledgeAlerts)
		api.POST("/bulk/alerts/resolve", handlers.BulkResolveAlerts)

		api.GET("/dashboard", handlers.GetDashboard)
	}

	logger.Logger.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Logger.Fatal().Err(err).Msg("server exited")
	}
}
