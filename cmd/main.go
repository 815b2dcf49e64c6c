package main

import (
	"log"
	"time"

	"github.com/qarote/qarote/internal/alert"
	"github.com/qarote/qarote/internal/api"
	"github.com/qarote/qarote/internal/auth"
	"github.com/qarote/qarote/internal/config"
	"github.com/qarote/qarote/internal/database"
	"github.com/qarote/qarote/internal/monitor"
	"github.com/qarote/qarote/internal/notify"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	auth.SetSecret(cfg.Server.JWTSecret)

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	// Initialize notification services and the dispatcher
	dispatcher := notify.NewDispatcher(
		notify.NewSlackService(cfg.Notify.SlackUsername),
		notify.NewWebhookService(),
		notify.NewEmailService(
			cfg.Notify.Email.SMTPHost,
			cfg.Notify.Email.SMTPPort,
			cfg.Notify.Email.From,
			cfg.Notify.Email.Password,
		),
	)

	// Initialize alert and rule managers
	alertManager := alert.NewAlertManager(db, dispatcher)
	ruleManager := alert.NewRuleManager(alertManager, db)

	// Start the poller
	poller := monitor.NewPoller(db, ruleManager, time.Duration(cfg.Monitor.IntervalSeconds)*time.Second)
	if err := poller.Start(); err != nil {
		log.Fatalf("Failed to start poller: %v", err)
	}
	defer poller.Stop()

	// Initialize and start API server
	server := api.NewServer(poller, alertManager, ruleManager)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
