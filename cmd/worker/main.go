package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"

	"qualifyr/internal/engine/webhooks"
	"qualifyr/internal/pkg/logger"
	"qualifyr/internal/platform/config"
	"qualifyr/internal/platform/database"
	"qualifyr/internal/platform/repositories"
	"qualifyr/internal/workers"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init("worker", cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	registrationRepo := repositories.NewWebhookRegistrationRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)

	runner := &workers.Runner{
		Dispatcher: webhooks.NewDispatcher(registrationRepo, deliveryRepo, cfg.Webhooks),
		Deliveries: deliveryRepo,
		Retention:  cfg.Webhooks.Retention,
	}

	log.Println("Starting background workers...")

	go runDeliverySweeper(runner, cfg.Webhooks.PollInterval)
	go runDeliveryPurger(runner)

	// Keep process alive
	select {}
}

func runDeliverySweeper(runner *workers.Runner, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		runner.SweepDeliveries()
	}
}

func runDeliveryPurger(runner *workers.Runner) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		runner.PurgeDeliveries()
	}
}
