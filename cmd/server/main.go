package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"qualifyr/internal/api"
	"qualifyr/internal/api/handlers"
	"qualifyr/internal/api/middleware"
	"qualifyr/internal/engine/analytics"
	"qualifyr/internal/engine/billing"
	"qualifyr/internal/engine/leads"
	"qualifyr/internal/engine/scoring"
	"qualifyr/internal/engine/webhooks"
	"qualifyr/internal/pkg/logger"
	"qualifyr/internal/platform/audit"
	"qualifyr/internal/platform/auth"
	"qualifyr/internal/platform/config"
	"qualifyr/internal/platform/database"
	"qualifyr/internal/platform/email"
	"qualifyr/internal/platform/repositories"
)

func main() {
	// .env is optional; deployments set real environment variables.
	godotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init("api", cfg.Logging)

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	registrationRepo := repositories.NewWebhookRegistrationRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditor := audit.NewLogger(db)
	sender := email.NewSender(cfg.Email)
	dispatcher := webhooks.NewDispatcher(registrationRepo, deliveryRepo, cfg.Webhooks)

	var strategy scoring.Strategy = scoring.NewHeuristicStrategy()
	if cfg.Scoring.Strategy == "ai" {
		strategy = scoring.NewAIStrategy(cfg.AI)
	}

	leadSvc := leads.NewService(accountRepo, leadRepo, strategy, dispatcher, sender, auditor)
	billingSvc := billing.NewService(accountRepo, auditor)
	analyticsSvc := analytics.NewService(analytics.NewRepository(db))

	// Handlers
	authHandler := handlers.NewAuthHandler(accountRepo, tokenSvc, sender, auditor, cfg.Billing)
	leadHandler := handlers.NewLeadHandler(leadSvc)
	conversationHandler := handlers.NewConversationHandler(leadSvc)
	webhookHandler := handlers.NewWebhookHandler(registrationRepo, dispatcher, auditor)
	accountHandler := handlers.NewAccountHandler()
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsSvc)
	billingHandler := handlers.NewBillingHandler(billingSvc)
	auditHandler := handlers.NewAuditHandler(auditor)
	healthHandler := handlers.NewHealthHandler(db)
	metricsHandler := handlers.NewMetricsHandler()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(accountRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:         authHandler,
		LeadHandler:         leadHandler,
		ConversationHandler: conversationHandler,
		WebhookHandler:      webhookHandler,
		AccountHandler:      accountHandler,
		AnalyticsHandler:    analyticsHandler,
		BillingHandler:      billingHandler,
		AuditHandler:        auditHandler,
		HealthHandler:       healthHandler,
		MetricsHandler:      metricsHandler,
		AuthMiddleware:      authMiddleware,
		APIKeyMiddleware:    apiKeyMiddleware,
		RateLimiter:         rateLimiter,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
