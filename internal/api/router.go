package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "qualifyr/internal/api/context"
	"qualifyr/internal/api/handlers"
	"qualifyr/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler         *handlers.AuthHandler
	LeadHandler         *handlers.LeadHandler
	ConversationHandler *handlers.ConversationHandler
	WebhookHandler      *handlers.WebhookHandler
	AccountHandler      *handlers.AccountHandler
	AnalyticsHandler    *handlers.AnalyticsHandler
	BillingHandler      *handlers.BillingHandler
	AuditHandler        *handlers.AuditHandler
	HealthHandler       *handlers.HealthHandler
	MetricsHandler      *handlers.MetricsHandler
	AuthMiddleware      *middleware.AuthMiddleware
	APIKeyMiddleware    *middleware.APIKeyMiddleware
	RateLimiter         *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	keyMid := deps.APIKeyMiddleware
	rl := deps.RateLimiter

	// Public routes. Signup and login rate limit by remote address since
	// no account is known yet.
	router.POST("/api/v1/signup",
		chain(deps.AuthHandler.Signup, middleware.Track("/api/v1/signup"), rl.Class("api_write")))
	router.POST("/api/v1/auth/login",
		chain(deps.AuthHandler.Login, middleware.Track("/api/v1/auth/login"), rl.Class("api_write")))
	router.POST("/api/v1/billing/events",
		chain(deps.BillingHandler.Events, middleware.Track("/api/v1/billing/events")))
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Lead capture and qualification
	router.POST("/api/v1/leads",
		chain(deps.LeadHandler.Create, middleware.Track("/api/v1/leads"), keyMid.Handle, rl.Class("api_write")))
	router.GET("/api/v1/leads",
		chain(deps.LeadHandler.List, middleware.Track("/api/v1/leads"), keyMid.Handle, rl.Class("api_read")))
	router.GET("/api/v1/leads/:lead_id",
		chain(deps.LeadHandler.Get, middleware.Track("/api/v1/leads/:lead_id"), keyMid.Handle, rl.Class("api_read")))
	router.POST("/api/v1/leads/:lead_id/send-to-crm",
		chain(deps.LeadHandler.SendToCRM, middleware.Track("/api/v1/leads/:lead_id/send-to-crm"), keyMid.Handle, rl.Class("api_write")))

	// Conversations
	router.POST("/api/v1/conversations/inbound",
		chain(deps.ConversationHandler.Inbound, middleware.Track("/api/v1/conversations/inbound"), keyMid.Handle, rl.Class("api_write")))

	// Account and analytics
	router.GET("/api/v1/account",
		chain(deps.AccountHandler.Get, middleware.Track("/api/v1/account"), keyMid.Handle, rl.Class("api_read")))
	router.GET("/api/v1/analytics/dashboard",
		chain(deps.AnalyticsHandler.Dashboard, middleware.Track("/api/v1/analytics/dashboard"), keyMid.Handle, rl.Class("api_read")))

	// Webhook registrations
	router.POST("/api/v1/webhooks",
		chain(deps.WebhookHandler.Create, middleware.Track("/api/v1/webhooks"), keyMid.Handle, rl.Class("api_write")))
	router.GET("/api/v1/webhooks",
		chain(deps.WebhookHandler.List, middleware.Track("/api/v1/webhooks"), keyMid.Handle, rl.Class("api_read")))
	router.GET("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Get, middleware.Track("/api/v1/webhooks/:webhook_id"), keyMid.Handle, rl.Class("api_read")))
	router.PATCH("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, middleware.Track("/api/v1/webhooks/:webhook_id"), keyMid.Handle, rl.Class("api_write")))
	router.DELETE("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, middleware.Track("/api/v1/webhooks/:webhook_id"), keyMid.Handle, rl.Class("api_write")))
	router.POST("/api/v1/webhooks/test",
		chain(deps.WebhookHandler.Test, middleware.Track("/api/v1/webhooks/test"), keyMid.Handle, rl.Class("api_write")))

	// Dashboard routes (JWT)
	router.POST("/api/v1/auth/api-key/rotate",
		chain(deps.AuthHandler.RotateAPIKey, middleware.Track("/api/v1/auth/api-key/rotate"), authMid.Handle, rl.Class("api_write")))
	router.GET("/api/v1/audit",
		chain(deps.AuditHandler.List, middleware.Track("/api/v1/audit"), authMid.Handle, rl.Class("api_read")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
