package handler

import (
	"payment-intent-engine/internal/adapter/http/middleware"
	redisStore "payment-intent-engine/internal/adapter/storage/redis"
	"payment-intent-engine/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Orchestrator   ports.IntentOrchestrator
	Ledger         ports.WalletLedger
	IntentRepo     ports.IntentRepository
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Gateway callback (no merchant auth; signature is the auth) ---
	webhookHandler := NewWebhookHandler(deps.Orchestrator)
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/gateway", rl("webhooks"), webhookHandler.GatewayCallback)
	}

	// --- JWT-authenticated routes (merchant API) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	intentHandler := NewIntentHandler(deps.Orchestrator, deps.IntentRepo)
	walletHandler := NewWalletHandler(deps.Ledger)

	intents := v1.Group("/intents", jwtAuth)
	{
		intents.POST("", rl("intents"), intentHandler.Create)
		intents.GET("/:id", rl("intents"), intentHandler.Get)
		intents.POST("/:id/verify", rl("intents_verify"), intentHandler.Verify)
		intents.POST("/:id/cancel", rl("intents"), intentHandler.Cancel)
		intents.POST("/:id/simulate", rl("intents"), intentHandler.Simulate)
	}

	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("/balance", rl("ledger"), walletHandler.GetBalance)
		wallet.GET("/transactions", rl("ledger"), walletHandler.ListTransactions)
	}

	return r
}
