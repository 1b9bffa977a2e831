package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-intent-engine/config"
	gatewayAdapter "payment-intent-engine/internal/adapter/gateway"
	httpHandler "payment-intent-engine/internal/adapter/http/handler"
	pgStorage "payment-intent-engine/internal/adapter/storage/postgres"
	redisStorage "payment-intent-engine/internal/adapter/storage/redis"
	"payment-intent-engine/internal/core/domain"
	"payment-intent-engine/internal/core/ports"
	"payment-intent-engine/internal/service"
	"payment-intent-engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Payment Intent Engine")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	intentRepo := pgStorage.NewIntentRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	invoiceRepo := pgStorage.NewInvoiceRepo(pool)
	auditRepo := pgStorage.NewAuditRepository(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	callbackDedup := redisStorage.NewCallbackDedup(rdb)
	balanceCache := redisStorage.NewBalanceCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize gateway adapters
	gatewayClient := &http.Client{Timeout: cfg.Gateway.OpenTimeout}
	realGateway := gatewayAdapter.NewRealGateway(
		cfg.Gateway.BaseURL,
		cfg.Gateway.KeyID,
		cfg.Gateway.Secret,
		gatewayClient,
		log,
	)
	simulatedGateway := gatewayAdapter.NewSimulatedGateway()
	gateways := map[domain.GatewayKind]ports.GatewayAdapter{
		domain.GatewayKindReal:      realGateway,
		domain.GatewayKindSimulated: simulatedGateway,
	}

	// Initialize services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)
	ledgerSvc := service.NewWalletLedgerService(walletRepo, balanceCache, cfg.Gateway.Currency, log)
	invoiceSvc := service.NewInvoiceSettlementService(invoiceRepo, log)
	orchestrator := service.NewIntentOrchestratorService(
		intentRepo,
		walletRepo,
		invoiceRepo,
		ledgerSvc,
		invoiceSvc,
		gateways,
		transactor,
		callbackDedup,
		balanceCache,
		auditSvc,
		log,
	)

	// Start the reconciliation sweep
	reconciler := service.NewReconcilerService(intentRepo, orchestrator, gateways, auditSvc, cfg.Reconciler, log)
	reconcilerCtx, stopReconciler := context.WithCancel(ctx)
	defer stopReconciler()
	go reconciler.Run(reconcilerCtx)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Orchestrator:   orchestrator,
		Ledger:         ledgerSvc,
		IntentRepo:     intentRepo,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopReconciler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
