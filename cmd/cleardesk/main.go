package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cleardesk/cleardesk/api/handlers"
	"github.com/cleardesk/cleardesk/internal/audit"
	"github.com/cleardesk/cleardesk/internal/cache"
	"github.com/cleardesk/cleardesk/internal/compliance"
	"github.com/cleardesk/cleardesk/internal/config"
	"github.com/cleardesk/cleardesk/internal/database"
	"github.com/cleardesk/cleardesk/internal/instrument"
	"github.com/cleardesk/cleardesk/internal/marketdata"
	"github.com/cleardesk/cleardesk/internal/request"
	"github.com/cleardesk/cleardesk/internal/resilience"
	"github.com/cleardesk/cleardesk/internal/server"
	"github.com/cleardesk/cleardesk/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load(os.Getenv("CLEARDESK_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zapLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Shared resilience primitives: one cache and one breaker per lookup
	// kind, process-wide, explicitly constructed and injected.
	md := cfg.MarketData
	tickerCache := cache.New[marketdata.InstrumentValidation](md.QuoteCacheSize, md.QuoteCacheTTL)
	bondCache := cache.New[marketdata.InstrumentValidation](md.BondCacheSize, md.BondCacheTTL)

	quoteBreaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "quote-lookup",
		FailureThreshold: md.BreakerFailureThreshold,
		Cooldown:         md.BreakerCooldown,
	}, zapLogger)
	bondBreaker := resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "bond-lookup",
		FailureThreshold: md.BreakerFailureThreshold,
		Cooldown:         md.BreakerCooldown,
	}, zapLogger)

	quoteCaller := resilience.NewCaller(quoteBreaker, md.Retries, md.RetryDelay, zapLogger)
	bondCaller := resilience.NewCaller(bondBreaker, md.Retries, md.RetryDelay, zapLogger)

	quoteClient := marketdata.NewQuoteClient(md.QuoteURL, md.RequestTimeout, zapLogger)
	bondClient := marketdata.NewBondClient(md.BondURL, md.RequestTimeout, zapLogger)
	rateClient := marketdata.NewRateClient(md.RateURL, md.RequestTimeout, zapLogger)

	gateway := marketdata.NewGateway(quoteClient, bondClient, tickerCache, bondCache, quoteCaller, bondCaller, zapLogger)
	resolver := instrument.NewResolver(gateway, zapLogger)

	valuationEngine := compliance.NewValuationEngine(
		rateClient, decimal.NewFromFloat(cfg.Policy.MaxTradeAmountUSD), zapLogger)

	auditSvc := audit.NewService(db, zapLogger)
	requestRepo := request.NewGormRepository(db)
	restrictionRepo := request.NewGormRestrictionRepository(db)

	requestSvc := request.NewService(
		requestRepo, restrictionRepo, resolver, valuationEngine, auditSvc,
		cfg.Policy.WashWindowDays, zapLogger)
	restrictionSvc := request.NewRestrictionService(restrictionRepo, auditSvc, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic sweep of expired cache entries
	go func() {
		ticker := time.NewTicker(cfg.MarketData.CacheSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := tickerCache.Cleanup() + bondCache.Cleanup()
				if removed > 0 {
					zapLogger.Debug("cache cleanup", zap.Int("removed", removed))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	requestHandler := handlers.NewRequestHandler(requestSvc)
	adminHandler := handlers.NewAdminHandler(
		requestSvc, restrictionSvc, auditSvc, gateway,
		[]*resilience.CircuitBreaker{quoteBreaker, bondBreaker})

	srv := server.New(cfg.Server, cfg.Auth, cfg.Environment, requestHandler, adminHandler, zapLogger)
	if err := srv.Run(ctx); err != nil {
		zapLogger.Fatal("server error", zap.Error(err))
	}
	zapLogger.Info("shutdown complete")
}
