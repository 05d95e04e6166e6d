// Package dependency provides dependency injection for the application.
package dependency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dental-clinic/backend/config"
	"github.com/dental-clinic/backend/internal/application/adapter"
	"github.com/dental-clinic/backend/internal/application/usecase/ledger"
	"github.com/dental-clinic/backend/internal/infra/server/router"
	"github.com/dental-clinic/backend/internal/integration/adapters"
	"github.com/dental-clinic/backend/internal/integration/cache"
	"github.com/dental-clinic/backend/internal/integration/entrypoint/controller"
	"github.com/dental-clinic/backend/internal/integration/entrypoint/middleware"
	"github.com/dental-clinic/backend/internal/integration/persistence"
	"github.com/dental-clinic/backend/internal/integration/persistence/inmemory"
)

// Injector holds all application dependencies.
type Injector struct {
	Config           *config.Config
	DB               *gorm.DB
	Router           *router.Router
	TokenService     adapter.TokenService
	WriteRateLimiter *middleware.RateLimiter
}

// Options carries optional collaborators. Zero values select the defaults.
type Options struct {
	// DB backs the gorm repository; nil selects the in-memory repository.
	DB *gorm.DB
	// Redis backs the summary cache; nil disables caching.
	Redis *redis.Client
	// Clock stamps transactions; nil selects the system clock.
	Clock adapter.Clock
	// DBHealthChecker overrides the database health probe.
	DBHealthChecker controller.HealthChecker
}

// NewInjector creates a new dependency injector with all dependencies wired.
func NewInjector(cfg *config.Config, opts Options) *Injector {
	// Create repositories
	var transactionRepo adapter.FinancialTransactionRepository
	if opts.DB != nil {
		transactionRepo = persistence.NewFinancialTransactionRepository(opts.DB)
	} else {
		transactionRepo = inmemory.NewFinancialTransactionRepository()
	}

	var summaryCache adapter.SummaryCache
	var cacheHealthChecker controller.HealthChecker
	if opts.Redis != nil {
		summaryCache = cache.NewSummaryCache(opts.Redis, cfg.Redis.SummaryTTL)
		cacheHealthChecker = pingChecker(summaryCache)
	}

	// Create adapters/services
	tokenService := adapters.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)

	// Create ledger use cases
	appendUseCase := ledger.NewAppendTransactionUseCase(transactionRepo, summaryCache, opts.Clock)
	getUseCase := ledger.NewGetTransactionUseCase(transactionRepo)
	updateUseCase := ledger.NewUpdateTransactionUseCase(transactionRepo, summaryCache, opts.Clock)
	listUseCase := ledger.NewListPatientTransactionsUseCase(transactionRepo)
	summaryUseCase := ledger.NewGetPatientSummaryUseCase(transactionRepo, summaryCache)
	paymentUseCase := ledger.NewRecordPaymentUseCase(appendUseCase)
	chargeUseCase := ledger.NewRecordChargeUseCase(appendUseCase)
	refundUseCase := ledger.NewRecordRefundUseCase(transactionRepo, appendUseCase)

	// Create controllers
	dbHealthChecker := opts.DBHealthChecker
	if dbHealthChecker == nil {
		dbHealthChecker = gormChecker(opts.DB)
	}
	healthController := controller.NewHealthController(dbHealthChecker, cacheHealthChecker)

	ledgerController := controller.NewLedgerController(
		appendUseCase,
		getUseCase,
		updateUseCase,
		listUseCase,
		summaryUseCase,
		paymentUseCase,
		chargeUseCase,
		refundUseCase,
	)

	// Create middleware
	// Use higher rate limits for E2E/test environments to prevent flaky tests
	var writeRateLimiter *middleware.RateLimiter
	if cfg.Server.Environment == "e2e" || cfg.Server.Environment == "test" {
		writeRateLimiter = middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
	} else {
		writeRateLimiter = middleware.NewRateLimiterWithConfig(cfg.Ledger.WriteRateLimit, cfg.Ledger.WriteRateWindow)
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(healthController, ledgerController, writeRateLimiter, authMiddleware)

	return &Injector{
		Config:           cfg,
		DB:               opts.DB,
		Router:           r,
		TokenService:     tokenService,
		WriteRateLimiter: writeRateLimiter,
	}
}

func gormChecker(db *gorm.DB) controller.HealthChecker {
	if db == nil {
		// The in-memory repository is always available.
		return func() bool { return true }
	}
	return func() bool {
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}
}

func pingChecker(summaryCache adapter.SummaryCache) controller.HealthChecker {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return summaryCache.Ping(ctx) == nil
	}
}
