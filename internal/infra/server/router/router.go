// Package router sets up the HTTP routing for the application.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dental-clinic/backend/internal/integration/entrypoint/controller"
	"github.com/dental-clinic/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine           *gin.Engine
	healthController *controller.HealthController
	ledgerController *controller.LedgerController
	writeRateLimiter *middleware.RateLimiter
	authMiddleware   *middleware.AuthMiddleware
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(
	healthController *controller.HealthController,
	ledgerController *controller.LedgerController,
	writeRateLimiter *middleware.RateLimiter,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		healthController: healthController,
		ledgerController: ledgerController,
		writeRateLimiter: writeRateLimiter,
		authMiddleware:   authMiddleware,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.New()
	r.engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		gin.Recovery(),
	)

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
}

// setupAPIRoutes configures the ledger API routes.
func (r *Router) setupAPIRoutes() {
	if r.ledgerController == nil || r.authMiddleware == nil {
		return
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(r.authMiddleware.Authenticate())

	write := r.writeMiddleware()

	transactions := v1.Group("/transactions")
	{
		transactions.POST("", write, r.ledgerController.Create)
		transactions.GET("/:id", r.ledgerController.Get)
		transactions.PATCH("/:id", write, r.ledgerController.Update)
	}

	patients := v1.Group("/patients/:patientId")
	{
		patients.GET("/transactions", r.ledgerController.ListPatientTransactions)
		patients.GET("/summary", r.ledgerController.GetPatientSummary)
		patients.POST("/payments", write, r.ledgerController.RecordPayment)
		patients.POST("/charges", write, r.ledgerController.RecordCharge)
		patients.POST("/refunds", write, r.ledgerController.RecordRefund)
	}
}

// writeMiddleware returns the rate limiter for write endpoints, or a pass-through.
func (r *Router) writeMiddleware() gin.HandlerFunc {
	if r.writeRateLimiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return r.writeRateLimiter.Middleware()
}
