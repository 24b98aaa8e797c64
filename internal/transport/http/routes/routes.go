package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aurelhotels/credential-service/internal/infra/config"
	"github.com/aurelhotels/credential-service/internal/transport/http/handlers"
	"github.com/aurelhotels/credential-service/internal/transport/http/middleware"
	"github.com/aurelhotels/credential-service/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	PasswordReset *usecase.PasswordResetService
	Maintenance   *usecase.MaintenanceService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.IPRateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		passwordHandler := handlers.NewPasswordHandler(deps.Services.PasswordReset)

		resetGroup := api.Group("/password/reset")
		if deps.RateLimiter != nil {
			resetGroup.Use(deps.RateLimiter.Handler())
		}
		resetGroup.POST("/request", passwordHandler.ForgotPassword)
		resetGroup.POST("/validate", passwordHandler.ValidateResetToken)
		resetGroup.POST("/confirm", passwordHandler.ResetPassword)

		adminHandler := handlers.NewAdminHandler(deps.Services.Maintenance)
		adminGroup := api.Group("/admin/reset-tokens")
		adminGroup.POST("/cleanup", adminHandler.CleanupTokens)
		adminGroup.GET("/stats", adminHandler.TokenStats)
	}

	return r
}
