package router

import (
	"github.com/gin-gonic/gin"

	"github.com/roadassist/roadassist-backend/internal/config"
	"github.com/roadassist/roadassist-backend/internal/http/handlers"
	"github.com/roadassist/roadassist-backend/internal/http/middleware"
	"github.com/roadassist/roadassist-backend/internal/metrics"
	"github.com/roadassist/roadassist-backend/internal/models"
	"github.com/roadassist/roadassist-backend/internal/service"
)

// SetupRouter собирает маршруты сервиса.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	requestHandler *handlers.RequestHandler,
	paymentHandler *handlers.PaymentHandler,
	mediaHandler *handlers.MediaHandler,
	statsHandler *handlers.StatsHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Трекинг заявки: токен проверяется внутри хэндлера, едет в query.
	api.GET("/ws/requests/:id", wsHandler.Watch)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		// Заявки
		protected.POST("/requests", requestHandler.Create)
		protected.GET("/requests/my", requestHandler.ListMine)
		protected.GET("/requests/history", requestHandler.History)
		protected.GET("/requests/pending",
			middleware.RequireRole(models.RoleProvider, models.RoleOperator),
			requestHandler.ListPending)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), requestHandler.Get)
		protected.POST("/requests/:id/claim",
			middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider),
			requestHandler.Claim)
		protected.POST("/requests/:id/release",
			middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider, models.RoleOperator),
			requestHandler.Release)
		protected.POST("/requests/:id/position",
			middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider),
			wsHandler.ReportPosition)

		// Расчёты
		protected.POST("/payments", paymentHandler.Begin)
		protected.POST("/payments/confirm", paymentHandler.Confirm)
		protected.GET("/payments/my", paymentHandler.ListMine)

		// Фото поломок
		protected.POST("/media/photos", mediaHandler.UploadPhoto)
		protected.GET("/media/photos/:id", middleware.UUIDValidator("id"), mediaHandler.GetPhoto)
	}

	// Операторские маршруты
	operator := api.Group("/")
	operator.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleOperator))
	{
		operator.GET("/requests", requestHandler.ListAll)
		operator.PUT("/requests/:id/status", middleware.UUIDValidator("id"), requestHandler.Override)
		operator.GET("/payments", paymentHandler.ListAll)
		operator.GET("/users", statsHandler.ListUsers)
		operator.GET("/stats/dashboard", statsHandler.Dashboard)
	}

	return r
}
