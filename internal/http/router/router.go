package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/mentorhub-backend/internal/config"
	"github.com/ignatzorin/mentorhub-backend/internal/http/handlers"
	"github.com/ignatzorin/mentorhub-backend/internal/http/middleware"
	"github.com/ignatzorin/mentorhub-backend/internal/models"
	"github.com/ignatzorin/mentorhub-backend/internal/service"
)

// SetupRouter собирает все маршруты сервиса.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	conversationHandler *handlers.ConversationHandler,
	reportHandler *handlers.ReportHandler,
	mediaHandler *handlers.MediaHandler,
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
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/users/:id", middleware.UUIDValidator("id"), profileHandler.GetIdentity)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetMe)
		protected.PUT("/profile", profileHandler.UpdateMe)

		protected.GET("/conversations/:userA/:userB",
			middleware.UUIDValidator("userA"), middleware.UUIDValidator("userB"),
			conversationHandler.GetHistory)
		protected.PUT("/conversations/:userA/:userB/read",
			middleware.UUIDValidator("userA"), middleware.UUIDValidator("userB"),
			conversationHandler.MarkRead)

		reportRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/messages/report", reportRateLimit, reportHandler.CreateReport)
		protected.GET("/messages/report", reportHandler.ListMyReports)

		protected.POST("/media/avatar", mediaHandler.UploadAvatar)
	}

	// Очередь модерации
	moderation := api.Group("/moderation")
	moderation.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleModerator))
	{
		moderation.GET("/reports", reportHandler.ListOpenReports)
		moderation.PUT("/reports/:id", middleware.UUIDValidator("id"), reportHandler.ResolveReport)
	}

	return r
}
