package api

import (
	v1 "github.com/flexprice/billing-notifier/internal/api/v1"
	"github.com/flexprice/billing-notifier/internal/config"
	"github.com/flexprice/billing-notifier/internal/rest/middleware"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Notification *v1.NotificationHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	if cfg.Logging.Level != types.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	{
		notifications := v1Group.Group("/notifications")
		notifications.POST("/send-email", handlers.Notification.SendEmail)
		notifications.POST("/invoices/:id/document", handlers.Notification.GenerateDocument)
		notifications.POST("/cohorts/:date/generate", handlers.Notification.GenerateCohort)
		notifications.POST("/cohorts/:date/dispatch", handlers.Notification.DispatchCohort)
		notifications.POST("/cohorts/:date/trigger", handlers.Notification.TriggerCohort)
	}

	return router
}
