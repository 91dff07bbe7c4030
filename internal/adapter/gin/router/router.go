package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-store-service/internal/adapter/gin/handler"
	"user-store-service/internal/adapter/gin/middleware"
)

// SetupRouter configures the ops router: /health and /metrics only.
func SetupRouter(health *handler.HealthHandler, metrics http.Handler, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Logger wraps Recovery so recovered panics are logged as 500s
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(metrics))

	return router
}
