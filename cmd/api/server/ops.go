package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"user-store-service/internal/adapter/gin/handler"
	ginrouter "user-store-service/internal/adapter/gin/router"
	"user-store-service/pkg/metrics"
)

// SetupOpsServer creates the HTTP server for /health and /metrics
func SetupOpsServer(health *handler.HealthHandler, m *metrics.Metrics, opsAddr string, l *zap.Logger) *http.Server {
	router := ginrouter.SetupRouter(health, m.Handler(), l)

	l.Info("ops endpoint configured", zap.String("address", opsAddr))

	return &http.Server{
		Addr:              opsAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
