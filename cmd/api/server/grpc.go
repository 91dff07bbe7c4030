package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpcadapter "user-store-service/internal/adapter/grpc"
	"user-store-service/internal/adapter/grpc/middleware"
	"user-store-service/internal/usecase/user"
	"user-store-service/pkg/logger"
	"user-store-service/pkg/metrics"
)

// SetupGRPC creates and configures the gRPC server.
// Interceptors run in order: request ID, rate limit (when configured), metrics.
func SetupGRPC(svc user.Service, m *metrics.Metrics, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{logger.RequestIDInterceptor()}
	if rateLimiter != nil {
		interceptors = append(interceptors, rateLimiter.UnaryInterceptor())
	}
	interceptors = append(interceptors, m.UnaryServerInterceptor())

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcadapter.RegisterUserServiceServer(grpcServer, grpcadapter.NewUserServer(svc, l))

	return grpcServer
}
