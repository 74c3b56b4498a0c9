package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/matchbot/internal/config"
	"github.com/oggyb/matchbot/internal/logger"
	"github.com/oggyb/matchbot/internal/metrics"
)

// NewGRPCServer builds a server with the observability interceptor, the health
// service and reflection, then registers all provided services.
func NewGRPCServer(registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(ObserveUnary))

	// register all services
	hs := health.NewServer()
	for _, r := range registrars {
		r.Register(grpcServer)
		hs.SetServingStatus(r.ServiceName(), healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	return grpcServer
}

// StartGRPCServer boots a gRPC server and serves until ctx is canceled, then
// stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(registrars...)

	go func() {
		<-ctx.Done()
		logger.Info("stopping gRPC server")
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

// ObserveUnary records request metrics and logs failed calls.
func ObserveUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	metrics.GRPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	metrics.GRPCRequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Warn("rpc failed", "method", info.FullMethod, "code", code.String(), "err", err)
	} else {
		logger.Debug("rpc served", "method", info.FullMethod, "took", time.Since(start))
	}
	return resp, err
}
