// Package grpc serves the standard gRPC health protocol for the admin
// server, driven by the health service.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/health"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported alongside the overall ("") status.
const ServiceName = "adminkeeper.Admin"

type GRPCServer struct {
	address  string
	logger   logging.Logger
	checks   *health.Service
	hs       *grpchealth.Server
	interval time.Duration
}

func NewGRPCServer(address string, l logging.Logger, checks *health.Service, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &GRPCServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		checks:   checks,
		hs:       hs,
		interval: interval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor))
	healthpb.RegisterHealthServer(srv, s.hs)

	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
