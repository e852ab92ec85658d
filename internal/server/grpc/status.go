package grpc

import (
	"context"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/server/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// refresh copies the current health report into the gRPC health server and
// returns the status it set.
func (s *GRPCServer) refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	report := s.checks.CheckHealth(ctx)

	st := healthpb.HealthCheckResponse_SERVING
	if !report.Healthy() {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		for name, c := range report.Checks {
			if c.Status != health.StatusHealthy {
				s.logger.Warn(ctx, "health check failing", "check", name, "message", c.Message)
			}
		}
	}
	s.hs.SetServingStatus("", st)
	s.hs.SetServingStatus(ServiceName, st)
	return st
}

func (s *GRPCServer) watch(ctx context.Context) {
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}
