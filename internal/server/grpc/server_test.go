package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newServer(pingErr *error) *GRPCServer {
	checks := health.NewService("test")
	checks.RegisterChecker("store", health.NewStoreChecker(pingFunc(func(context.Context) error { return *pingErr }), time.Second))
	return NewGRPCServer("127.0.0.1:0", logging.Nop(), checks, time.Hour)
}

func TestRefresh_FollowsHealthReport(t *testing.T) {
	var pingErr error
	s := newServer(&pingErr)
	ctx := context.Background()

	resp, err := s.hs.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, s.refresh(ctx))
	resp, err = s.hs.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	pingErr = errors.New("down")
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s.refresh(ctx))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	var pingErr error
	s := newServer(&pingErr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	var pingErr error
	s := newServer(&pingErr)
	s.address = "127.0.0.1:99999"

	assert.Error(t, s.Run(context.Background()))
}

func TestRequestIDInterceptor(t *testing.T) {
	var pingErr error
	s := newServer(&pingErr)
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen = logging.RequestID(ctx)
		return "ok", nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "abc-123"))
	resp, err := s.requestIDInterceptor(ctx, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "abc-123", seen)

	_, err = s.requestIDInterceptor(context.Background(), nil, info, handler)
	require.NoError(t, err)
	assert.Len(t, seen, 36)
}
