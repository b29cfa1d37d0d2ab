// Package grpchealth serves the standard grpc.health.v1 protocol for
// followcast. The serving status is derived from a datastore ping taken on
// every Check call, so orchestrators probing over gRPC see the same health
// as GET /healthz.
package grpchealth

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the named service reported alongside the server-wide "" entry.
const ServiceName = "followcast"

const pingTimeout = 2 * time.Second

// Checker is a health server whose status follows a ping function.
type Checker struct {
	*health.Server
	ping   func(ctx context.Context) error
	logger *slog.Logger
}

// NewChecker creates a Checker. Its status starts as NOT_SERVING until the
// first Refresh or Check.
func NewChecker(ping func(ctx context.Context) error, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Checker{
		Server: health.NewServer(),
		ping:   ping,
		logger: logger,
	}
	c.set(grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return c
}

// Check refreshes the status before answering.
func (c *Checker) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	c.Refresh(ctx)
	return c.Server.Check(ctx, req)
}

// Refresh pings the datastore and records the result. Watch streams see the
// change.
func (c *Checker) Refresh(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := c.ping(ctx); err != nil {
		c.logger.Warn("grpc health check failed", "error", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	c.set(status)
	return status
}

func (c *Checker) set(status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	c.SetServingStatus("", status)
	c.SetServingStatus(ServiceName, status)
}

// NewServer creates a gRPC server exposing c and server reflection.
func NewServer(c *Checker, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	grpc_health_v1.RegisterHealthServer(s, c)
	reflection.Register(s)
	return s
}
