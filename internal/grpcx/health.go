// Package grpcx serves the gRPC health endpoint used by orchestrators.
package grpcx

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported alongside the overall ("") status.
const ServiceName = "vendor.backoffice"

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports SERVING while the database answers pings.
type Health struct {
	srv *health.Server
	db  Pinger
	log *zap.Logger
}

func NewHealth(db Pinger, log *zap.Logger) *Health {
	h := &Health{srv: health.NewServer(), db: db, log: log}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) set(s healthpb.HealthCheckResponse_ServingStatus) {
	h.srv.SetServingStatus("", s)
	h.srv.SetServingStatus(ServiceName, s)
}

// Check pings once and publishes the result.
func (h *Health) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("database ping failed", zap.Error(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
}

// Run checks every interval until ctx is done, then reports NOT_SERVING for good.
func (h *Health) Run(ctx context.Context, interval time.Duration) {
	h.Check(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}

// NewServer builds a gRPC server exposing the health service and reflection.
func NewServer(h *Health) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}
