package database

import (
	"fmt"
	"net"

	"studio_marketplace/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer grpc health endpoint for orchestrator probes
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewHealthServer listen on addr, serving is started by Serve
func NewHealthServer(addr string) (*HealthServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	s := grpc.NewServer()
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)
	return &HealthServer{server: s, health: h, lis: lis}, nil
}

// Addr bound address
func (h *HealthServer) Addr() string {
	return h.lis.Addr().String()
}

// SetServing update the status of service ("" is the whole server)
func (h *HealthServer) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(service, status)
}

// Serve blocks until Stop
func (h *HealthServer) Serve() error {
	logger.Log.Info("grpc health server listening", zap.String("addr", h.Addr()))
	return h.server.Serve(h.lis)
}

// Stop graceful stop
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
