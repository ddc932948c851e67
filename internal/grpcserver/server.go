// Package grpcserver serves the gRPC health protocol for the face
// verification engine.
package grpcserver

import (
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/faceunlock/internal/logging"
)

// VerificationService is the health service name reporting enrollment readiness.
const VerificationService = "faceunlock.FaceVerification"

// Server wraps a grpc.Server exposing grpc.health.v1.Health.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// New builds the server. The verification service starts NOT_SERVING until
// SetEnrolled(true) is called.
func New(logger *zap.Logger, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		logger: logger.Named("grpc"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(VerificationService, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetEnrolled reports whether the verification service can answer.
func (s *Server) SetEnrolled(enrolled bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if enrolled {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(VerificationService, status)
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil {
		wrapped := logging.NewOperationError("grpcserver.serve", "", err)
		s.logger.Error("gRPC server stopped", logging.ErrorField(wrapped))
		return wrapped
	}
	return nil
}

// Stop marks every service NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
