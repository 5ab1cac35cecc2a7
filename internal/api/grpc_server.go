package api

import (
	"context"
	"fmt"
	"net"

	"salonhub/internal/config"
	"salonhub/internal/domain"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCServer exposes AvailabilityService/GetAvailability and the standard
// grpc.health.v1 service on one listener.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	log      zerolog.Logger
}

func NewGRPCServer(cfg *config.APIConfig, svc domain.AvailabilityService, logger *zerolog.Logger) (*GRPCServer, error) {
	addr := fmt.Sprintf(":%d", cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpc listen %s: %w", addr, err)
	}

	srv, err := newGRPCServer(lis, cfg, svc, logger)
	if err != nil {
		lis.Close()
		return nil, err
	}
	return srv, nil
}

// newGRPCServer builds the server on an existing listener.
func newGRPCServer(lis net.Listener, cfg *config.APIConfig, svc domain.AvailabilityService, logger *zerolog.Logger) (*GRPCServer, error) {
	serverLogger := zerolog.Nop()
	if logger != nil {
		serverLogger = logger.With().Str("component", "grpc").Logger()
	}

	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(ChainUnaryInterceptors(
			LoggingUnaryInterceptor(&serverLogger),
			RateLimitUnaryInterceptor(newRateLimiter(cfg.RateLimit)),
		)),
	}
	if cfg.GRPC.TLS.Enabled {
		tlsCfg, err := buildTLSConfig(cfg.GRPC.TLS)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}

	server := grpc.NewServer(opts...)
	server.RegisterService(&availabilityServiceDesc, &availabilityGRPC{svc: svc})

	healthServer := health.NewServer()
	healthServer.SetServingStatus(availabilityServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return &GRPCServer{
		server:   server,
		health:   healthServer,
		listener: lis,
		log:      serverLogger,
	}, nil
}

func (s *GRPCServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve blocks until the server stops. A graceful stop returns nil.
func (s *GRPCServer) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("gRPC API listening")
	if err := s.server.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Shutdown flips health to NOT_SERVING, then drains in-flight calls until ctx
// expires and forces the rest closed.
func (s *GRPCServer) Shutdown(ctx context.Context) {
	if s.server == nil {
		return
	}
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("gRPC graceful shutdown timed out, forcing stop")
		s.server.Stop()
	}
}
