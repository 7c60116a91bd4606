package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"

	"training-dashboard/pkg/dashboardpb"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Config for the gRPC endpoint
type Config struct {
	ListenAddr      string
	Workers         int
	MaxMessageBytes int
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":50051",
		Workers:         10,
		MaxMessageBytes: 16 << 20,
	}
}

// Server exposes a Service over insecure gRPC, together with the standard
// health service. Stop terminates immediately without draining streams.
type Server struct {
	cfg    Config
	logger *log.Logger
	grpc   *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
}

// New builds the gRPC server and registers svc on it.
func New(cfg Config, svc dashboardpb.DashboardServer, logger *log.Logger) *Server {
	def := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}

	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(dashboardpb.Codec{}),
		grpc.MaxRecvMsgSize(cfg.MaxMessageBytes),
	}
	if cfg.Workers > 0 {
		opts = append(opts, grpc.NumStreamWorkers(uint32(cfg.Workers)))
	}

	gs := grpc.NewServer(opts...)
	dashboardpb.RegisterDashboardServer(gs, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		cfg:    cfg,
		logger: logger,
		grpc:   gs,
		health: hs,
	}
}

// Listen binds the configured address. A bound port is a startup failure.
func (s *Server) Listen() error {
	lis, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(dashboardpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	s.logger.Printf("dashboard server listening on %s", lis.Addr())

	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Run listens (unless Listen was already called) and serves until ctx is
// cancelled, then stops the server.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	lis := s.listener
	s.mu.Unlock()
	if lis == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		s.mu.Lock()
		lis = s.listener
		s.mu.Unlock()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.Stop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop terminates all RPCs and closes listeners immediately.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.Stop()
	s.logger.Printf("dashboard server stopped")
}
