// internal/server/grpc_server.go
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"wallet-sync-service/internal/handler"
)

var grpcRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "grpc_requests_total",
		Help: "Total number of gRPC requests by method and status code",
	},
	[]string{"method", "code"},
)

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
	addr   string
	logger *zap.Logger
}

func NewGRPCServer(walletHandler *handler.WalletHandler, addr string, logger *zap.Logger) *GRPCServer {
	s := &GRPCServer{
		health: health.NewServer(),
		addr:   addr,
		logger: logger,
	}

	s.server = grpc.NewServer(
		grpc.MaxRecvMsgSize(10*1024*1024), // 10MB
		grpc.MaxSendMsgSize(10*1024*1024), // 10MB
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           1 * time.Minute,
		}),
		grpc.ChainUnaryInterceptor(s.unaryInterceptor),
		grpc.ChainStreamInterceptor(s.streamInterceptor),
	)

	// Register services
	handler.RegisterWalletSyncServer(s.server, walletHandler)
	healthpb.RegisterHealthServer(s.server, s.health)
	s.health.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Register reflection service (for grpcurl, Postman, etc.)
	reflection.Register(s.server)

	return s
}

// Serve serves on an existing listener
func (s *GRPCServer) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))

	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Start listens on the configured address and serves
func (s *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Stop gracefully stops the gRPC server
func (s *GRPCServer) Stop() {
	s.logger.Info("Stopping gRPC server")
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) unaryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	next grpc.UnaryHandler,
) (interface{}, error) {

	start := time.Now()
	resp, err := next(ctx, req)
	s.observe(info.FullMethod, start, err)
	return resp, err
}

func (s *GRPCServer) streamInterceptor(
	srv interface{},
	ss grpc.ServerStream,
	info *grpc.StreamServerInfo,
	next grpc.StreamHandler,
) error {

	start := time.Now()
	err := next(srv, ss)
	s.observe(info.FullMethod, start, err)
	return err
}

func (s *GRPCServer) observe(method string, start time.Time, err error) {
	code := status.Code(err)
	grpcRequests.WithLabelValues(method, code.String()).Inc()

	s.logger.Debug("gRPC request",
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("took", time.Since(start)),
	)
}
