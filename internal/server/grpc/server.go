// Package grpc exposes the hub's identity and document services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/rpc"
	"github.com/dmitrijs2005/chirper/internal/server/metrics"
	"github.com/dmitrijs2005/chirper/internal/server/realtime"
	"google.golang.org/grpc"
)

// IdentityService is the part of services.IdentityService used here.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	Authenticate(ctx context.Context, token string) (*models.Identity, error)
}

// DocumentService is the part of services.DocumentService used here.
type DocumentService interface {
	Create(ctx context.Context, caller, collection, id string, fields map[string]any) (*models.Document, error)
	Get(ctx context.Context, caller, collection, id string) (*models.Document, error)
	Update(ctx context.Context, caller, collection, id string, fields map[string]any) (*models.Document, error)
	Delete(ctx context.Context, caller, collection, id string) error
	Query(ctx context.Context, caller string, q models.Query) ([]*models.Document, error)
	Listen(ctx context.Context, caller string, q models.Query, send realtime.SendFunc) error
}

// shutdownGrace bounds GracefulStop. Live listeners only end when their
// client goes away.
const shutdownGrace = 5 * time.Second

type GRPCServer struct {
	address    string
	identities IdentityService
	documents  DocumentService
	logger     logging.Logger
	metrics    *metrics.Metrics
}

func NewGRPCServer(address string, l logging.Logger, is IdentityService, ds DocumentService, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:    address,
		logger:     l.With("module", "grpc_server"),
		identities: is,
		documents:  ds,
		metrics:    m,
	}
}

// NewServer builds a grpc.Server with the hub service and interceptors
// registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.metricsStreamInterceptor, s.accessTokenStreamInterceptor),
	)
	srv.RegisterService(&rpc.HubServiceDesc, &handler{s: s})
	return srv
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		force := time.AfterFunc(shutdownGrace, srv.Stop)
		srv.GracefulStop()
		force.Stop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}
