package grpc

import (
	"context"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const identityKey ctxKey = "identity"

// identityFrom returns the authenticated caller, or nil for anonymous calls.
func identityFrom(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	return id
}

func callerID(ctx context.Context) string {
	if id := identityFrom(ctx); id != nil {
		return id.ID
	}
	return ""
}

func accessToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// authenticate attaches the token's identity to ctx. Calls without a token
// stay anonymous and are judged by the permission rules; a token that does
// not verify is rejected outright.
func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	token := accessToken(ctx)
	if token == "" {
		return ctx, nil
	}
	identity, err := s.identities.Authenticate(ctx, token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return nil, rpc.ToStatus(err)
	}
	return context.WithValue(ctx, identityKey, identity), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (a *authenticatedStream) Context() context.Context {
	return a.ctx
}

func (s *GRPCServer) accessTokenStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	s.metrics.ObserveRequest(info.FullMethod, status.Code(err).String())
	return resp, err
}

func (s *GRPCServer) metricsStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	err := handler(srv, ss)
	s.metrics.ObserveRequest(info.FullMethod, status.Code(err).String())
	return err
}
