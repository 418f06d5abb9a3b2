// Package remote implements the client backend against a hub over gRPC.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/chirper/internal/client/backend"
	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/logging"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	backend.IdentityState

	endpointURL string
	conn        *grpc.ClientConn
	logger      logging.Logger
}

var _ backend.Backend = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// outgoingToken attaches the current token unless the call already carries
// one, and returns the token that will be sent.
func (c *GRPCClient) outgoingToken(ctx context.Context) (context.Context, string) {
	if md, ok := metadata.FromOutgoingContext(ctx); ok {
		if v := md.Get(common.AccessTokenHeaderName); len(v) > 0 {
			return ctx, v[0]
		}
	}
	token := c.Token()
	if token == "" {
		return ctx, ""
	}
	return withAccessToken(ctx, token), token
}

// dropRejected signs out when the hub rejects the token of the current
// identity.
func (c *GRPCClient) dropRejected(ctx context.Context, sent string, err error) {
	if sent == "" || sent != c.Token() {
		return
	}
	mapped := rpc.FromStatus(err)
	if errors.Is(mapped, common.ErrTokenExpired) || errors.Is(mapped, common.ErrInvalidToken) {
		c.logger.Info(ctx, "Session rejected by hub, signing out", "error", mapped)
		c.Set(nil)
	}
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	ctx, sent := c.outgoingToken(ctx)

	err := invoker(ctx, method, req, reply, cc, opts...)
	if err != nil {
		c.dropRejected(ctx, sent, err)
	}
	return err
}

func (c *GRPCClient) accessTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	ctx, _ = c.outgoingToken(ctx)
	return streamer(ctx, desc, cc, method, opts...)
}

// NewGRPCClient prepares a connection to endpointURL. No network traffic
// happens until the first call.
func NewGRPCClient(endpointURL string, logger logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, logger: logger.With("module", "grpc_client")}
	if err := c.initGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) initGRPCClient(extra ...grpc.DialOption) error {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.accessTokenStreamInterceptor),
	}, extra...)

	conn, err := grpc.NewClient(c.endpointURL, opts...)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, rpc.FromStatus(err)
	}
	return resp, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	req, err := rpc.EncodeStatus("")
	if err != nil {
		return err
	}
	resp, err := c.call(ctx, rpc.MethodPing, req)
	if err != nil {
		return err
	}
	if rpc.DecodeStatus(resp) != "OK" {
		return common.ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) signIn(ctx context.Context, method, email, password string) (*models.Identity, error) {
	req, err := rpc.EncodeCredentials(email, password)
	if err != nil {
		return nil, err
	}
	resp, err := c.call(ctx, method, req)
	if err != nil {
		return nil, err
	}
	id := rpc.DecodeIdentity(resp)
	c.Set(id)
	return id, nil
}

func (c *GRPCClient) CreateIdentity(ctx context.Context, email, password string) (*models.Identity, error) {
	return c.signIn(ctx, rpc.MethodSignUp, email, password)
}

func (c *GRPCClient) VerifyIdentity(ctx context.Context, email, password string) (*models.Identity, error) {
	return c.signIn(ctx, rpc.MethodSignIn, email, password)
}

func (c *GRPCClient) Resume(ctx context.Context, token string) (*models.Identity, error) {
	req, err := rpc.EncodeStatus("")
	if err != nil {
		return nil, err
	}
	resp, err := c.call(withAccessToken(ctx, token), rpc.MethodWhoAmI, req)
	if err != nil {
		return nil, err
	}
	id := rpc.DecodeIdentity(resp)
	if id.Token == "" {
		id.Token = token
	}
	c.Set(id)
	return id, nil
}

// SignOut forgets the token locally; tokens are not revocable on the hub.
func (c *GRPCClient) SignOut(_ context.Context) error {
	c.Set(nil)
	return nil
}

func (c *GRPCClient) OnIdentityChange(fn func(*models.Identity)) func() {
	return c.OnChange(fn)
}

func (c *GRPCClient) write(ctx context.Context, method string, w rpc.WriteRequest) (*structpb.Struct, error) {
	req, err := rpc.EncodeWrite(w)
	if err != nil {
		return nil, err
	}
	return c.call(ctx, method, req)
}

func (c *GRPCClient) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (string, error) {
	resp, err := c.write(ctx, rpc.MethodCreateDocument, rpc.WriteRequest{Collection: collection, ID: id, Fields: fields})
	if err != nil {
		return "", err
	}
	doc, err := rpc.DecodeDocument(resp)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (c *GRPCClient) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	resp, err := c.write(ctx, rpc.MethodGetDocument, rpc.WriteRequest{Collection: collection, ID: id})
	if err != nil {
		return nil, err
	}
	return rpc.DecodeDocument(resp)
}

func (c *GRPCClient) UpdateDocument(ctx context.Context, collection, id string, partial map[string]any) error {
	_, err := c.write(ctx, rpc.MethodUpdateDocument, rpc.WriteRequest{Collection: collection, ID: id, Fields: partial})
	return err
}

func (c *GRPCClient) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := c.write(ctx, rpc.MethodDeleteDocument, rpc.WriteRequest{Collection: collection, ID: id})
	return err
}

func (c *GRPCClient) Query(ctx context.Context, q models.Query) ([]*models.Document, error) {
	req, err := rpc.EncodeQuery(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidQuery, err)
	}
	resp, err := c.call(ctx, rpc.MethodRunQuery, req)
	if err != nil {
		return nil, err
	}
	return rpc.DecodeDocuments(resp)
}

// SubscribeQuery opens a Listen stream. Errors opening the stream are
// returned; everything after that goes to onError.
func (c *GRPCClient) SubscribeQuery(ctx context.Context, q models.Query,
	onSnapshot func([]*models.Document), onError func(error)) (backend.Subscription, error) {

	req, err := rpc.EncodeQuery(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidQuery, err)
	}

	l, lctx := backend.NewListener(ctx)

	stream, err := c.conn.NewStream(lctx, rpc.ListenStreamDesc, rpc.MethodListen)
	if err != nil {
		l.Cancel()
		return nil, rpc.FromStatus(err)
	}
	if err := stream.SendMsg(req); err != nil {
		l.Cancel()
		return nil, rpc.FromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		l.Cancel()
		return nil, rpc.FromStatus(err)
	}

	go func() {
		err := c.receive(stream, l, onSnapshot)
		if lctx.Err() != nil {
			err = nil
		}
		l.Finish(err, onError)
	}()

	return l, nil
}

func (c *GRPCClient) receive(stream grpc.ClientStream, l *backend.Listener, onSnapshot func([]*models.Document)) error {
	for {
		msg := &structpb.Struct{}
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: live query closed by hub", common.ErrUnavailable)
			}
			return rpc.FromStatus(err)
		}
		docs, err := rpc.DecodeDocuments(msg)
		if err != nil {
			return err
		}
		if !l.Active() {
			return nil
		}
		onSnapshot(docs)
	}
}
