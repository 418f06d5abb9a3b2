package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/chirper/internal/common"
	"github.com/dmitrijs2005/chirper/internal/models"
	"github.com/dmitrijs2005/chirper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// handler implements rpc.HubServer on top of GRPCServer's services.
type handler struct {
	s *GRPCServer
}

var _ rpc.HubServer = (*handler)(nil)

// fail logs unexpected errors and converts err to a gRPC status.
func (h *handler) fail(ctx context.Context, op string, err error) error {
	st := rpc.ToStatus(err)
	if errors.Is(rpc.FromStatus(st), common.ErrInternal) {
		h.s.logger.Error(ctx, op+" failed", "error", err)
	} else {
		h.s.logger.Debug(ctx, op+" rejected", "error", err)
	}
	return st
}

func (h *handler) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return rpc.EncodeStatus("OK")
}

func (h *handler) SignUp(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := rpc.DecodeCredentials(req)
	identity, err := h.s.identities.SignUp(ctx, email, password)
	if err != nil {
		return nil, h.fail(ctx, "sign up", err)
	}
	h.s.logger.Info(ctx, "Registered", "uid", identity.ID)
	return rpc.EncodeIdentity(identity)
}

func (h *handler) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email, password := rpc.DecodeCredentials(req)
	identity, err := h.s.identities.SignIn(ctx, email, password)
	if err != nil {
		return nil, h.fail(ctx, "sign in", err)
	}
	return rpc.EncodeIdentity(identity)
}

func (h *handler) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	identity := identityFrom(ctx)
	if identity == nil {
		return nil, rpc.ToStatus(common.ErrUnauthenticated)
	}
	return rpc.EncodeIdentity(identity)
}

func (h *handler) CreateDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	w := rpc.DecodeWrite(req)
	doc, err := h.s.documents.Create(ctx, callerID(ctx), w.Collection, w.ID, w.Fields)
	if err != nil {
		return nil, h.fail(ctx, "create document", err)
	}
	return rpc.EncodeDocument(doc)
}

func (h *handler) GetDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	w := rpc.DecodeWrite(req)
	doc, err := h.s.documents.Get(ctx, callerID(ctx), w.Collection, w.ID)
	if err != nil {
		return nil, h.fail(ctx, "get document", err)
	}
	return rpc.EncodeDocument(doc)
}

func (h *handler) UpdateDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	w := rpc.DecodeWrite(req)
	doc, err := h.s.documents.Update(ctx, callerID(ctx), w.Collection, w.ID, w.Fields)
	if err != nil {
		return nil, h.fail(ctx, "update document", err)
	}
	return rpc.EncodeDocument(doc)
}

func (h *handler) DeleteDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	w := rpc.DecodeWrite(req)
	if err := h.s.documents.Delete(ctx, callerID(ctx), w.Collection, w.ID); err != nil {
		return nil, h.fail(ctx, "delete document", err)
	}
	return rpc.EncodeID(w.ID)
}

func (h *handler) RunQuery(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	docs, err := h.s.documents.Query(ctx, callerID(ctx), rpc.DecodeQuery(req))
	if err != nil {
		return nil, h.fail(ctx, "query", err)
	}
	return rpc.EncodeDocuments(docs)
}

func (h *handler) Listen(req *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	q := rpc.DecodeQuery(req)

	err := h.s.documents.Listen(ctx, callerID(ctx), q, func(docs []*models.Document) error {
		msg, err := rpc.EncodeDocuments(docs)
		if err != nil {
			return err
		}
		return stream.Send(msg)
	})
	if err != nil {
		return h.fail(ctx, "listen", err)
	}
	return nil
}
