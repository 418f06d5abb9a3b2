// Package rpc describes the hub's gRPC surface. Messages are protobuf
// well-known structpb.Struct values, so the service descriptor is written by
// hand instead of being generated from a .proto file.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chirper.hub.v1.Hub"

const (
	MethodPing           = "/" + ServiceName + "/Ping"
	MethodSignUp         = "/" + ServiceName + "/SignUp"
	MethodSignIn         = "/" + ServiceName + "/SignIn"
	MethodWhoAmI         = "/" + ServiceName + "/WhoAmI"
	MethodCreateDocument = "/" + ServiceName + "/CreateDocument"
	MethodGetDocument    = "/" + ServiceName + "/GetDocument"
	MethodUpdateDocument = "/" + ServiceName + "/UpdateDocument"
	MethodDeleteDocument = "/" + ServiceName + "/DeleteDocument"
	MethodRunQuery       = "/" + ServiceName + "/RunQuery"
	MethodListen         = "/" + ServiceName + "/Listen"
)

// HubServer is implemented by the hub's gRPC handler.
type HubServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignUp(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunQuery(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Listen(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

type unaryCall func(HubServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(HubServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(HubServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func listenHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(HubServer).Listen(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// HubServiceDesc is registered with grpc.Server.RegisterService.
var HubServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HubServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", HubServer.Ping),
		unary("SignUp", HubServer.SignUp),
		unary("SignIn", HubServer.SignIn),
		unary("WhoAmI", HubServer.WhoAmI),
		unary("CreateDocument", HubServer.CreateDocument),
		unary("GetDocument", HubServer.GetDocument),
		unary("UpdateDocument", HubServer.UpdateDocument),
		unary("DeleteDocument", HubServer.DeleteDocument),
		unary("RunQuery", HubServer.RunQuery),
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Listen", Handler: listenHandler, ServerStreams: true},
	},
	Metadata: "chirper/hub/v1",
}

// ListenStreamDesc is used by clients to open the Listen stream.
var ListenStreamDesc = &HubServiceDesc.Streams[0]
