package catalog

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "catalogmirror.v1.CatalogSync"

const (
	triggerSyncMethod  = "/" + ServiceName + "/TriggerSync"
	getRecordMethod    = "/" + ServiceName + "/GetRecord"
	deleteRecordMethod = "/" + ServiceName + "/DeleteRecord"
)

// CatalogSyncServer is the server API for the CatalogSync service. Messages
// are protobuf well-known types so no generated code is needed.
type CatalogSyncServer interface {
	TriggerSync(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetRecord(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	DeleteRecord(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

// RegisterCatalogSyncServer registers srv on s.
func RegisterCatalogSyncServer(s grpc.ServiceRegistrar, srv CatalogSyncServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the CatalogSync service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogSyncServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "TriggerSync", Handler: triggerSyncHandler},
		{MethodName: "GetRecord", Handler: getRecordHandler},
		{MethodName: "DeleteRecord", Handler: deleteRecordHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func triggerSyncHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogSyncServer).TriggerSync(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: triggerSyncMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogSyncServer).TriggerSync(ctx, req.(*emptypb.Empty))
	})
}

func getRecordHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogSyncServer).GetRecord(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getRecordMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogSyncServer).GetRecord(ctx, req.(*wrapperspb.Int64Value))
	})
}

func deleteRecordHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogSyncServer).DeleteRecord(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: deleteRecordMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogSyncServer).DeleteRecord(ctx, req.(*wrapperspb.Int64Value))
	})
}

// Client calls the CatalogSync service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) TriggerSync(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, triggerSyncMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRecord(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, getRecordMethod, wrapperspb.Int64(id), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id int64, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, deleteRecordMethod, wrapperspb.Int64(id), new(emptypb.Empty), opts...)
}
