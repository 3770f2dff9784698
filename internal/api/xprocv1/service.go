// Package xprocv1 describes the xproc.v1.XProc gRPC service. Messages are
// protobuf well-known types, so no generated code is needed.
package xprocv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xproc.v1.XProc"

const (
	MethodPing       = "Ping"
	MethodEnumerate  = "Enumerate"
	MethodExists     = "Exists"
	MethodKill       = "Kill"
	MethodParentOf   = "ParentOf"
	MethodChildrenOf = "ChildrenOf"
	MethodDescribe   = "Describe"
	MethodGetenv     = "Getenv"
	MethodList       = "List"
)

// FullMethod returns the wire name of method, as interceptors see it.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// XProcServer is the server API for the XProc service.
type XProcServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	Enumerate(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Exists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	Kill(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error)
	ParentOf(context.Context, *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error)
	ChildrenOf(context.Context, *wrapperspb.Int64Value) (*structpb.ListValue, error)
	Describe(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	Getenv(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	List(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

// UnimplementedXProcServer answers every method with codes.Unimplemented.
// Embed it to stay forward compatible.
type UnimplementedXProcServer struct{}

func (UnimplementedXProcServer) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedXProcServer) Enumerate(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Enumerate not implemented")
}
func (UnimplementedXProcServer) Exists(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Exists not implemented")
}
func (UnimplementedXProcServer) Kill(context.Context, *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Kill not implemented")
}
func (UnimplementedXProcServer) ParentOf(context.Context, *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	return nil, status.Error(codes.Unimplemented, "method ParentOf not implemented")
}
func (UnimplementedXProcServer) ChildrenOf(context.Context, *wrapperspb.Int64Value) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method ChildrenOf not implemented")
}
func (UnimplementedXProcServer) Describe(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Describe not implemented")
}
func (UnimplementedXProcServer) Getenv(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Getenv not implemented")
}
func (UnimplementedXProcServer) List(context.Context, *structpb.Struct) (*structpb.ListValue, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}

// RegisterXProcServer attaches srv to s.
func RegisterXProcServer(s grpc.ServiceRegistrar, srv XProcServer) {
	s.RegisterService(&XProc_ServiceDesc, srv)
}

// unary builds the method descriptor the generated code would contain for
// a unary call.
func unary[Req, Resp proto.Message](name string, newReq func() Req, call func(XProcServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(XProcServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(XProcServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty         { return new(emptypb.Empty) }
func newInt64() *wrapperspb.Int64Value { return new(wrapperspb.Int64Value) }
func newStruct() *structpb.Struct      { return new(structpb.Struct) }

// XProc_ServiceDesc is the grpc.ServiceDesc for the XProc service.
var XProc_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*XProcServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, newEmpty, XProcServer.Ping),
		unary(MethodEnumerate, newEmpty, XProcServer.Enumerate),
		unary(MethodExists, newInt64, XProcServer.Exists),
		unary(MethodKill, newInt64, XProcServer.Kill),
		unary(MethodParentOf, newInt64, XProcServer.ParentOf),
		unary(MethodChildrenOf, newInt64, XProcServer.ChildrenOf),
		unary(MethodDescribe, newInt64, XProcServer.Describe),
		unary(MethodGetenv, newStruct, XProcServer.Getenv),
		unary(MethodList, newStruct, XProcServer.List),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xproc/v1/xproc.proto",
}
