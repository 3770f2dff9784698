package xprocv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// XProcClient is the client API for the XProc service.
type XProcClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Enumerate(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Exists(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Kill(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	ParentOf(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	ChildrenOf(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Describe(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error)
	Getenv(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type xprocClient struct {
	cc grpc.ClientConnInterface
}

// NewXProcClient wraps cc.
func NewXProcClient(cc grpc.ClientConnInterface) XProcClient {
	return &xprocClient{cc}
}

func (c *xprocClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodPing), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) Enumerate(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodEnumerate), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) Exists(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodExists), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) Kill(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodKill), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) ParentOf(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, FullMethod(MethodParentOf), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) ChildrenOf(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodChildrenOf), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) Describe(ctx context.Context, in *wrapperspb.Int64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(MethodDescribe), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) Getenv(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodGetenv), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *xprocClient) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, FullMethod(MethodList), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
