package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	xprocv1 "xproc/internal/api/xprocv1"
	"xproc/internal/registry"
)

// service implements the XProc gRPC service backed by the registry.
type service struct {
	xprocv1.UnimplementedXProcServer

	reg *registry.Registry
}

func (s *service) Ping(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("pong"), nil
}

func (s *service) Enumerate(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	pids, err := s.reg.LookupEnumerate()
	if err != nil {
		return nil, xprocv1.StatusError(err)
	}
	return xprocv1.PIDList(pids), nil
}

func (s *service) Exists(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	return wrapperspb.Bool(s.reg.Exists(registry.PID(req.GetValue()))), nil
}

func (s *service) Kill(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.BoolValue, error) {
	pid := registry.PID(req.GetValue())
	// pid 0 would signal the daemon's own process group.
	if pid <= 0 {
		logrus.WithField("pid", pid).Warn("kill rejected")
		return wrapperspb.Bool(false), nil
	}
	err := s.reg.LookupKill(pid)
	if err != nil {
		logrus.WithFields(logrus.Fields{"pid": pid, "error": err}).Info("kill failed")
	}
	return wrapperspb.Bool(err == nil), nil
}

func (s *service) ParentOf(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.Int64Value, error) {
	ppid, err := s.reg.LookupParent(registry.PID(req.GetValue()))
	if err != nil {
		return nil, xprocv1.StatusError(err)
	}
	return xprocv1.PID(ppid), nil
}

func (s *service) ChildrenOf(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.ListValue, error) {
	pids, err := s.reg.LookupChildren(registry.PID(req.GetValue()))
	if err != nil {
		return nil, xprocv1.StatusError(err)
	}
	return xprocv1.PIDList(pids), nil
}

func (s *service) Describe(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	rec, err := s.reg.Describe(registry.PID(req.GetValue()))
	if err != nil {
		return nil, xprocv1.StatusError(err)
	}
	return xprocv1.RecordStruct(rec), nil
}

func (s *service) Getenv(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	pid, name, err := xprocv1.ParseGetenvRequest(req)
	if err != nil {
		return nil, err
	}
	value, ok, err := s.reg.LookupEnvironmentValue(pid, name)
	if err != nil {
		return nil, xprocv1.StatusError(err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "%s not set in pid %d", name, pid)
	}
	return wrapperspb.String(value), nil
}

func (s *service) List(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	recs, err := s.reg.List(xprocv1.ParseListRequest(req))
	if err != nil {
		return nil, xprocv1.StatusError(err)
	}
	return xprocv1.RecordList(recs), nil
}

// logRequests logs every call at debug level and failures at warning.
func logRequests(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		entry := logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"duration": time.Since(start),
		})
		if err != nil && status.Code(err) != codes.NotFound {
			entry.WithError(err).Warn("request failed")
		} else {
			entry.Debug("request served")
		}
		return resp, err
	}
}

// NewGRPCServer returns a gRPC server exposing reg.
func NewGRPCServer(reg *registry.Registry, logger logrus.FieldLogger) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(logRequests(logger)))
	xprocv1.RegisterXProcServer(srv, &service{reg: reg})
	return srv
}
