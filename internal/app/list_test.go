package app

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	xprocv1 "xproc/internal/api/xprocv1"
	"xproc/internal/registry"
)

func TestAppListRejectsInvalidPIDFilter(t *testing.T) {
	app := New(Options{})
	_, err := app.List(context.Background(), ListParams{
		Timeout: time.Second,
		Filter:  registry.ListFilter{PIDs: []registry.PID{1, -2}},
	})
	if err == nil || err.Error() != "invalid pid filter: -2" {
		t.Fatalf("expected pid validation error, got %v", err)
	}
}

func TestAppListLocalFindsSelf(t *testing.T) {
	app := New(Options{})
	recs, err := app.List(context.Background(), ListParams{
		Filter: registry.ListFilter{PIDs: []registry.PID{os.Getpid()}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, os.Getpid(), recs[0].PID)
}

func TestAppListDaemonNotRunning(t *testing.T) {
	stubDaemon(t, false, nil)
	app := New(Options{Remote: true})
	_, err := app.List(context.Background(), ListParams{Timeout: time.Second})
	if err == nil || err.Error() != "daemon is not running" {
		t.Fatalf("expected daemon not running error, got %v", err)
	}
}

func TestAppListDialError(t *testing.T) {
	stubDaemon(t, true, func(context.Context, string) (xprocv1.XProcClient, io.Closer, error) {
		return nil, nil, errors.New("dial failed")
	})
	app := New(Options{Remote: true})
	_, err := app.List(context.Background(), ListParams{Timeout: time.Second})
	if err == nil || err.Error() != "connect to daemon: dial failed" {
		t.Fatalf("expected dial error, got %v", err)
	}
}

func TestAppListRemoteSuccess(t *testing.T) {
	var captured registry.ListFilter
	stubConn(t, func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
		req, ok := args.(*structpb.Struct)
		if !ok {
			t.Fatalf("unexpected args type %T", args)
		}
		captured = xprocv1.ParseListRequest(req)
		resp := reply.(*structpb.ListValue)
		resp.Values = xprocv1.RecordList([]registry.Record{
			{PID: 1234, PPID: 1, Exe: "/bin/svc", Cmdline: []string{"svc"}},
		}).GetValues()
		return nil
	})

	params := ListParams{
		Timeout: 750 * time.Millisecond,
		Filter:  registry.ListFilter{PIDs: []registry.PID{1234}, Parents: []registry.PID{1}, TextSearch: "svc"},
	}
	app := New(Options{Remote: true})
	recs, err := app.List(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, registry.PID(1234), recs[0].PID)
	assert.Equal(t, "/bin/svc", recs[0].Exe)
	assert.Equal(t, params.Filter, captured)
}

func TestAppDescribeRemoteMapsKinds(t *testing.T) {
	stubConn(t, func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
		return status.Error(codes.PermissionDenied, "pid 1")
	})
	app := New(Options{Remote: true})
	_, err := app.Describe(context.Background(), 1, time.Second)
	assert.ErrorIs(t, err, registry.ErrPermissionDenied)
}
