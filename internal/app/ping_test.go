package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	xprocv1 "xproc/internal/api/xprocv1"
)

func TestAppPingNotRunning(t *testing.T) {
	stubDaemon(t, false, nil)

	app := New(Options{})
	if _, err := app.Ping(context.Background(), time.Second); err == nil || err.Error() != "daemon is not running" {
		t.Fatalf("expected daemon not running error, got %v", err)
	}
}

func TestAppPingSuccess(t *testing.T) {
	stubConn(t, func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
		if method != xprocv1.FullMethod(xprocv1.MethodPing) {
			t.Fatalf("unexpected method %s", method)
		}
		resp, ok := reply.(*wrapperspb.StringValue)
		if !ok {
			t.Fatalf("unexpected reply type %T", reply)
		}
		resp.Value = "pong"
		return nil
	})

	app := New(Options{})
	msg, err := app.Ping(context.Background(), 500*time.Millisecond)
	if err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
	if msg != "pong" {
		t.Fatalf("expected pong, got %q", msg)
	}
}

func TestAppPingDialError(t *testing.T) {
	stubDaemon(t, true, func(context.Context, string) (xprocv1.XProcClient, io.Closer, error) {
		return nil, nil, errors.New("dial failed")
	})

	app := New(Options{})
	if _, err := app.Ping(context.Background(), time.Second); err == nil || err.Error() != "connect to daemon: dial failed" {
		t.Fatalf("expected wrapped dial error, got %v", err)
	}
}

func TestAppPingInvalidTimeout(t *testing.T) {
	stubDaemon(t, true, func(context.Context, string) (xprocv1.XProcClient, io.Closer, error) {
		return nil, nil, errors.New("should not dial")
	})

	app := New(Options{})
	if _, err := app.Ping(context.Background(), 0); err == nil || err.Error() != "timeout must be greater than 0" {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestAppPingUsesConfiguredSocket(t *testing.T) {
	var dialed string
	stubDaemon(t, true, func(_ context.Context, sock string) (xprocv1.XProcClient, io.Closer, error) {
		dialed = sock
		return nil, nil, errors.New("stop here")
	})

	app := New(Options{})
	app.cfg.Socket = "/tmp/custom.sock"
	_, _ = app.Ping(context.Background(), time.Second)
	if dialed != "/tmp/custom.sock" {
		t.Fatalf("dialed %q", dialed)
	}
}
