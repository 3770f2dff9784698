package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"

	xprocv1 "xproc/internal/api/xprocv1"
)

// Dial opens a gRPC connection to the daemon listening on socketPath.
func Dial(ctx context.Context, socketPath string) (xprocv1.XProcClient, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(
		socketTarget(socketPath),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(unixDialer(socketPath)),
	)
	if err != nil {
		return nil, nil, err
	}
	conn.Connect()
	if err := waitForReady(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return xprocv1.NewXProcClient(conn), conn, nil
}

func socketTarget(path string) string {
	if trimmed, ok := strings.CutPrefix(path, "/"); ok {
		return "unix:///" + trimmed
	}
	return "unix://" + path
}

func unixDialer(socketPath string) func(context.Context, string) (net.Conn, error) {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		if trimmed, ok := strings.CutPrefix(addr, "unix://"); ok {
			addr = trimmed
		}
		if addr == "" {
			addr = socketPath
		}
		var d net.Dialer
		return d.DialContext(ctx, "unix", addr)
	}
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		switch state := conn.GetState(); state {
		case connectivity.Ready:
			return nil
		case connectivity.Shutdown:
			return errors.New("grpc connection is shut down")
		default:
			if !conn.WaitForStateChange(ctx, state) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("grpc connection stuck in state %s", state.String())
			}
		}
	}
}
