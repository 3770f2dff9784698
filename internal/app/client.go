package app

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	xprocv1 "xproc/internal/api/xprocv1"
	"xproc/internal/daemon"
)

var errDaemonNotRunning = errors.New("daemon is not running")

var (
	daemonIsRunning  = daemon.IsRunning
	dialDaemonClient = dialDaemon
)

func dialDaemon(ctx context.Context, socketPath string) (xprocv1.XProcClient, io.Closer, error) {
	client, conn, err := daemon.Dial(ctx, socketPath)
	if err != nil {
		return nil, nil, err
	}
	return client, conn, nil
}

func resetDaemonDeps() {
	daemonIsRunning = daemon.IsRunning
	dialDaemonClient = dialDaemon
}

func wrapDial(err error) error {
	return errors.Wrap(err, "connect to daemon")
}

func (a *App) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
}

func (a *App) withClient(ctx context.Context, timeout time.Duration, fn func(context.Context, xprocv1.XProcClient) error) error {
	if timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	sock := a.SocketPath()
	if !daemonIsRunning(sock) {
		return errDaemonNotRunning
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, conn, err := dialDaemonClient(ctx, sock)
	if err != nil {
		return wrapDial(err)
	}
	if conn != nil {
		defer conn.Close()
	}

	return fn(ctx, client)
}
