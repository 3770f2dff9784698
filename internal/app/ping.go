package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/emptypb"

	xprocv1 "xproc/internal/api/xprocv1"
)

// Ping contacts the daemon and returns its health response.
func (a *App) Ping(ctx context.Context, timeout time.Duration) (string, error) {
	var msg string
	err := a.withClient(ctx, timeout, func(ctx context.Context, client xprocv1.XProcClient) error {
		resp, err := client.Ping(ctx, &emptypb.Empty{})
		if err != nil {
			return errors.Wrap(err, "daemon ping RPC failed")
		}
		msg = resp.GetValue()
		return nil
	})
	return msg, err
}
