package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/emptypb"

	xprocv1 "xproc/internal/api/xprocv1"
	"xproc/internal/registry"
)

// remoteBackend answers registry.Backend calls with daemon RPCs. Every
// call gets its own deadline. Per-attribute reads come from Describe, so
// an attribute the daemon could not read arrives empty rather than as an
// error.
type remoteBackend struct {
	client  xprocv1.XProcClient
	timeout time.Duration
}

var _ registry.Backend = (*remoteBackend)(nil)

func newRemoteBackend(client xprocv1.XProcClient, timeout time.Duration) *remoteBackend {
	return &remoteBackend{client: client, timeout: timeout}
}

func (b *remoteBackend) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}

func (b *remoteBackend) PIDs() ([]registry.PID, error) {
	ctx, cancel := b.ctx()
	defer cancel()
	list, err := b.client.Enumerate(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, xprocv1.KindError(err)
	}
	return xprocv1.PIDsFromList(list), nil
}

// Parents reads the whole parent table in one List call.
func (b *remoteBackend) Parents() (map[registry.PID]registry.PID, error) {
	ctx, cancel := b.ctx()
	defer cancel()
	list, err := b.client.List(ctx, xprocv1.ListRequest(registry.ListFilter{}))
	if err != nil {
		return nil, xprocv1.KindError(err)
	}
	recs := xprocv1.RecordsFromList(list)
	out := make(map[registry.PID]registry.PID, len(recs))
	for _, rec := range recs {
		out[rec.PID] = rec.PPID
	}
	return out, nil
}

func (b *remoteBackend) Probe(pid registry.PID) error {
	ctx, cancel := b.ctx()
	defer cancel()
	ok, err := b.client.Exists(ctx, xprocv1.PID(pid))
	if err != nil {
		return xprocv1.KindError(err)
	}
	if ok.GetValue() {
		return nil
	}
	// Exists collapses the failure kind; Describe reports it.
	if _, err := b.client.Describe(ctx, xprocv1.PID(pid)); err != nil {
		return xprocv1.KindError(err)
	}
	return nil
}

func (b *remoteBackend) Kill(pid registry.PID) error {
	ctx, cancel := b.ctx()
	defer cancel()
	ok, err := b.client.Kill(ctx, xprocv1.PID(pid))
	if err != nil {
		return xprocv1.KindError(err)
	}
	if ok.GetValue() {
		return nil
	}
	if err := b.Probe(pid); err != nil {
		return err
	}
	return errors.Errorf("daemon could not kill %d", pid)
}

func (b *remoteBackend) Parent(pid registry.PID) (registry.PID, error) {
	ctx, cancel := b.ctx()
	defer cancel()
	ppid, err := b.client.ParentOf(ctx, xprocv1.PID(pid))
	if err != nil {
		return 0, xprocv1.KindError(err)
	}
	return registry.PID(ppid.GetValue()), nil
}

func (b *remoteBackend) describe(pid registry.PID) (registry.Record, error) {
	ctx, cancel := b.ctx()
	defer cancel()
	s, err := b.client.Describe(ctx, xprocv1.PID(pid))
	if err != nil {
		return registry.Record{}, xprocv1.KindError(err)
	}
	return xprocv1.RecordFromStruct(s), nil
}

func (b *remoteBackend) ExecutablePath(pid registry.PID) (string, error) {
	rec, err := b.describe(pid)
	return rec.Exe, err
}

func (b *remoteBackend) WorkingDirectory(pid registry.PID) (string, error) {
	rec, err := b.describe(pid)
	return rec.Cwd, err
}

func (b *remoteBackend) CommandLine(pid registry.PID) ([]string, error) {
	rec, err := b.describe(pid)
	if err != nil {
		return []string{}, err
	}
	return rec.Cmdline, nil
}

func (b *remoteBackend) Environment(pid registry.PID) ([]string, error) {
	rec, err := b.describe(pid)
	if err != nil {
		return []string{}, err
	}
	return rec.Environ, nil
}
