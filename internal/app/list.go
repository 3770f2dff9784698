package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	xprocv1 "xproc/internal/api/xprocv1"
	"xproc/internal/registry"
)

// ListParams defines filters and timeout.
type ListParams struct {
	Filter  registry.ListFilter
	Timeout time.Duration
}

func validateFilter(f registry.ListFilter) error {
	for _, pid := range f.PIDs {
		if pid <= 0 {
			return fmt.Errorf("invalid pid filter: %d", pid)
		}
	}
	for _, pid := range f.Parents {
		if pid < 0 {
			return fmt.Errorf("invalid parent filter: %d", pid)
		}
	}
	return nil
}

// List returns the processes matching the filter, sorted by pid.
func (a *App) List(ctx context.Context, params ListParams) ([]registry.Record, error) {
	if err := validateFilter(params.Filter); err != nil {
		return nil, err
	}
	if !a.remote {
		return a.local.List(params.Filter)
	}

	var recs []registry.Record
	err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client xprocv1.XProcClient) error {
		resp, err := client.List(ctx, xprocv1.ListRequest(params.Filter))
		if err != nil {
			return errors.Wrap(xprocv1.KindError(err), "daemon list RPC failed")
		}
		recs = xprocv1.RecordsFromList(resp)
		return nil
	})
	return recs, err
}

// Describe reads every attribute of pid.
func (a *App) Describe(ctx context.Context, pid registry.PID, timeout time.Duration) (registry.Record, error) {
	if !a.remote {
		return a.local.Describe(pid)
	}

	rec := registry.Record{PID: pid}
	err := a.withClient(ctx, timeout, func(ctx context.Context, client xprocv1.XProcClient) error {
		resp, err := client.Describe(ctx, xprocv1.PID(pid))
		if err != nil {
			return errors.Wrap(xprocv1.KindError(err), "daemon describe RPC failed")
		}
		rec = xprocv1.RecordFromStruct(resp)
		return nil
	})
	return rec, err
}
