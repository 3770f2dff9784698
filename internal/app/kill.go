package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	xprocv1 "xproc/internal/api/xprocv1"
	"xproc/internal/registry"
)

// KillParams configures a batch kill.
type KillParams struct {
	PIDs    []registry.PID
	Timeout time.Duration
}

// KillEvent describes the outcome for one pid.
type KillEvent struct {
	Kind string
	PID  registry.PID
	Err  error
}

// KillResult aggregates the command outcome.
type KillResult struct {
	Events    []KillEvent
	Successes int
}

// Kill terminates every pid in params, in ascending order.
func (a *App) Kill(ctx context.Context, params KillParams) (KillResult, error) {
	var result KillResult
	if len(params.PIDs) == 0 {
		return result, errors.New("provide at least one pid")
	}
	pids := append([]registry.PID(nil), params.PIDs...)
	sort.Ints(pids)

	record := func(pid registry.PID, err error) {
		ev := KillEvent{Kind: "success", PID: pid}
		if err != nil {
			ev.Kind = "kill_failure"
			ev.Err = err
			logrus.WithFields(logrus.Fields{"pid": pid, "error": err}).Info("kill failed")
		} else {
			result.Successes++
		}
		result.Events = append(result.Events, ev)
	}

	if !a.remote {
		for _, pid := range pids {
			record(pid, a.local.LookupKill(pid))
		}
	} else {
		err := a.withClient(ctx, params.Timeout, func(ctx context.Context, client xprocv1.XProcClient) error {
			for _, pid := range pids {
				resp, err := client.Kill(ctx, xprocv1.PID(pid))
				switch {
				case err != nil:
					record(pid, errors.Wrap(xprocv1.KindError(err), "kill RPC failed"))
				case !resp.GetValue():
					record(pid, fmt.Errorf("daemon could not kill %d", pid))
				default:
					record(pid, nil)
				}
			}
			return nil
		})
		if err != nil {
			return result, err
		}
	}

	switch {
	case result.Successes == len(pids):
		return result, nil
	case result.Successes == 0:
		return result, errors.New("no processes were killed")
	default:
		return result, fmt.Errorf("partially successful: killed %d/%d processes", result.Successes, len(pids))
	}
}
