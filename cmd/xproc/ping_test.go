package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"xproc/internal/app"
	"xproc/internal/config"
	"xproc/internal/registry"
)

type stubController struct {
	pingFunc func(ctx context.Context, timeout time.Duration) (string, error)
	reg      *registry.Registry
}

func (s *stubController) Ping(ctx context.Context, timeout time.Duration) (string, error) {
	if s.pingFunc != nil {
		return s.pingFunc(ctx, timeout)
	}
	return "", errors.New("ping not implemented")
}

func (s *stubController) Registry() (*registry.Registry, io.Closer, error) {
	if s.reg == nil {
		return nil, nil, errors.New("registry not stubbed")
	}
	return s.reg, io.NopCloser(nil), nil
}

func (s *stubController) Remote() bool { return false }

func (s *stubController) Config() config.Config { return config.Default() }

func (s *stubController) ConfigPath() string { return "" }

func (s *stubController) List(ctx context.Context, params app.ListParams) ([]registry.Record, error) {
	panic("List not implemented")
}

func (s *stubController) Describe(ctx context.Context, pid registry.PID, timeout time.Duration) (registry.Record, error) {
	panic("Describe not implemented")
}

func (s *stubController) Kill(ctx context.Context, params app.KillParams) (app.KillResult, error) {
	panic("Kill not implemented")
}

func (s *stubController) Status() (app.DaemonStatus, error) {
	panic("Status not implemented")
}

func (s *stubController) StopDaemon(force bool) error {
	panic("StopDaemon not implemented")
}

func (s *stubController) StartDaemon() (*app.DaemonHandle, error) {
	panic("StartDaemon not implemented")
}

func withController(t *testing.T, stub controllerAPI) {
	t.Helper()
	origFactory := controllerFactory
	controllerFactory = func() controllerAPI {
		return stub
	}
	t.Cleanup(func() {
		controllerFactory = origFactory
	})
}

// resetFlags returns every flag of the command tree to its default so
// one test's options do not leak into the next.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	reset(rootCmd.Flags())
	for _, sub := range rootCmd.Commands() {
		reset(sub.Flags())
	}
}

func withPingOutput(t *testing.T) (*bytes.Buffer, func()) {
	t.Helper()
	buf := &bytes.Buffer{}
	origOut := cmdPing.OutOrStdout()
	cmdPing.SetOut(buf)
	return buf, func() {
		cmdPing.SetOut(origOut)
	}
}

func TestPingSuccess(t *testing.T) {
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			if timeout != 2*time.Second {
				t.Fatalf("expected timeout 2s, got %v", timeout)
			}
			return "pong", nil
		},
	})
	buf, restore := withPingOutput(t)
	defer restore()

	oldTimeout := pingTimeout
	pingTimeout = 2 * time.Second
	t.Cleanup(func() { pingTimeout = oldTimeout })

	if err := cmdPing.RunE(cmdPing, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != "pong\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestPingDefaultsToConfigTimeout(t *testing.T) {
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			if timeout != config.Default().RequestTimeout {
				t.Fatalf("expected config timeout, got %v", timeout)
			}
			return "pong", nil
		},
	})
	_, restore := withPingOutput(t)
	defer restore()

	oldTimeout := pingTimeout
	pingTimeout = 0
	t.Cleanup(func() { pingTimeout = oldTimeout })

	if err := cmdPing.RunE(cmdPing, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
}

func TestPingError(t *testing.T) {
	expected := errors.New("daemon down")
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			return "", expected
		},
	})
	oldTimeout := pingTimeout
	pingTimeout = time.Second
	t.Cleanup(func() { pingTimeout = oldTimeout })

	err := cmdPing.RunE(cmdPing, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}
