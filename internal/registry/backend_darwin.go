//go:build darwin

package registry

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"xproc/internal/argv"
)

type darwinBackend struct {
	posix
}

func nativeBackend() Backend {
	return &darwinBackend{}
}

// procArgs reads KERN_PROCARGS2, which carries the exec path, the
// argument vector and the environment of pid in one buffer.
func (b *darwinBackend) procArgs(pid PID) (argv.ProcArgs, error) {
	raw, err := unix.SysctlRaw("kern.procargs2", pid)
	if err != nil {
		return argv.ProcArgs{}, errors.Wrapf(classify(err), "kern.procargs2 %d", pid)
	}
	return argv.ParseProcArgs2(raw)
}

func (b *darwinBackend) CommandLine(pid PID) ([]string, error) {
	pa, err := b.procArgs(pid)
	if err != nil {
		return nil, err
	}
	return pa.Argv, nil
}

func (b *darwinBackend) Environment(pid PID) ([]string, error) {
	pa, err := b.procArgs(pid)
	if err != nil {
		return nil, err
	}
	return pa.Env, nil
}

var _ Backend = (*darwinBackend)(nil)
