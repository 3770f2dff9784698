//go:build darwin && !cgo

package registry

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Without cgo there is no libproc: the process table comes from
// kern.proc.all and the working directory cannot be read.

func (b *darwinBackend) PIDs() ([]PID, error) {
	procs, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, errors.Wrap(err, "kern.proc.all")
	}
	out := make([]PID, 0, len(procs)+1)
	if b.Probe(0) == nil {
		out = append(out, 0)
	}
	for i := len(procs) - 1; i >= 0; i-- {
		if pid := PID(procs[i].Proc.P_pid); pid != 0 {
			out = append(out, pid)
		}
	}
	return out, nil
}

func (b *darwinBackend) Parents() (map[PID]PID, error) {
	procs, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, errors.Wrap(err, "kern.proc.all")
	}
	m := make(map[PID]PID, len(procs))
	for i := range procs {
		m[PID(procs[i].Proc.P_pid)] = PID(procs[i].Eproc.Ppid)
	}
	return m, nil
}

func (b *darwinBackend) Parent(pid PID) (PID, error) {
	kp, err := unix.SysctlKinfoProc("kern.proc.pid", pid)
	if err != nil {
		return 0, errors.Wrapf(classify(err), "kern.proc.pid %d", pid)
	}
	if PID(kp.Proc.P_pid) != pid {
		return 0, notFound(pid)
	}
	return PID(kp.Eproc.Ppid), nil
}

func (b *darwinBackend) ExecutablePath(pid PID) (string, error) {
	pa, err := b.procArgs(pid)
	if err != nil {
		return "", err
	}
	return realpath(pa.ExecPath), nil
}

func (b *darwinBackend) WorkingDirectory(pid PID) (string, error) {
	return "", errors.Wrap(ErrUnsupported, "working directory needs libproc")
}
