//go:build linux

package registry

import (
	"github.com/pkg/errors"
	"github.com/prometheus/procfs"
)

type linuxBackend struct {
	posix
	fs    procfs.FS
	fsErr error
}

func nativeBackend() Backend {
	fs, err := procfs.NewDefaultFS()
	return &linuxBackend{fs: fs, fsErr: err}
}

func (b *linuxBackend) proc(pid PID) (procfs.Proc, error) {
	if b.fsErr != nil {
		return procfs.Proc{}, errors.Wrap(b.fsErr, "mount procfs")
	}
	p, err := b.fs.Proc(pid)
	if err != nil {
		return procfs.Proc{}, classify(err)
	}
	return p, nil
}

// PIDs lists /proc. Pid 0 is not in /proc but answers signal 0 on
// behalf of the caller's process group, so it leads the list when live.
func (b *linuxBackend) PIDs() ([]PID, error) {
	if b.fsErr != nil {
		return nil, errors.Wrap(b.fsErr, "mount procfs")
	}
	procs, err := b.fs.AllProcs()
	if err != nil {
		return nil, err
	}
	out := make([]PID, 0, len(procs)+1)
	if b.Probe(0) == nil {
		out = append(out, 0)
	}
	for _, p := range procs {
		out = append(out, p.PID)
	}
	return out, nil
}

func (b *linuxBackend) Parent(pid PID) (PID, error) {
	p, err := b.proc(pid)
	if err != nil {
		return 0, err
	}
	stat, err := p.Stat()
	if err != nil {
		return 0, classify(err)
	}
	return stat.PPID, nil
}

func (b *linuxBackend) ExecutablePath(pid PID) (string, error) {
	p, err := b.proc(pid)
	if err != nil {
		return "", err
	}
	exe, err := p.Executable()
	if err != nil {
		return "", classify(err)
	}
	return realpath(exe), nil
}

func (b *linuxBackend) WorkingDirectory(pid PID) (string, error) {
	p, err := b.proc(pid)
	if err != nil {
		return "", err
	}
	cwd, err := p.Cwd()
	if err != nil {
		return "", classify(err)
	}
	return realpath(cwd), nil
}

func (b *linuxBackend) CommandLine(pid PID) ([]string, error) {
	p, err := b.proc(pid)
	if err != nil {
		return nil, err
	}
	args, err := p.CmdLine()
	if err != nil {
		return nil, classify(err)
	}
	return args, nil
}

func (b *linuxBackend) Environment(pid PID) ([]string, error) {
	p, err := b.proc(pid)
	if err != nil {
		return nil, err
	}
	env, err := p.Environ()
	if err != nil {
		return nil, classify(err)
	}
	return env, nil
}

var _ Backend = (*linuxBackend)(nil)
