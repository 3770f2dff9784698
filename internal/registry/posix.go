//go:build linux || darwin || freebsd

package registry

import (
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// posix holds the signal based operations shared by the unix backends.
type posix struct{}

// Probe sends signal 0. EPERM means the process exists but belongs to
// someone else.
func (posix) Probe(pid PID) error {
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EPERM):
		return errors.Wrapf(ErrPermissionDenied, "signal pid %d", pid)
	case errors.Is(err, unix.ESRCH):
		return notFound(pid)
	}
	return errors.Wrapf(err, "signal pid %d", pid)
}

func (posix) Kill(pid PID) error {
	if err := unix.Kill(pid, unix.SIGKILL); err != nil {
		return classify(err)
	}
	return nil
}

// realpath resolves the symlink target the kernel reports. Targets that
// no longer resolve, such as deleted executables, are returned as read.
func realpath(path string) string {
	if path == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}
