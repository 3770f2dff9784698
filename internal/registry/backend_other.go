//go:build !linux && !darwin && !freebsd && !windows

package registry

import (
	"os"

	"github.com/pkg/errors"
)

// unsupportedBackend serves platforms without a process table reader. Only
// the caller itself is known to exist.
type unsupportedBackend struct{}

func nativeBackend() Backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) PIDs() ([]PID, error) {
	return []PID{os.Getpid()}, nil
}

func (unsupportedBackend) Probe(pid PID) error {
	if pid == os.Getpid() {
		return nil
	}
	return errors.Wrapf(ErrUnsupported, "probe %d", pid)
}

func (unsupportedBackend) Kill(pid PID) error {
	return errors.Wrapf(ErrUnsupported, "kill %d", pid)
}

func (unsupportedBackend) Parent(pid PID) (PID, error) {
	if pid == os.Getpid() {
		return os.Getppid(), nil
	}
	return 0, errors.Wrapf(ErrUnsupported, "parent of %d", pid)
}

func (unsupportedBackend) ExecutablePath(pid PID) (string, error) {
	if pid == os.Getpid() {
		return os.Executable()
	}
	return "", errors.Wrapf(ErrUnsupported, "executable of %d", pid)
}

func (unsupportedBackend) WorkingDirectory(pid PID) (string, error) {
	if pid == os.Getpid() {
		return os.Getwd()
	}
	return "", errors.Wrapf(ErrUnsupported, "working directory of %d", pid)
}

func (unsupportedBackend) CommandLine(pid PID) ([]string, error) {
	if pid == os.Getpid() {
		return append([]string(nil), os.Args...), nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "command line of %d", pid)
}

func (unsupportedBackend) Environment(pid PID) ([]string, error) {
	if pid == os.Getpid() {
		return os.Environ(), nil
	}
	return nil, errors.Wrapf(ErrUnsupported, "environment of %d", pid)
}

var _ Backend = unsupportedBackend{}
