package registry

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"

	"xproc/internal/peb"
)

// Failure kinds returned by the Lookup and Probe family. The boolean and
// empty-value accessors collapse all of them.
var (
	ErrNotFound         = errors.New("process not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnsupported      = errors.New("not supported on this platform")
	ErrPartialRead      = peb.ErrPartialRead
)

// classify tags an operating system error with the matching kind while
// keeping the original error in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrUnsupported), errors.Is(err, ErrPartialRead):
		return err
	case errors.Is(err, os.ErrNotExist), errors.Is(err, syscall.ESRCH):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	return err
}

func notFound(pid PID) error {
	return errors.Wrapf(ErrNotFound, "pid %d", pid)
}
