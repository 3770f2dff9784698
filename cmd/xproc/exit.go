package main

import (
	"errors"

	"xproc/internal/registry"
)

// Exit codes under --strict.
const (
	exitNotFound    = 1
	exitPermission  = 2
	exitUnsupported = 3
	exitUsage       = 4
)

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &usage):
		return exitUsage
	case errors.Is(err, registry.ErrPermissionDenied):
		return exitPermission
	case errors.Is(err, registry.ErrUnsupported), errors.Is(err, registry.ErrPartialRead):
		return exitUnsupported
	}
	return exitNotFound
}
