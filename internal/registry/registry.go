// Package registry answers questions about running processes: which exist,
// how they relate, and what executable, directory, command line and
// environment each one has. One Backend per platform does the reading.
package registry

import (
	"os"

	"github.com/pkg/errors"
)

// Registry is safe for concurrent use. It holds no process state of its
// own; every call goes to the operating system.
type Registry struct {
	b Backend
}

// New returns a registry over the native backend of this build.
func New() *Registry {
	return &Registry{b: nativeBackend()}
}

// NewWithBackend returns a registry over b.
func NewWithBackend(b Backend) *Registry {
	return &Registry{b: b}
}

// Probe reports whether pid is live: nil, ErrNotFound, ErrPermissionDenied
// or ErrUnsupported. Negative pids name process groups on POSIX and are
// never live here.
func (r *Registry) Probe(pid PID) error {
	if pid < 0 {
		return notFound(pid)
	}
	return classify(r.b.Probe(pid))
}

// Exists reports whether pid is live and signalable by the caller.
func (r *Registry) Exists(pid PID) bool {
	return r.Probe(pid) == nil
}

// LookupEnumerate lists live pids in operating system order.
func (r *Registry) LookupEnumerate() ([]PID, error) {
	pids, err := r.b.PIDs()
	if err != nil {
		return []PID{}, errors.Wrap(classify(err), "enumerate processes")
	}
	return pids, nil
}

// Enumerate lists live pids, or nothing when the table cannot be read.
func (r *Registry) Enumerate() []PID {
	pids, _ := r.LookupEnumerate()
	return pids
}

// Kill forcibly terminates pid.
func (r *Registry) Kill(pid PID) bool {
	if pid < 0 {
		return false
	}
	return r.b.Kill(pid) == nil
}

// LookupKill is Kill with the failure kind.
func (r *Registry) LookupKill(pid PID) error {
	if pid < 0 {
		return notFound(pid)
	}
	return errors.Wrapf(classify(r.b.Kill(pid)), "kill %d", pid)
}

// SelfID returns the pid of the calling process.
func (r *Registry) SelfID() PID {
	return os.Getpid()
}

// LookupParent returns the parent of pid.
func (r *Registry) LookupParent(pid PID) (PID, error) {
	if err := r.Probe(pid); err != nil {
		return 0, err
	}
	ppid, err := r.b.Parent(pid)
	if err != nil {
		return 0, errors.Wrapf(classify(err), "parent of %d", pid)
	}
	return ppid, nil
}

// ParentOf returns the parent of pid, or 0 when it is unknown.
func (r *Registry) ParentOf(pid PID) PID {
	ppid, _ := r.LookupParent(pid)
	return ppid
}

// ParentOfSelf returns the parent of the calling process.
func (r *Registry) ParentOfSelf() PID {
	return r.ParentOf(r.SelfID())
}

// LookupChildren returns every live pid whose parent is ppid.
func (r *Registry) LookupChildren(ppid PID) ([]PID, error) {
	if err := r.Probe(ppid); err != nil {
		return []PID{}, err
	}
	parents, err := r.parents()
	if err != nil {
		return []PID{}, errors.Wrapf(err, "children of %d", ppid)
	}
	pids, err := r.LookupEnumerate()
	if err != nil {
		return []PID{}, err
	}
	out := []PID{}
	for _, pid := range pids {
		if pid == ppid {
			continue
		}
		if parent, ok := parents[pid]; ok && parent == ppid {
			out = append(out, pid)
		}
	}
	return out, nil
}

// ChildrenOf returns the children of ppid, or nothing.
func (r *Registry) ChildrenOf(ppid PID) []PID {
	pids, _ := r.LookupChildren(ppid)
	return pids
}

// parents maps every pid to its parent, from one table read when the
// backend can, otherwise one lookup per pid. Processes that vanish in
// between are left out.
func (r *Registry) parents() (map[PID]PID, error) {
	if pt, ok := r.b.(parentTable); ok {
		m, err := pt.Parents()
		if err != nil {
			return nil, classify(err)
		}
		return m, nil
	}
	pids, err := r.b.PIDs()
	if err != nil {
		return nil, classify(err)
	}
	m := make(map[PID]PID, len(pids))
	for _, pid := range pids {
		if ppid, err := r.b.Parent(pid); err == nil {
			m[pid] = ppid
		}
	}
	return m, nil
}

// LookupExecutablePath returns the absolute, symlink-resolved path of the
// image pid is running.
func (r *Registry) LookupExecutablePath(pid PID) (string, error) {
	if err := r.Probe(pid); err != nil {
		return "", err
	}
	exe, err := r.b.ExecutablePath(pid)
	if err != nil {
		return "", errors.Wrapf(classify(err), "executable of %d", pid)
	}
	return exe, nil
}

// ExecutablePathOf returns the executable path of pid, or "".
func (r *Registry) ExecutablePathOf(pid PID) string {
	exe, _ := r.LookupExecutablePath(pid)
	return exe
}

// LookupWorkingDirectory returns the current directory of pid.
func (r *Registry) LookupWorkingDirectory(pid PID) (string, error) {
	if err := r.Probe(pid); err != nil {
		return "", err
	}
	cwd, err := r.b.WorkingDirectory(pid)
	if err != nil {
		return "", errors.Wrapf(classify(err), "working directory of %d", pid)
	}
	return cwd, nil
}

// WorkingDirectoryOf returns the current directory of pid, or "".
func (r *Registry) WorkingDirectoryOf(pid PID) string {
	cwd, _ := r.LookupWorkingDirectory(pid)
	return cwd
}

// LookupCommandLine returns the argument vector of pid.
func (r *Registry) LookupCommandLine(pid PID) ([]string, error) {
	if err := r.Probe(pid); err != nil {
		return []string{}, err
	}
	args, err := r.b.CommandLine(pid)
	if err != nil {
		return []string{}, errors.Wrapf(classify(err), "command line of %d", pid)
	}
	return args, nil
}

// CommandLineOf returns the argument vector of pid, or an empty slice.
func (r *Registry) CommandLineOf(pid PID) []string {
	args, _ := r.LookupCommandLine(pid)
	return args
}

// LookupEnvironment returns the NAME=VALUE entries of pid. For the calling
// process this is the live environment, which includes changes made after
// start.
func (r *Registry) LookupEnvironment(pid PID) ([]string, error) {
	if err := r.Probe(pid); err != nil {
		return []string{}, err
	}
	if pid == r.SelfID() {
		return os.Environ(), nil
	}
	env, err := r.b.Environment(pid)
	if err != nil {
		return []string{}, errors.Wrapf(classify(err), "environment of %d", pid)
	}
	return env, nil
}

// EnvironmentOf returns the environment of pid, or an empty slice.
func (r *Registry) EnvironmentOf(pid PID) []string {
	env, _ := r.LookupEnvironment(pid)
	return env
}

// Describe reads every attribute of pid. Attributes that fail to read on
// their own are left empty; the error is returned only when pid itself
// is gone or out of reach.
func (r *Registry) Describe(pid PID) (Record, error) {
	rec := Record{PID: pid}
	if err := r.Probe(pid); err != nil {
		return rec, err
	}
	rec.PPID = r.ParentOf(pid)
	rec.Exe = r.ExecutablePathOf(pid)
	rec.Cwd = r.WorkingDirectoryOf(pid)
	rec.Cmdline = r.CommandLineOf(pid)
	rec.Environ = r.EnvironmentOf(pid)
	return rec, nil
}
