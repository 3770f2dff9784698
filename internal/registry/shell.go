package registry

import "runtime"

// shellPath is the argv[0] that marks a wrapper shell spawned by system(3)
// or popen(3).
const shellPath = "/bin/sh"

// maxShellDepth bounds every shell-skipping walk. Pid reuse can turn the
// parent chain into a cycle.
const maxShellDepth = 64

// skipsShells is false on Windows, where no /bin/sh wrapper exists.
var skipsShells = runtime.GOOS != "windows"

func (r *Registry) isShell(pid PID) bool {
	if !skipsShells {
		return false
	}
	args := r.CommandLineOf(pid)
	return len(args) > 0 && args[0] == shellPath
}

// ParentOfSkippingShell returns the parent of pid, continuing upward while
// the parent found is a /bin/sh wrapper.
func (r *Registry) ParentOfSkippingShell(pid PID) PID {
	ppid := r.ParentOf(pid)
	for depth := 0; depth < maxShellDepth && ppid > 0 && ppid != pid && r.isShell(ppid); depth++ {
		pid, ppid = ppid, r.ParentOf(ppid)
	}
	return ppid
}

// ParentOfSelfSkippingShell is ParentOfSkippingShell for the caller.
func (r *Registry) ParentOfSelfSkippingShell() PID {
	return r.ParentOfSkippingShell(r.SelfID())
}

// ChildrenOfSkippingShell returns the children of ppid, replacing every
// /bin/sh wrapper child by its own children.
func (r *Registry) ChildrenOfSkippingShell(ppid PID) []PID {
	out := []PID{}
	seen := map[PID]bool{ppid: true}
	var walk func(parent PID, depth int)
	walk = func(parent PID, depth int) {
		for _, child := range r.ChildrenOf(parent) {
			if seen[child] {
				continue
			}
			seen[child] = true
			if depth < maxShellDepth && r.isShell(child) {
				walk(child, depth+1)
				continue
			}
			out = append(out, child)
		}
	}
	walk(ppid, 0)
	return out
}
