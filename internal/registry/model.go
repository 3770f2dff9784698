package registry

// PID identifies a process for as long as the operating system keeps it.
// Identifiers are recycled, so nothing here caches them.
type PID = int

// Record is a snapshot of one process, read fresh on every call.
type Record struct {
	PID     PID      `json:"pid"`
	PPID    PID      `json:"ppid"`
	Exe     string   `json:"exe"`
	Cwd     string   `json:"cwd,omitempty"`
	Cmdline []string `json:"cmdline"`
	Environ []string `json:"environ,omitempty"`
}

// ListFilter narrows a List call. Empty fields match everything.
type ListFilter struct {
	PIDs       []PID  // include only these pids
	Parents    []PID  // include children of any of these pids
	TextSearch string // substring over executable path and command line
}

// Backend is the per-platform process table. Implementations report
// failures with the kinds in errors.go.
type Backend interface {
	PIDs() ([]PID, error)
	Probe(pid PID) error
	Kill(pid PID) error
	Parent(pid PID) (PID, error)
	ExecutablePath(pid PID) (string, error)
	WorkingDirectory(pid PID) (string, error)
	CommandLine(pid PID) ([]string, error)
	Environment(pid PID) ([]string, error)
}

// parentTable is implemented by backends that learn every parent in one
// pass, which keeps ChildrenOf linear.
type parentTable interface {
	Parents() (map[PID]PID, error)
}
