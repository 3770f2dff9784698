//go:build freebsd

package registry

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"xproc/internal/argv"
)

// kinfo_proc offsets. ki_structsize is first; ki_pid and ki_ppid follow
// eight pointer-sized fields.
var (
	kinfoPIDOffset  = 8 + 8*int(unsafe.Sizeof(uintptr(0)))
	kinfoPPIDOffset = kinfoPIDOffset + 4
)

// kfPathOffset is where kf_path starts in a kinfo_file record.
const kfPathOffset = 368

type freebsdBackend struct {
	posix
}

func nativeBackend() Backend {
	return &freebsdBackend{}
}

type kinfo struct {
	pid, ppid PID
}

// parseKinfoProcs steps through kinfo_proc records by ki_structsize.
func parseKinfoProcs(raw []byte) []kinfo {
	out := []kinfo{}
	for len(raw) >= kinfoPPIDOffset+4 {
		size := int(binary.LittleEndian.Uint32(raw))
		if size < kinfoPPIDOffset+4 || size > len(raw) {
			break
		}
		out = append(out, kinfo{
			pid:  PID(int32(binary.LittleEndian.Uint32(raw[kinfoPIDOffset:]))),
			ppid: PID(int32(binary.LittleEndian.Uint32(raw[kinfoPPIDOffset:]))),
		})
		raw = raw[size:]
	}
	return out
}

func (b *freebsdBackend) table() ([]kinfo, error) {
	raw, err := unix.SysctlRaw("kern.proc.proc")
	if err != nil {
		return nil, errors.Wrap(classify(err), "kern.proc.proc")
	}
	return parseKinfoProcs(raw), nil
}

func (b *freebsdBackend) PIDs() ([]PID, error) {
	procs, err := b.table()
	if err != nil {
		return nil, err
	}
	out := make([]PID, 0, len(procs))
	for _, kp := range procs {
		out = append(out, kp.pid)
	}
	return out, nil
}

func (b *freebsdBackend) Parents() (map[PID]PID, error) {
	procs, err := b.table()
	if err != nil {
		return nil, err
	}
	m := make(map[PID]PID, len(procs))
	for _, kp := range procs {
		m[kp.pid] = kp.ppid
	}
	return m, nil
}

func (b *freebsdBackend) Parent(pid PID) (PID, error) {
	raw, err := unix.SysctlRaw("kern.proc.pid", pid)
	if err != nil {
		return 0, errors.Wrapf(classify(err), "kern.proc.pid %d", pid)
	}
	procs := parseKinfoProcs(raw)
	if len(procs) == 0 || procs[0].pid != pid {
		return 0, notFound(pid)
	}
	return procs[0].ppid, nil
}

func (b *freebsdBackend) ExecutablePath(pid PID) (string, error) {
	raw, err := unix.SysctlRaw("kern.proc.pathname", pid)
	if err != nil {
		return "", errors.Wrapf(classify(err), "kern.proc.pathname %d", pid)
	}
	return realpath(cString(raw)), nil
}

func (b *freebsdBackend) WorkingDirectory(pid PID) (string, error) {
	raw, err := unix.SysctlRaw("kern.proc.cwd", pid)
	if err != nil {
		return "", errors.Wrapf(classify(err), "kern.proc.cwd %d", pid)
	}
	if len(raw) <= kfPathOffset {
		return "", errors.Wrapf(ErrPartialRead, "kinfo_file of %d bytes", len(raw))
	}
	return cString(raw[kfPathOffset:]), nil
}

func (b *freebsdBackend) CommandLine(pid PID) ([]string, error) {
	raw, err := unix.SysctlRaw("kern.proc.args", pid)
	if err != nil {
		return nil, errors.Wrapf(classify(err), "kern.proc.args %d", pid)
	}
	return argv.SplitNUL(raw), nil
}

func (b *freebsdBackend) Environment(pid PID) ([]string, error) {
	raw, err := unix.SysctlRaw("kern.proc.env", pid)
	if err != nil {
		return nil, errors.Wrapf(classify(err), "kern.proc.env %d", pid)
	}
	return argv.SplitEnv(raw), nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

var _ Backend = (*freebsdBackend)(nil)
