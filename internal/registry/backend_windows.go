//go:build windows

package registry

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"xproc/internal/argv"
	"xproc/internal/peb"
)

type windowsBackend struct{}

func nativeBackend() Backend {
	return windowsBackend{}
}

// snapshot walks a toolhelp process snapshot in its native order.
func snapshot(visit func(pe *windows.ProcessEntry32)) error {
	h, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return errors.Wrap(err, "CreateToolhelp32Snapshot")
	}
	defer windows.CloseHandle(h)

	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	for err = windows.Process32First(h, &pe); err == nil; err = windows.Process32Next(h, &pe) {
		visit(&pe)
	}
	if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil
	}
	return errors.Wrap(err, "Process32Next")
}

func (windowsBackend) PIDs() ([]PID, error) {
	out := []PID{}
	err := snapshot(func(pe *windows.ProcessEntry32) {
		out = append(out, PID(pe.ProcessID))
	})
	return out, err
}

func (windowsBackend) Parents() (map[PID]PID, error) {
	m := map[PID]PID{}
	err := snapshot(func(pe *windows.ProcessEntry32) {
		m[PID(pe.ProcessID)] = PID(pe.ParentProcessID)
	})
	return m, err
}

// Probe has no signal 0 to lean on, so it scans the snapshot.
func (b windowsBackend) Probe(pid PID) error {
	found := false
	err := snapshot(func(pe *windows.ProcessEntry32) {
		if PID(pe.ProcessID) == pid {
			found = true
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return notFound(pid)
	}
	return nil
}

func (windowsBackend) Kill(pid PID) error {
	peb.EnableDebugPrivilege()
	h, err := openProcess(pid, windows.PROCESS_TERMINATE)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return errors.Wrapf(windows.TerminateProcess(h, 1), "TerminateProcess %d", pid)
}

func (b windowsBackend) Parent(pid PID) (PID, error) {
	parents, err := b.Parents()
	if err != nil {
		return 0, err
	}
	ppid, ok := parents[pid]
	if !ok {
		return 0, notFound(pid)
	}
	return ppid, nil
}

func (windowsBackend) ExecutablePath(pid PID) (string, error) {
	peb.EnableDebugPrivilege()
	h, err := openProcess(pid, windows.PROCESS_QUERY_LIMITED_INFORMATION)
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return "", errors.Wrapf(classify(err), "QueryFullProcessImageName %d", pid)
	}
	return windows.UTF16ToString(buf[:size]), nil
}

func (windowsBackend) WorkingDirectory(pid PID) (string, error) {
	p, err := openPEB(pid)
	if err != nil {
		return "", err
	}
	defer p.Close()
	cwd, err := p.CurrentDirectory()
	return cwd, classify(err)
}

func (windowsBackend) CommandLine(pid PID) ([]string, error) {
	p, err := openPEB(pid)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	cmd, err := p.CommandLine()
	if err != nil {
		return nil, classify(err)
	}
	return argv.SplitWindowsCommandLine(cmd), nil
}

func (windowsBackend) Environment(pid PID) ([]string, error) {
	p, err := openPEB(pid)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	env, err := p.Environment()
	return env, classify(err)
}

func openProcess(pid PID, access uint32) (windows.Handle, error) {
	h, err := windows.OpenProcess(access, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return 0, notFound(pid)
		}
		return 0, errors.Wrapf(classify(err), "OpenProcess %d", pid)
	}
	return h, nil
}

func openPEB(pid PID) (*peb.Process, error) {
	p, err := peb.Open(uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return nil, notFound(pid)
		}
		return nil, classify(err)
	}
	return p, nil
}

var _ Backend = windowsBackend{}
