package registry

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProc struct {
	ppid    PID
	exe     string
	cwd     string
	cmdline []string
	environ []string
	denied  bool
}

// fakeBackend is an in-memory process table.
type fakeBackend struct {
	procs  map[PID]*fakeProc
	order  []PID
	killed []PID
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{procs: map[PID]*fakeProc{}}
}

func (f *fakeBackend) add(pid PID, p fakeProc) *fakeBackend {
	f.procs[pid] = &p
	f.order = append(f.order, pid)
	return f
}

func (f *fakeBackend) get(pid PID) (*fakeProc, error) {
	p, ok := f.procs[pid]
	if !ok {
		return nil, notFound(pid)
	}
	return p, nil
}

func (f *fakeBackend) PIDs() ([]PID, error) {
	out := []PID{}
	for _, pid := range f.order {
		if _, ok := f.procs[pid]; ok {
			out = append(out, pid)
		}
	}
	return out, nil
}

func (f *fakeBackend) Probe(pid PID) error {
	p, err := f.get(pid)
	if err != nil {
		return err
	}
	if p.denied {
		return errors.Wrapf(ErrPermissionDenied, "pid %d", pid)
	}
	return nil
}

func (f *fakeBackend) Kill(pid PID) error {
	if err := f.Probe(pid); err != nil {
		return err
	}
	f.killed = append(f.killed, pid)
	delete(f.procs, pid)
	return nil
}

func (f *fakeBackend) Parent(pid PID) (PID, error) {
	p, err := f.get(pid)
	if err != nil {
		return 0, err
	}
	return p.ppid, nil
}

func (f *fakeBackend) ExecutablePath(pid PID) (string, error) {
	p, err := f.get(pid)
	if err != nil {
		return "", err
	}
	return p.exe, nil
}

func (f *fakeBackend) WorkingDirectory(pid PID) (string, error) {
	p, err := f.get(pid)
	if err != nil {
		return "", err
	}
	if p.cwd == "" {
		return "", ErrUnsupported
	}
	return p.cwd, nil
}

func (f *fakeBackend) CommandLine(pid PID) ([]string, error) {
	p, err := f.get(pid)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), p.cmdline...), nil
}

func (f *fakeBackend) Environment(pid PID) ([]string, error) {
	p, err := f.get(pid)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), p.environ...), nil
}

// sampleTree:
//
//	1 init
//	├── 10 /bin/sh -c app
//	│   └── 11 app
//	├── 20 daemon
//	└── 30 /bin/sh
//	    └── 31 /bin/sh
//	        └── 32 worker
func sampleTree() *fakeBackend {
	return newFakeBackend().
		add(1, fakeProc{ppid: 0, exe: "/sbin/init", cmdline: []string{"/sbin/init"}}).
		add(10, fakeProc{ppid: 1, exe: "/bin/dash", cmdline: []string{"/bin/sh", "-c", "app"}}).
		add(11, fakeProc{ppid: 10, exe: "/usr/bin/app", cwd: "/srv", cmdline: []string{"app", "--v"},
			environ: []string{"HOME=/root", "Path=/bin", "PATH=/usr/bin", "broken"}}).
		add(20, fakeProc{ppid: 1, exe: "/usr/sbin/daemon", cmdline: []string{"daemon"}, denied: true}).
		add(30, fakeProc{ppid: 1, exe: "/bin/dash", cmdline: []string{"/bin/sh"}}).
		add(31, fakeProc{ppid: 30, exe: "/bin/dash", cmdline: []string{"/bin/sh"}}).
		add(32, fakeProc{ppid: 31, exe: "/usr/bin/worker", cmdline: []string{"worker"}})
}

func TestEnumerateAndExists(t *testing.T) {
	r := NewWithBackend(sampleTree())

	assert.Equal(t, []PID{1, 10, 11, 20, 30, 31, 32}, r.Enumerate())
	for _, pid := range r.Enumerate() {
		if pid == 20 {
			continue
		}
		assert.True(t, r.Exists(pid), "pid %d", pid)
	}
	assert.False(t, r.Exists(99))
	assert.False(t, r.Exists(-1))
	assert.ErrorIs(t, r.Probe(99), ErrNotFound)
	assert.ErrorIs(t, r.Probe(-10), ErrNotFound)
}

func TestPermissionDeniedCollapses(t *testing.T) {
	r := NewWithBackend(sampleTree())

	assert.ErrorIs(t, r.Probe(20), ErrPermissionDenied)
	assert.False(t, r.Exists(20))
	assert.Empty(t, r.ExecutablePathOf(20))
	assert.Empty(t, r.CommandLineOf(20))

	_, err := r.LookupCommandLine(20)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestParentAndChildren(t *testing.T) {
	r := NewWithBackend(sampleTree())

	assert.Equal(t, PID(10), r.ParentOf(11))
	assert.Equal(t, PID(0), r.ParentOf(99))
	assert.Equal(t, []PID{10, 20, 30}, r.ChildrenOf(1))
	assert.Empty(t, r.ChildrenOf(32))
	assert.Empty(t, r.ChildrenOf(99))

	for _, child := range []PID{10, 30} {
		assert.Equal(t, PID(1), r.ParentOf(child))
	}
}

func TestDetailAccessors(t *testing.T) {
	r := NewWithBackend(sampleTree())

	assert.Equal(t, "/usr/bin/app", r.ExecutablePathOf(11))
	assert.Equal(t, "/srv", r.WorkingDirectoryOf(11))
	assert.Equal(t, []string{"app", "--v"}, r.CommandLineOf(11))

	assert.Empty(t, r.WorkingDirectoryOf(1))
	_, err := r.LookupWorkingDirectory(1)
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.NotNil(t, r.CommandLineOf(99))
	assert.Empty(t, r.CommandLineOf(99))
	assert.Empty(t, r.EnvironmentOf(99))
}

func TestEnvironmentValueFirstMatchIgnoringCase(t *testing.T) {
	r := NewWithBackend(sampleTree())

	v, ok := r.EnvironmentValueOf(11, "path")
	assert.True(t, ok)
	assert.Equal(t, "/bin", v)

	_, ok = r.EnvironmentValueOf(11, "broken")
	assert.False(t, ok)
	_, ok = r.EnvironmentValueOf(11, "MISSING")
	assert.False(t, ok)
	_, ok = r.EnvironmentValueOf(99, "HOME")
	assert.False(t, ok)
}

func TestEnvironmentOfSelfIsLive(t *testing.T) {
	self := os.Getpid()
	fb := newFakeBackend().add(self, fakeProc{environ: []string{"STALE=1"}})
	r := NewWithBackend(fb)

	t.Setenv("XPROC_LIVE_VAR", "fresh")
	v, ok := r.EnvironmentValueOf(self, "XPROC_LIVE_VAR")
	assert.True(t, ok)
	assert.Equal(t, "fresh", v)
	_, ok = r.EnvironmentValueOf(self, "STALE")
	assert.False(t, ok)
}

func TestKill(t *testing.T) {
	fb := sampleTree()
	r := NewWithBackend(fb)

	assert.True(t, r.Kill(32))
	assert.False(t, r.Exists(32))
	assert.False(t, r.Kill(32))
	assert.False(t, r.Kill(-1))
	assert.ErrorIs(t, r.LookupKill(20), ErrPermissionDenied)
	assert.Equal(t, []PID{32}, fb.killed)
}

func TestSkippingShell(t *testing.T) {
	old := skipsShells
	skipsShells = true
	t.Cleanup(func() { skipsShells = old })

	r := NewWithBackend(sampleTree())

	assert.Equal(t, PID(1), r.ParentOfSkippingShell(11))
	assert.Equal(t, PID(1), r.ParentOfSkippingShell(32))
	assert.Equal(t, PID(1), r.ParentOfSkippingShell(10))
	assert.Equal(t, []PID{11, 20, 32}, r.ChildrenOfSkippingShell(1))
	assert.Equal(t, []PID{32}, r.ChildrenOfSkippingShell(30))
}

func TestSkippingShellCycle(t *testing.T) {
	old := skipsShells
	skipsShells = true
	t.Cleanup(func() { skipsShells = old })

	fb := newFakeBackend().
		add(5, fakeProc{ppid: 6, cmdline: []string{"/bin/sh"}}).
		add(6, fakeProc{ppid: 5, cmdline: []string{"/bin/sh"}}).
		add(7, fakeProc{ppid: 5, cmdline: []string{"leaf"}})
	r := NewWithBackend(fb)

	assert.NotPanics(t, func() { r.ParentOfSkippingShell(7) })
	assert.Equal(t, []PID{7}, r.ChildrenOfSkippingShell(6))
}

func TestDescribe(t *testing.T) {
	r := NewWithBackend(sampleTree())

	rec, err := r.Describe(11)
	require.NoError(t, err)
	assert.Equal(t, Record{
		PID:     11,
		PPID:    10,
		Exe:     "/usr/bin/app",
		Cwd:     "/srv",
		Cmdline: []string{"app", "--v"},
		Environ: []string{"HOME=/root", "Path=/bin", "PATH=/usr/bin", "broken"},
	}, rec)

	_, err = r.Describe(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResultsDoNotAlias(t *testing.T) {
	r := NewWithBackend(sampleTree())

	first := r.CommandLineOf(11)
	second := r.CommandLineOf(10)
	first[0] = "mutated"
	assert.Equal(t, []string{"/bin/sh", "-c", "app"}, second)
	assert.Equal(t, []string{"app", "--v"}, r.CommandLineOf(11))
}

func TestList(t *testing.T) {
	r := NewWithBackend(sampleTree())

	all, err := r.List(ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 7)

	kids, err := r.List(ListFilter{Parents: []PID{1}})
	require.NoError(t, err)
	pids := make([]PID, 0, len(kids))
	for _, rec := range kids {
		pids = append(pids, rec.PID)
		assert.Equal(t, PID(1), rec.PPID)
	}
	assert.Equal(t, []PID{10, 20, 30}, pids)

	found, err := r.List(ListFilter{TextSearch: "worker"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, PID(32), found[0].PID)

	one, err := r.List(ListFilter{PIDs: []PID{11, 99}})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "/usr/bin/app", one[0].Exe)
}

func TestLocalAccessors(t *testing.T) {
	t.Setenv("XPROC_LOCAL", "x")
	assert.Equal(t, "x", EnvironmentGetVariable("XPROC_LOCAL"))
	assert.True(t, EnvironmentSetVariable("XPROC_LOCAL", "y"))
	assert.Equal(t, "y", EnvironmentGetVariable("XPROC_LOCAL"))
	assert.True(t, EnvironmentSetVariable("XPROC_LOCAL", ""))
	_, set := os.LookupEnv("XPROC_LOCAL")
	assert.False(t, set)

	dir := t.TempDir()
	orig := DirectoryGetCurrentWorking()
	require.NotEmpty(t, orig)
	t.Cleanup(func() { _ = os.Chdir(orig) })
	assert.True(t, DirectorySetCurrentWorking(dir))
	assert.False(t, DirectorySetCurrentWorking(dir+"/does-not-exist"))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(os.ErrNotExist), ErrNotFound)
	assert.ErrorIs(t, classify(os.ErrNotExist), os.ErrNotExist)
	assert.ErrorIs(t, classify(os.ErrPermission), ErrPermissionDenied)
	other := errors.New("boom")
	assert.Equal(t, other, classify(other))
}
