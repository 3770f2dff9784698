//go:build linux || darwin || freebsd

package registry

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helperEnv = "XPROC_TEST_HELPER"

// TestMain doubles as a long-running child for the host tests: with
// XPROC_TEST_HELPER=1 the test binary announces itself and sleeps.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		fmt.Println("ready")
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func startHelper(t *testing.T, dir string) *exec.Cmd {
	t.Helper()
	cmd := &exec.Cmd{
		Path: os.Args[0],
		Args: []string{"echo", "hello world"},
		Env:  append(os.Environ(), helperEnv+"=1", "TESTVAR=42"),
		Dir:  dir,
	}
	out, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	line, err := bufio.NewReader(out).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ready\n", line)
	return cmd
}

func resolved(t *testing.T, path string) string {
	t.Helper()
	p, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return p
}

func TestHostSelf(t *testing.T) {
	r := New()
	self := r.SelfID()

	assert.Equal(t, os.Getpid(), self)
	assert.True(t, r.Exists(self))
	assert.True(t, r.Exists(0), "signal 0 to pid 0 targets our own process group")
	assert.Contains(t, r.Enumerate(), self)
	assert.Equal(t, os.Getppid(), r.ParentOfSelf())
	assert.Contains(t, r.ChildrenOf(r.ParentOfSelf()), self)

	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, resolved(t, exe), r.ExecutablePathOf(self))
}

func TestHostMatchesGopsutil(t *testing.T) {
	r := New()
	self := r.SelfID()

	p, err := process.NewProcess(int32(self))
	require.NoError(t, err)
	ppid, err := p.Ppid()
	require.NoError(t, err)
	assert.Equal(t, PID(ppid), r.ParentOf(self))

	ours := toSet(r.Enumerate())
	theirs, err := process.Pids()
	require.NoError(t, err)
	for _, pid := range theirs {
		if PID(pid) == self || PID(pid) == PID(ppid) {
			_, ok := ours[PID(pid)]
			assert.True(t, ok, "pid %d missing from enumeration", pid)
		}
	}
}

func TestHostChildLifecycle(t *testing.T) {
	r := New()
	dir := t.TempDir()
	cmd := startHelper(t, dir)
	child := cmd.Process.Pid

	require.True(t, r.Exists(child))
	assert.Equal(t, r.SelfID(), r.ParentOf(child))
	assert.Contains(t, r.ChildrenOf(r.SelfID()), child)
	assert.Equal(t, []string{"echo", "hello world"}, r.CommandLineOf(child))

	value, ok := r.EnvironmentValueOf(child, "TESTVAR")
	assert.True(t, ok)
	assert.Equal(t, "42", value)
	value, ok = r.EnvironmentValueOf(child, "testvar")
	assert.True(t, ok)
	assert.Equal(t, "42", value)

	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, resolved(t, exe), r.ExecutablePathOf(child))

	cwd, err := r.LookupWorkingDirectory(child)
	if errors.Is(err, ErrUnsupported) {
		t.Log("working directory not readable in this build")
	} else {
		require.NoError(t, err)
		assert.Equal(t, resolved(t, dir), cwd)
	}

	require.True(t, r.Kill(child))
	_ = cmd.Wait()
	assert.False(t, r.Exists(child))
	assert.Empty(t, r.CommandLineOf(child))
	assert.Empty(t, r.ExecutablePathOf(child))
	assert.Empty(t, r.WorkingDirectoryOf(child))
	assert.Empty(t, r.EnvironmentOf(child))
}
