package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
)

// SocketBaseName is the UNIX socket filename
const SocketBaseName = "xproc.sock"

const pidFileName = "xprocd.pid"

// SocketPath returns the full path to the UNIX socket
// Order of precedence (first wins):
// 1) override (config "socket" or XPROC_SOCKET)
// 2) XPROC_RUNTIME_DIR
// 3) if runtime=linux:
//   - $XDG_RUNTIME_DIR or /run/user/<UID>
//     else (darwin, *bsd, windows):
//   - the temp dir
func SocketPath(override string) string {
	if override != "" {
		return override
	}

	uid := currentUID()

	if rd := os.Getenv("XPROC_RUNTIME_DIR"); rd != "" {
		return filepath.Join(rd, SocketBaseName)
	}

	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
			return filepath.Join(v, SocketBaseName)
		}
		return filepath.Join("/run/user", uid, SocketBaseName)
	}

	// keep it short to avoid the sun_path length limit
	return filepath.Join(os.TempDir(), "xproc-"+uid+".sock")
}

// EnsureRuntimeDir creates the directory holding socketPath.
func EnsureRuntimeDir(socketPath string) error {
	return os.MkdirAll(filepath.Dir(socketPath), 0o700)
}

// PIDPath returns the pid file that sits next to socketPath.
func PIDPath(socketPath string) string {
	return filepath.Join(filepath.Dir(socketPath), pidFileName)
}

// WritePID stores the provided pid into the pid file
func WritePID(socketPath string, pid int) error {
	if err := EnsureRuntimeDir(socketPath); err != nil {
		return err
	}
	return os.WriteFile(PIDPath(socketPath), []byte(fmt.Sprintf("%d\n", pid)), 0o600)
}

// RemovePID removes the pid file if it exists
func RemovePID(socketPath string) error {
	if err := os.Remove(PIDPath(socketPath)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// RunningPID returns the pid stored in the pid file if any
func RunningPID(socketPath string) (int, error) {
	data, err := os.ReadFile(PIDPath(socketPath))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, err
	}
	return pid, nil
}

// IsRunning tries to ping the daemon over gRPC and returns true if it responds.
func IsRunning(socketPath string) bool {
	if _, err := os.Stat(socketPath); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	client, conn, err := Dial(ctx, socketPath)
	if err != nil {
		return false
	}
	defer conn.Close()

	if _, err := client.Ping(ctx, &emptypb.Empty{}); err != nil {
		return false
	}
	return true
}

func currentUID() string {
	u, err := user.Current()
	if err == nil && u != nil && u.Uid != "" {
		return u.Uid
	}
	return "0"
}
