package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"xproc/internal/registry"
)

// Server wraps the gRPC server and its UNIX listener
type Server struct {
	grpc *grpc.Server
	ln   net.Listener
	path string
	done chan struct{}
}

// Path returns the socket the server listens on.
func (s *Server) Path() string {
	return s.path
}

// Close stops the server and unlinks the socket
func (s *Server) Close() error {
	if s.grpc != nil {
		s.grpc.GracefulStop()
		<-s.done
	}
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return RemovePID(s.path)
}

// StartDaemon binds socketPath and serves reg on it in the background.
func StartDaemon(socketPath string, reg *registry.Registry) (*Server, error) {
	if err := EnsureRuntimeDir(socketPath); err != nil {
		return nil, err
	}

	// If stale socket file exists but daemon is not running, remove it
	if _, err := os.Stat(socketPath); err == nil && !IsRunning(socketPath) {
		if err := os.Remove(socketPath); err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		ln.Close()
		return nil, err
	}

	log := logrus.WithField("socket", socketPath)
	s := &Server{
		grpc: NewGRPCServer(reg, log),
		ln:   ln,
		path: socketPath,
		done: make(chan struct{}),
	}
	if err := WritePID(socketPath, os.Getpid()); err != nil {
		s.grpc.Stop()
		ln.Close()
		return nil, err
	}
	go func() {
		defer close(s.done)
		if err := s.grpc.Serve(ln); err != nil {
			log.WithError(err).Error("serve stopped")
		}
	}()
	log.WithField("pid", os.Getpid()).Info("daemon listening")
	return s, nil
}

// StopRunningDaemon asks the daemon on socketPath to exit. With force it
// falls back to killing the process through reg.
func StopRunningDaemon(socketPath string, reg *registry.Registry, force bool) error {
	pid, err := RunningPID(socketPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if IsRunning(socketPath) {
				return fmt.Errorf("daemon is running but PID file %q is missing; stop it manually", PIDPath(socketPath))
			}
			return nil
		}
		return fmt.Errorf("unable to read daemon PID: %w", err)
	}
	if pid == os.Getpid() {
		return errors.New("refusing to stop current process")
	}
	if !reg.Exists(pid) {
		_ = RemovePID(socketPath)
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) && !force {
		return err
	}
	if waitForShutdown(socketPath, 3*time.Second) {
		return nil
	}
	if !force {
		return fmt.Errorf("daemon process %d did not exit after SIGTERM", pid)
	}
	if !reg.Kill(pid) {
		return fmt.Errorf("unable to kill daemon process %d", pid)
	}
	if waitForShutdown(socketPath, 2*time.Second) {
		return nil
	}
	return fmt.Errorf("daemon process %d did not exit after kill", pid)
}

func waitForShutdown(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !IsRunning(socketPath) {
			_ = RemovePID(socketPath)
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}
