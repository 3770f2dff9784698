package app

import "xproc/internal/daemon"

// DaemonStatus represents current information about the daemon process.
type DaemonStatus struct {
	Running bool
	PID     int
	Socket  string
}

// Status returns whether the daemon is running and its PID if known.
func (a *App) Status() (DaemonStatus, error) {
	sock := a.SocketPath()
	if !daemonIsRunning(sock) {
		return DaemonStatus{Running: false, Socket: sock}, nil
	}
	pid, err := daemon.RunningPID(sock)
	if err != nil {
		return DaemonStatus{Running: true, Socket: sock}, err
	}
	return DaemonStatus{Running: true, PID: pid, Socket: sock}, nil
}

// StopDaemon attempts to stop the running daemon.
func (a *App) StopDaemon(force bool) error {
	return daemon.StopRunningDaemon(a.SocketPath(), a.local, force)
}

// DaemonHandle holds a running daemon instance.
type DaemonHandle struct {
	srv *daemon.Server
}

// Socket returns the path the daemon is bound to.
func (h *DaemonHandle) Socket() string {
	if h == nil || h.srv == nil {
		return ""
	}
	return h.srv.Path()
}

// Close stops the running daemon instance.
func (h *DaemonHandle) Close() error {
	if h == nil || h.srv == nil {
		return nil
	}
	return h.srv.Close()
}

// StartDaemon starts the daemon in this process over the local registry
// and returns a handle for closing it.
func (a *App) StartDaemon() (*DaemonHandle, error) {
	srv, err := daemon.StartDaemon(a.SocketPath(), a.local)
	if err != nil {
		return nil, err
	}
	return &DaemonHandle{srv: srv}, nil
}
