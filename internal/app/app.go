// Package app is the controller shared by the CLI and the TUI. It hands
// out a process registry that reads the local machine directly or goes
// through the xprocd daemon, and it manages the daemon lifecycle.
package app

import (
	"io"

	"xproc/internal/config"
	"xproc/internal/daemon"
	"xproc/internal/registry"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional config file.
	ConfigPath string
	// Config is the loaded configuration. Zero durations fall back to the
	// defaults.
	Config config.Config
	// Remote routes registry queries through the daemon.
	Remote bool
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
	cfg     config.Config
	remote  bool
	local   *registry.Registry
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	cfg := opts.Config
	def := config.Default()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	return &App{
		cfgPath: opts.ConfigPath,
		cfg:     cfg,
		remote:  opts.Remote,
		local:   registry.New(),
	}
}

// ConfigPath returns the configured config file path (if any).
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// Config returns the effective configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Remote reports whether queries go through the daemon.
func (a *App) Remote() bool {
	return a.remote
}

// SocketPath returns the daemon socket this controller talks to.
func (a *App) SocketPath() string {
	return daemon.SocketPath(a.cfg.Socket)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Registry returns the registry queries should use. In remote mode it is
// backed by one daemon connection that the caller releases with the
// returned closer.
func (a *App) Registry() (*registry.Registry, io.Closer, error) {
	if !a.remote {
		return a.local, nopCloser{}, nil
	}
	sock := a.SocketPath()
	if !daemonIsRunning(sock) {
		return nil, nil, errDaemonNotRunning
	}
	ctx, cancel := a.requestContext()
	defer cancel()
	client, conn, err := dialDaemonClient(ctx, sock)
	if err != nil {
		return nil, nil, wrapDial(err)
	}
	if conn == nil {
		conn = nopCloser{}
	}
	return registry.NewWithBackend(newRemoteBackend(client, a.cfg.RequestTimeout)), conn, nil
}
