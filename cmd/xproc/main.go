package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"xproc/internal/app"
	"xproc/internal/config"
	"xproc/internal/logging"
	"xproc/internal/registry"
	"xproc/internal/tui"
)

var (
	configPath   string
	remoteMode   bool
	loadedConfig = config.Default()
)

// controllerAPI is the part of app.App the commands use.
type controllerAPI interface {
	tui.Controller
	Ping(ctx context.Context, timeout time.Duration) (string, error)
	Registry() (*registry.Registry, io.Closer, error)
	StopDaemon(force bool) error
	Config() config.Config
	ConfigPath() string
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{ConfigPath: configPath, Config: loadedConfig, Remote: remoteMode})
}

func controller() controllerAPI {
	return controllerFactory()
}

var rootCmd = &cobra.Command{
	Use:   "xproc [options]",
	Short: "xproc: cross-platform process introspection",
	Long: `xproc inspects running processes: it enumerates them, resolves parents and
children, and reads the executable path, working directory, command line
and environment of any process the caller may inspect.

  options:
    --help
    --pid-enum
    --pid-exists     pid
    --pid-kill       pid
    --ppid-from-pid  pid
    --pid-from-ppid  pid
    --exe-from-pid   pid
    --cwd-from-pid   pid
    --cmd-from-pid   pid
    --env-from-pid   pid [name]`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return usageError{err}
		}
		loadedConfig = cfg
		logging.Setup(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
		return nil
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE:               runQuery,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	rootCmd.PersistentFlags().BoolVar(&remoteMode, "remote", false, "Answer queries through the xprocd daemon")
	bindQueryFlags(rootCmd)
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}
	// Option-style queries stay silent and succeed unless --strict.
	if cmd == rootCmd && !strictRequested(args) {
		return 0
	}
	fmt.Fprintln(stderr, "xproc:", err)
	return exitCode(err)
}

// strictRequested also catches --strict when parsing stopped before it.
func strictRequested(args []string) bool {
	if strictMode {
		return true
	}
	for _, a := range args {
		if a == "--" {
			break
		}
		if a == "--strict" || a == "--strict=true" {
			return true
		}
	}
	return false
}
