package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"xproc/internal/config"
	"xproc/internal/daemon"
	"xproc/internal/logging"
	"xproc/internal/registry"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON or YAML config file")
	force := flag.Bool("force", false, "Stop an existing daemon before starting")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if os.Getenv("XPROC_LOG_LEVEL") == "" && cfg.LogLevel == config.Default().LogLevel {
		cfg.LogLevel = "info"
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	sock := daemon.SocketPath(cfg.Socket)
	log := logrus.WithField("socket", sock)
	reg := registry.New()

	if daemon.IsRunning(sock) {
		if !*force {
			pid, err := daemon.RunningPID(sock)
			if err != nil {
				log.Fatalf("daemon appears running but pid check failed: %v", err)
			}
			log.WithField("pid", pid).Info("daemon is already running; use --force to restart")
			return
		}
		log.Info("stopping existing daemon")
		if err := daemon.StopRunningDaemon(sock, reg, true); err != nil {
			log.Fatalf("failed to stop running daemon: %v", err)
		}
	}

	srv, err := daemon.StartDaemon(sock, reg)
	if err != nil {
		log.Fatalf("failed to start daemon: %v", err)
	}
	log.WithField("pid", os.Getpid()).Info("daemon started, press Ctrl+C to stop")

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Info("stopping daemon")
	if err := srv.Close(); err != nil {
		log.Fatalf("error shutting down daemon: %v", err)
	}
	log.Info("daemon stopped")
}
