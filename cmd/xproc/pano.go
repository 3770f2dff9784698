package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"xproc/internal/pano"
)

func init() {
	rootCmd.AddCommand(cmdPano)
}

var (
	panoPeerFile string
	panoStdin    bool
	panoPID      int
	panoInterval time.Duration
	panoOnce     bool
)

func init() {
	flags := cmdPano.Flags()
	flags.StringVar(&panoPeerFile, "peer-file", "", "File whose first ID=<pid> line names the peer process")
	flags.BoolVar(&panoStdin, "stdin", false, "Read KEY=VALUE lines from standard input; they take precedence")
	flags.IntVar(&panoPID, "pid", 0, "Peer process (default: from --peer-file, else the parent skipping /bin/sh)")
	flags.DurationVar(&panoInterval, "interval", 0, "Poll interval (default: poll_interval from config)")
	flags.BoolVar(&panoOnce, "once", false, "Print the current state and exit")
}

var cmdPano = &cobra.Command{
	Use:   "pano",
	Short: "Follow the panorama view state shared by a peer process",
	Long: `Prints PANORAMA_TEXTURE, PANORAMA_POINTER, PANORAMA_XANGLE and PANORAMA_YANGLE
each time they change. Values come from standard input (with --stdin), then
the peer process environment, then this process's own environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		reg, closer, err := ctrl.Registry()
		if err != nil {
			return err
		}
		defer closer.Close()

		var sources []pano.Source
		var stream *pano.StreamEnv
		if panoStdin {
			stream = pano.NewStreamEnv(cmd.InOrStdin())
			sources = append(sources, stream)
		}
		peer := pano.ResolvePeer(reg, panoPID, panoPeerFile)
		if peer > 0 && peer != reg.SelfID() {
			sources = append(sources, pano.PeerEnv{Registry: reg, PID: peer})
		}
		sources = append(sources, pano.OwnEnv{})

		interval := panoInterval
		if interval <= 0 {
			interval = ctrl.Config().PollInterval
		}
		log := logrus.WithFields(logrus.Fields{"pid": peer, "interval": interval})
		syncer := pano.NewSyncer(interval, log, sources...)
		out := cmd.OutOrStdout()

		if panoOnce {
			if stream != nil {
				<-stream.Done()
			}
			printState(out, syncer.Current())
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		log.Info("following view state")
		err = syncer.Run(ctx, func(st pano.ViewState) {
			printState(out, st)
			fmt.Fprintln(out)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func printState(w io.Writer, st pano.ViewState) {
	for _, line := range st.Lines() {
		fmt.Fprintln(w, line)
	}
}
