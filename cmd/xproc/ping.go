package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cmdPing)
}

var pingTimeout time.Duration

func init() {
	cmdPing.Flags().DurationVarP(&pingTimeout, "timeout", "t", 0, "Timeout for the daemon ping (default: request_timeout from config)")
}

// `xproc ping` checks the daemon. It fails when the daemon is not running
// and prints "pong" when it answers.
var cmdPing = &cobra.Command{
	Use:   "ping",
	Short: "Check daemon availability (expects 'pong')",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		timeout := pingTimeout
		if timeout <= 0 {
			timeout = ctrl.Config().RequestTimeout
		}
		msg, err := ctrl.Ping(cmd.Context(), timeout)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}
