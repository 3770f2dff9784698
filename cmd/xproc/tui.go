package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xproc/internal/registry"
	"xproc/internal/tui"
)

func init() {
	rootCmd.AddCommand(cmdTUI)
}

var (
	tuiFilter  string
	tuiParents []int
)

func init() {
	cmdTUI.Flags().StringVar(&tuiFilter, "filter", "", "Only show processes whose executable or command line contains this text")
	cmdTUI.Flags().IntSliceVar(&tuiParents, "parent", nil, "Only show children of these pids")
}

var cmdTUI = &cobra.Command{
	Use:   "tui",
	Short: "Browse processes in an interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl := controller()
		opts := tui.Options{
			Filter:  registry.ListFilter{TextSearch: tuiFilter, Parents: tuiParents},
			Refresh: 10 * ctrl.Config().PollInterval,
		}
		if err := tui.Run(ctrl, opts); err != nil {
			return fmt.Errorf("tui exited with error: %w", err)
		}
		return nil
	},
}
