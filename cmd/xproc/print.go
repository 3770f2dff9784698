package main

import (
	"fmt"
	"io"
	"strings"

	"xproc/internal/argv"
	"xproc/internal/registry"
)

func printPIDs(w io.Writer, pids []registry.PID) {
	for _, pid := range pids {
		fmt.Fprintln(w, pid)
	}
}

func printBool(w io.Writer, b bool) {
	if b {
		fmt.Fprintln(w, 1)
		return
	}
	fmt.Fprintln(w, 0)
}

// printLine prints s unless it is empty.
func printLine(w io.Writer, s string) {
	if s != "" {
		fmt.Fprintln(w, s)
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func printQuoted(w io.Writer, s string) {
	fmt.Fprintln(w, quote(s))
}

// printCmdline prints every argument quoted, separated by one space.
func printCmdline(w io.Writer, args []string) {
	if len(args) == 0 {
		return
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quote(a)
	}
	fmt.Fprintln(w, strings.Join(quoted, " "))
}

// printEnv prints NAME="VALUE" lines. Entries without '=' are skipped.
func printEnv(w io.Writer, env []string) {
	for _, entry := range env {
		key, value, ok := argv.SplitKeyValue(entry)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s=%s\n", key, quote(value))
	}
}
