package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"xproc/internal/registry"
)

var (
	strictMode bool
	skipShell  bool
	pidEnum    bool
)

// queryOption is one of the pid-taking options. They are tried in
// declaration order and the first one given wins.
type queryOption struct {
	flag  string
	usage string
	value string
	run   func(q query) error
}

var queryOptions = []*queryOption{
	{flag: "pid-exists", usage: "Print 1 if pid is live, else 0", run: queryExists},
	{flag: "pid-kill", usage: "Forcibly terminate pid; print 1 on success, else 0", run: queryKill},
	{flag: "ppid-from-pid", usage: "Print the parent of pid", run: queryParent},
	{flag: "pid-from-ppid", usage: "Print the children of pid", run: queryChildren},
	{flag: "exe-from-pid", usage: "Print the executable path of pid", run: queryExe},
	{flag: "cwd-from-pid", usage: "Print the working directory of pid", run: queryCwd},
	{flag: "cmd-from-pid", usage: "Print the command line of pid", run: queryCmd},
	{flag: "env-from-pid", usage: "Print the environment of pid, or the value of [name]", run: queryEnv},
}

func bindQueryFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&pidEnum, "pid-enum", false, "Print every live pid")
	for _, opt := range queryOptions {
		flags.StringVar(&opt.value, opt.flag, "", opt.usage)
	}
	flags.BoolVar(&strictMode, "strict", false, "Report failures on stderr with a non-zero exit code")
	flags.BoolVar(&skipShell, "skip-sh", false, "Skip /bin/sh wrappers in --ppid-from-pid and --pid-from-ppid")
}

// query is one resolved invocation.
type query struct {
	reg  *registry.Registry
	pid  registry.PID
	args []string
	out  io.Writer
}

func runQuery(cmd *cobra.Command, args []string) error {
	var chosen *queryOption
	for _, opt := range queryOptions {
		if cmd.Flags().Changed(opt.flag) {
			chosen = opt
			break
		}
	}
	if !pidEnum && chosen == nil {
		if strictMode && len(args) > 0 {
			return usageError{fmt.Errorf("unexpected arguments %q", args)}
		}
		return cmd.Help()
	}

	reg, closer, err := controller().Registry()
	if err != nil {
		return err
	}
	defer closer.Close()

	q := query{reg: reg, args: args, out: cmd.OutOrStdout()}
	if pidEnum {
		err = queryEnum(q)
	} else {
		pid, ok := parsePID(chosen.value)
		if !ok && strictMode {
			return usageError{fmt.Errorf("invalid pid %q", chosen.value)}
		}
		q.pid = pid
		err = chosen.run(q)
	}
	if strictMode {
		return err
	}
	return nil
}

// maxPID bounds parsed pids so they fit an int on every platform.
const maxPID = 1<<31 - 1

// parsePID reads s like strtoul(s, NULL, 10): optional leading space and
// '+', then decimal digits. ok is false when no digit was consumed or the
// value overflows, in which case pid is 0.
func parsePID(s string) (registry.PID, bool) {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	s = strings.TrimPrefix(s, "+")
	pid, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		d := int(s[digits] - '0')
		if pid > (maxPID-d)/10 {
			return 0, false
		}
		pid = pid*10 + d
	}
	if digits == 0 {
		return 0, false
	}
	return pid, true
}

func queryEnum(q query) error {
	pids, err := q.reg.LookupEnumerate()
	printPIDs(q.out, pids)
	return err
}

func queryExists(q query) error {
	err := q.reg.Probe(q.pid)
	printBool(q.out, err == nil)
	return err
}

func queryKill(q query) error {
	err := q.reg.LookupKill(q.pid)
	printBool(q.out, err == nil)
	return err
}

func queryParent(q query) error {
	if err := q.reg.Probe(q.pid); err != nil {
		return err
	}
	if skipShell {
		printPIDs(q.out, []registry.PID{q.reg.ParentOfSkippingShell(q.pid)})
		return nil
	}
	ppid, err := q.reg.LookupParent(q.pid)
	printPIDs(q.out, []registry.PID{ppid})
	return err
}

func queryChildren(q query) error {
	if skipShell {
		if err := q.reg.Probe(q.pid); err != nil {
			return err
		}
		printPIDs(q.out, q.reg.ChildrenOfSkippingShell(q.pid))
		return nil
	}
	pids, err := q.reg.LookupChildren(q.pid)
	printPIDs(q.out, pids)
	return err
}

func queryExe(q query) error {
	exe, err := q.reg.LookupExecutablePath(q.pid)
	printLine(q.out, exe)
	return err
}

func queryCwd(q query) error {
	cwd, err := q.reg.LookupWorkingDirectory(q.pid)
	printLine(q.out, cwd)
	return err
}

func queryCmd(q query) error {
	args, err := q.reg.LookupCommandLine(q.pid)
	printCmdline(q.out, args)
	return err
}

func queryEnv(q query) error {
	if len(q.args) == 0 {
		env, err := q.reg.LookupEnvironment(q.pid)
		printEnv(q.out, env)
		return err
	}
	name := q.args[0]
	value, ok, err := q.reg.LookupEnvironmentValue(q.pid, name)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(registry.ErrNotFound, "%s not set in pid %d", name, q.pid)
	}
	printQuoted(q.out, value)
	return nil
}
