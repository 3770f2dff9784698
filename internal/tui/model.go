// Package tui is an interactive process browser on top of app.App.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"xproc/internal/app"
	"xproc/internal/registry"
)

const requestTimeout = 4 * time.Second

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	Remote() bool
	Status() (app.DaemonStatus, error)
	StartDaemon() (*app.DaemonHandle, error)
	List(context.Context, app.ListParams) ([]registry.Record, error)
	Describe(context.Context, registry.PID, time.Duration) (registry.Record, error)
	Kill(context.Context, app.KillParams) (app.KillResult, error)
}

// Options tunes the browser.
type Options struct {
	Filter registry.ListFilter
	// Refresh reloads the table periodically. Zero disables it.
	Refresh time.Duration
}

// Model represents the Bubble Tea state.
type Model struct {
	controller Controller
	opts       Options

	list      list.Model
	processes []registry.Record
	selected  map[registry.PID]bool
	detail    *registry.Record

	daemonStatus app.DaemonStatus
	statusMsg    string

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
	now         func() time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller, opts Options) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Processes"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	status := "Local mode. Press r to refresh, q to quit."
	if ctrl.Remote() {
		status = "Checking daemon status…"
	}
	return &Model{
		controller: ctrl,
		opts:       opts,
		list:       lst,
		statusMsg:  status,
		loading:    true,
		selected:   make(map[registry.PID]bool),
		now:        time.Now,
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller, opts Options) error {
	m := New(ctrl, opts)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadProcessesCmd(m.controller, m.opts.Filter)}
	if m.controller.Remote() {
		cmds = append(cmds, checkDaemonStatusCmd(m.controller))
	}
	if m.opts.Refresh > 0 {
		cmds = append(cmds, tickCmd(m.opts.Refresh))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 8 {
			m.list.SetSize(msg.Width, msg.Height-8)
		}

	case daemonStatusMsg:
		m.daemonStatus = msg.status
		if msg.status.Running {
			if msg.status.PID > 0 {
				m.statusMsg = fmt.Sprintf("Daemon running (pid %d). Press r to refresh, q to quit.", msg.status.PID)
			} else {
				m.statusMsg = "Daemon running. Press r to refresh, q to quit."
			}
		} else {
			m.statusMsg = "Daemon is not running. Press s to start it."
			m.processes = nil
			m.list.SetItems(nil)
		}

	case processesLoadedMsg:
		m.loading = false
		m.err = nil
		m.setProcesses(msg.processes)
		m.lastUpdated = m.now()

	case describedMsg:
		rec := msg.record
		m.detail = &rec

	case killedMsg:
		m.statusMsg = fmt.Sprintf("Killed %d/%d processes.", msg.result.Successes, len(msg.result.Events))
		m.err = msg.err
		m.clearSelection()
		return m, loadProcessesCmd(m.controller, m.opts.Filter)

	case daemonStartedMsg:
		m.statusMsg = "Daemon started."
		return m, tea.Batch(checkDaemonStatusCmd(m.controller), loadProcessesCmd(m.controller, m.opts.Filter))

	case tickMsg:
		return m, tea.Batch(loadProcessesCmd(m.controller, m.opts.Filter), tickCmd(m.opts.Refresh))

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadProcessesCmd(m.controller, m.opts.Filter)
		case "s":
			if m.controller.Remote() && !m.daemonStatus.Running {
				m.statusMsg = "Starting daemon…"
				return m, startDaemonCmd(m.controller)
			}
		case "enter":
			if current := m.currentProcess(); current != nil {
				return m, describeCmd(m.controller, current.PID)
			}
		case "esc":
			m.detail = nil
		case " ":
			m.toggleCurrentSelection()
		case "c":
			if len(m.selected) > 0 {
				m.clearSelection()
			}
		case "x":
			if pids := m.killTargets(); len(pids) > 0 {
				m.statusMsg = fmt.Sprintf("Killing %d processes…", len(pids))
				return m, killCmd(m.controller, pids)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	statusStyle := lipgloss.NewStyle().Bold(true)
	if m.controller.Remote() && !m.daemonStatus.Running {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	} else {
		statusStyle = statusStyle.Foreground(lipgloss.Color("42"))
	}
	b.WriteString(statusStyle.Render(m.statusMsg))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading processes…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil {
		b.WriteString("No processes found.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	if current := m.currentProcess(); current != nil {
		detailStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginBottom(1)
		b.WriteString(detailStyle.Render(m.detailText(*current)))
		b.WriteByte('\n')
	}

	help := "Commands: q quit • r reload • enter details • space select • c clear • x kill"
	if m.controller.Remote() {
		help += " • s start daemon"
	}
	if count := len(m.selected); count > 0 {
		help += fmt.Sprintf(" • selected=%d", count)
	}
	if !m.lastUpdated.IsZero() {
		help += " • updated " + humanize.RelTime(m.lastUpdated, m.now(), "ago", "from now")
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func (m *Model) detailText(current registry.Record) string {
	lines := []string{
		fmt.Sprintf("pid=%d ppid=%d", current.PID, current.PPID),
		"exe=" + valueOrDash(current.Exe),
		"cmd=" + valueOrDash(strings.Join(current.Cmdline, " ")),
	}
	if d := m.detail; d != nil && d.PID == current.PID {
		lines = append(lines,
			"cwd="+valueOrDash(d.Cwd),
			fmt.Sprintf("environ=%s entries", humanize.Comma(int64(len(d.Environ)))),
		)
	} else {
		lines = append(lines, "press enter for directory and environment")
	}
	return strings.Join(lines, "\n")
}

// processItem adapts registry.Record to the bubbles list item interface.
type processItem struct {
	Process  registry.Record
	Selected bool
}

func (p processItem) Title() string {
	mark := " "
	if p.Selected {
		mark = "✓"
	}
	return fmt.Sprintf("[%s] [pid=%d ppid=%d] %s", mark, p.Process.PID, p.Process.PPID, valueOrDash(p.Process.Exe))
}

func (p processItem) Description() string {
	return "cmd=" + valueOrDash(strings.Join(p.Process.Cmdline, " "))
}

func (p processItem) FilterValue() string {
	return fmt.Sprintf("%d %s %s", p.Process.PID, p.Process.Exe, strings.Join(p.Process.Cmdline, " "))
}

func (m *Model) setProcesses(procs []registry.Record) {
	m.processes = procs
	newSelected := make(map[registry.PID]bool)
	items := make([]list.Item, 0, len(procs))
	for _, proc := range procs {
		selected := m.selected[proc.PID]
		if selected {
			newSelected[proc.PID] = true
		}
		items = append(items, processItem{Process: proc, Selected: selected})
	}
	m.selected = newSelected
	m.list.SetItems(items)
}

func (m *Model) toggleCurrentSelection() {
	if len(m.processes) == 0 {
		return
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.processes) {
		return
	}
	item, ok := m.list.Items()[idx].(processItem)
	if !ok {
		return
	}
	if item.Selected {
		delete(m.selected, item.Process.PID)
	} else {
		m.selected[item.Process.PID] = true
	}
	item.Selected = !item.Selected
	m.list.SetItem(idx, item)
}

func (m *Model) clearSelection() {
	m.selected = make(map[registry.PID]bool)
	items := m.list.Items()
	for i, it := range items {
		if pi, ok := it.(processItem); ok && pi.Selected {
			pi.Selected = false
			m.list.SetItem(i, pi)
		}
	}
}

// killTargets is the selection, or the highlighted process when nothing
// is selected.
func (m *Model) killTargets() []registry.PID {
	if len(m.selected) > 0 {
		pids := make([]registry.PID, 0, len(m.selected))
		for pid := range m.selected {
			pids = append(pids, pid)
		}
		sort.Ints(pids)
		return pids
	}
	if current := m.currentProcess(); current != nil {
		return []registry.PID{current.PID}
	}
	return nil
}

func (m *Model) currentProcess() *registry.Record {
	if len(m.processes) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.processes) {
		return nil
	}
	return &m.processes[idx]
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type daemonStatusMsg struct {
	status app.DaemonStatus
}

type processesLoadedMsg struct {
	processes []registry.Record
}

type describedMsg struct {
	record registry.Record
}

type killedMsg struct {
	result app.KillResult
	err    error
}

type daemonStartedMsg struct{}

type tickMsg time.Time

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func checkDaemonStatusCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		status, err := ctrl.Status()
		if err != nil {
			return errMsg{err}
		}
		return daemonStatusMsg{status: status}
	}
}

func loadProcessesCmd(ctrl Controller, filter registry.ListFilter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		procs, err := ctrl.List(ctx, app.ListParams{
			Filter:  filter,
			Timeout: requestTimeout,
		})
		if err != nil {
			return errMsg{err}
		}
		return processesLoadedMsg{processes: procs}
	}
}

func describeCmd(ctrl Controller, pid registry.PID) tea.Cmd {
	return func() tea.Msg {
		rec, err := ctrl.Describe(context.Background(), pid, requestTimeout)
		if err != nil {
			return errMsg{err}
		}
		return describedMsg{record: rec}
	}
}

func killCmd(ctrl Controller, pids []registry.PID) tea.Cmd {
	return func() tea.Msg {
		res, err := ctrl.Kill(context.Background(), app.KillParams{PIDs: pids, Timeout: requestTimeout})
		return killedMsg{result: res, err: err}
	}
}

func startDaemonCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		if _, err := ctrl.StartDaemon(); err != nil {
			return errMsg{err}
		}
		// Give the daemon a moment to bind the socket.
		time.Sleep(300 * time.Millisecond)
		return daemonStartedMsg{}
	}
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
