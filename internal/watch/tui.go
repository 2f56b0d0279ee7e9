// Package watch renders a live fleet view: every live, non-stale beacon
// as a row, refreshed on a timer by re-running the aggregator.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/timvw/agent-beacon/internal/fleet"
	"github.com/timvw/agent-beacon/internal/model"
)

// Styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	workingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	waitingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	unknownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pressureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")) // red
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// messages
type snapshotMsg struct {
	snap *model.FleetSnapshot
}

type tickMsg struct{}

// TUI runs the interactive fleet viewer.
type TUI struct {
	Dir             string
	StaleMs         int64
	RefreshInterval time.Duration // 0 disables auto-refresh
	Options         fleet.Options
}

// tuiModel implements tea.Model.
type tuiModel struct {
	ctx             context.Context
	dir             string
	staleMs         int64
	refreshInterval time.Duration
	opts            fleet.Options

	snap   *model.FleetSnapshot
	cursor int

	// session filter
	filter    textinput.Model
	filtering bool

	width  int
	height int

	refreshCount int
}

// Run starts the TUI and blocks until quit.
func (t *TUI) Run(ctx context.Context) error {
	filter := textinput.New()
	filter.Placeholder = "filter by session id..."
	filter.CharLimit = 128
	filter.Width = 40

	m := tuiModel{
		ctx:             ctx,
		dir:             t.Dir,
		staleMs:         t.StaleMs,
		refreshInterval: t.RefreshInterval,
		opts:            t.Options,
		filter:          filter,
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd())
}

// refreshCmd runs one aggregation pass off the UI loop.
func (m tuiModel) refreshCmd() tea.Cmd {
	ctx, dir, staleMs, opts := m.ctx, m.dir, m.staleMs, m.opts
	return func() tea.Msg {
		return snapshotMsg{snap: fleet.Aggregate(ctx, dir, time.Now(), staleMs, opts)}
	}
}

func (m tuiModel) tickCmd() tea.Cmd {
	if m.refreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = msg.snap
		m.refreshCount++
		m.clampCursor()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m tuiModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.filtering = false
		m.filter.Blur()
		m.clampCursor()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	return m, cmd
}

func (m tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		m.cursor--
		m.clampCursor()
	case "r":
		return m, m.refreshCmd()
	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *tuiModel) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// visible returns the instances matching the session filter, in the
// aggregator's pid order.
func (m *tuiModel) visible() []model.InstanceRecord {
	if m.snap == nil {
		return nil
	}
	needle := strings.TrimSpace(m.filter.Value())
	if needle == "" {
		return m.snap.Instances
	}
	var out []model.InstanceRecord
	for _, rec := range m.snap.Instances {
		if strings.Contains(rec.Session.ID, needle) {
			out = append(out, rec)
		}
	}
	return out
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("agent-beacon fleet"))
	if m.snap != nil {
		b.WriteString(statusStyle.Render(fmt.Sprintf("  %d live · %s", m.snap.Counts.Total, m.snap.Aggregate)))
	}
	b.WriteString("\n\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %-20s %-14s %7s  %-9s %s",
		"PID", "SESSION", "ACTIVITY", "CTX%", "MUX", "TARGET")))
	b.WriteString("\n")

	visible := m.visible()
	if len(visible) == 0 {
		b.WriteString(unknownStyle.Render("  no live instances"))
		b.WriteString("\n")
	}
	for i, rec := range visible {
		line := fmt.Sprintf("%-8d %-20s %-14s %7s  %-9s %s",
			rec.Process.PID,
			truncate(sessionLabel(rec), 20),
			rec.Activity.State,
			percentLabel(rec.Context),
			rec.Routing.Mux,
			routingTarget(rec.Routing),
		)
		switch {
		case i == m.cursor:
			line = selectedStyle.Render(line)
		case rec.Context.NearLimit:
			line = pressureStyle.Render(line)
		case rec.Activity.State == model.ActivityWorking:
			line = workingStyle.Render(line)
		case rec.Activity.State == model.ActivityWaitingInput:
			line = waitingStyle.Render(line)
		default:
			line = unknownStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.sessionSummary())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("refresh #%d · j/k move · / filter · r refresh · q quit", m.refreshCount)))
	return b.String()
}

// sessionSummary renders one line per session group, sorted by name for a
// stable view.
func (m *tuiModel) sessionSummary() string {
	if m.snap == nil || len(m.snap.Sessions) == 0 {
		return ""
	}
	names := make([]string, 0, len(m.snap.Sessions))
	for name := range m.snap.Sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		g := m.snap.Sessions[name]
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %s: %d working, %d waiting, %d unknown (max ctx %.0f%%)",
			name, g.Activities.Working, g.Activities.WaitingInput, g.Activities.Unknown, g.Context.MaxPercentUsed)))
		b.WriteString("\n")
	}
	return b.String()
}

func sessionLabel(rec model.InstanceRecord) string {
	if rec.Session.ID != "" {
		return rec.Session.ID
	}
	return "unknown"
}

func percentLabel(info model.ContextInfo) string {
	if info.PercentUsed == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", *info.PercentUsed)
}

// routingTarget renders the most specific routing location available.
func routingTarget(r model.RoutingRecord) string {
	switch {
	case r.TmuxPane != nil:
		return r.TmuxPane.Target
	case r.Zellij != nil && r.Zellij.MatchTier != model.MatchNone:
		return fmt.Sprintf("tab %d (%s)", r.Zellij.TabIndex, r.Zellij.TabName)
	case r.SessionName != "":
		return r.SessionName
	case r.TTY != "":
		return r.TTY
	default:
		return "-"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
