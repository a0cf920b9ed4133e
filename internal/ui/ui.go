// Package ui is the operator dashboard: connection status, the numbered
// menu and the statistics view.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/treykane/gamblebot/internal/appconfig"
	"github.com/treykane/gamblebot/internal/model"
	"github.com/treykane/gamblebot/internal/security"
	"github.com/treykane/gamblebot/internal/stats"
	"github.com/treykane/gamblebot/internal/supervisor"
	"github.com/treykane/gamblebot/internal/util"
)

// Session is the supervised connection as seen by the dashboard.
type Session interface {
	Status() model.Status
	Busy() bool
	Stop() error
}

// Swapper replaces the running session's token.
type Swapper interface {
	Swap(ctx context.Context, token string) (supervisor.Result, error)
}

// Credentials exposes the stored record and prefix updates.
type Credentials interface {
	Current() model.Credentials
	SetPrefix(prefix string) error
}

// Stats exposes the statistics snapshot and operator reset.
type Stats interface {
	Snapshot() model.Statistics
	Reset() error
}

// Deps are the stores and controllers the dashboard drives.
type Deps struct {
	Session Session
	Swapper Swapper
	Creds   Credentials
	Stats   Stats
	Config  appconfig.Config
}

type screen int

const (
	screenMenu screen = iota
	screenForm
	screenStats
	screenConfirmReset
)

type tickMsg time.Time

type swapDoneMsg struct {
	res supervisor.Result
	err error
}

type modelUI struct {
	ctx      context.Context
	cancel   context.CancelFunc
	deps     Deps
	screen   screen
	form     *entryForm
	table    table.Model
	swapping bool
	quitting bool
	status   string
	conn     model.Status
	creds    model.Credentials
	stats    model.Statistics
	width    int
	height   int
}

// newModel runs swaps under ctx; cancel aborts an in-flight swap on exit.
func newModel(ctx context.Context, cancel context.CancelFunc, deps Deps) modelUI {
	m := modelUI{ctx: ctx, cancel: cancel, deps: deps, table: newStatsTable()}
	m.refresh()
	m.status = "Ready. Pick a menu option."
	return m
}

func newStatsTable() table.Model {
	return table.New(
		table.WithColumns([]table.Column{
			{Title: "USER", Width: 24},
			{Title: "WINS", Width: 8},
			{Title: "LOSSES", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
}

func (m *modelUI) refresh() {
	m.conn = m.deps.Session.Status()
	m.creds = m.deps.Creds.Current()
	m.stats = m.deps.Stats.Snapshot()
	rows := make([]table.Row, 0, len(m.stats.PerUser))
	for _, r := range stats.Rows(m.stats) {
		rows = append(rows, table.Row{r.UserID, strconv.Itoa(r.Wins), strconv.Itoa(r.Losses)})
	}
	m.table.SetRows(rows)
}

func (m modelUI) busy() bool {
	return m.swapping || m.deps.Session.Busy()
}

func tickCmd(seconds int) tea.Cmd {
	if seconds <= 0 {
		seconds = util.DefaultRefreshSeconds
	}
	return tea.Tick(time.Duration(seconds)*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m modelUI) swapCmd(token string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.deps.Swapper.Swap(m.ctx, token)
		return swapDoneMsg{res: res, err: err}
	}
}

func (m modelUI) Init() tea.Cmd {
	return tickCmd(m.deps.Config.UI.RefreshSeconds)
}

func (m modelUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.deps.Config.UI.RefreshSeconds)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case swapDoneMsg:
		m.swapping = false
		m.status = swapStatus(msg.res, msg.err, m.deps.Config.RedactErrors)
		m.refresh()
		if m.quitting {
			return m.exit()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.exit()
		}
		switch m.screen {
		case screenForm:
			return m.updateForm(msg)
		case screenStats:
			return m.updateStats(msg)
		case screenConfirmReset:
			return m.updateConfirmReset(msg)
		default:
			return m.updateMenu(msg)
		}
	}
	return m, nil
}

func (m modelUI) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "1":
		m.form = newForm(formPrefix, m.creds.CommandPrefix)
		m.screen = screenForm
		return m, m.form.input.Cursor.BlinkCmd()
	case "2":
		m.refresh()
		m.screen = screenStats
	case "3":
		m.screen = screenConfirmReset
		m.status = "Reset all statistics? (y/n)"
	case "4":
		if m.busy() {
			m.status = "A connection attempt is in progress; wait for it to finish."
			return m, nil
		}
		m.form = newForm(formToken, "")
		m.screen = screenForm
		return m, m.form.input.Cursor.BlinkCmd()
	case "5", "q":
		return m.exit()
	}
	return m, nil
}

func (m modelUI) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.form = nil
		m.screen = screenMenu
		m.status = "Cancelled."
		return m, nil
	}
	res, cmd := m.form.update(msg)
	if res == nil {
		return m, cmd
	}
	switch res.kind {
	case formPrefix:
		if err := m.deps.Creds.SetPrefix(res.value); err != nil {
			m.form.errMsg = err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("Command prefix set to %q.", res.value)
	case formToken:
		if m.busy() {
			m.form.errMsg = supervisor.ErrAttemptInFlight.Error()
			return m, nil
		}
		m.swapping = true
		m.status = fmt.Sprintf("Swapping token (timeout %s)...", m.deps.Config.SwapTimeout())
		m.form = nil
		m.screen = screenMenu
		return m, m.swapCmd(res.value)
	}
	m.form = nil
	m.screen = screenMenu
	m.refresh()
	return m, nil
}

func (m modelUI) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.screen = screenMenu
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m modelUI) updateConfirmReset(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y":
		if err := m.deps.Stats.Reset(); err != nil {
			m.status = "Reset failed: " + err.Error()
		} else {
			m.status = "Statistics reset."
		}
		m.screen = screenMenu
		m.refresh()
	case "n", "esc":
		m.status = "Reset cancelled."
		m.screen = screenMenu
	}
	return m, nil
}

// exit stops the session and quits. A swap in flight is cancelled first and
// the session is stopped only once it has returned.
func (m modelUI) exit() (tea.Model, tea.Cmd) {
	if m.swapping {
		m.quitting = true
		m.status = "Cancelling token swap before exit..."
		m.cancel()
		return m, nil
	}
	if err := m.deps.Session.Stop(); err != nil {
		m.status = "Stop failed: " + err.Error()
	}
	return m, tea.Quit
}

func swapStatus(res supervisor.Result, err error, redact bool) string {
	switch {
	case errors.Is(err, supervisor.ErrEmptyCredential):
		return "Token unchanged: the new token cannot be empty."
	case errors.Is(err, supervisor.ErrAttemptInFlight):
		return "Token unchanged: a connection attempt is already in progress."
	case err != nil:
		return "Token change failed: " + security.UserMessage(err, redact)
	case res.OK():
		return "Token changed; " + res.Message() + "."
	default:
		return "Token saved, but reconnect failed: " + res.Message() + ". Use option 4 to try again."
	}
}

func (m modelUI) View() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render("Gamblebot Dashboard")
	subhead := fmt.Sprintf("refresh=%ds connect_timeout=%s swap_timeout=%s",
		m.deps.Config.UI.RefreshSeconds, m.deps.Config.ConnectTimeout(), m.deps.Config.SwapTimeout())
	width := m.effectiveWidth()

	var body string
	switch m.screen {
	case screenForm:
		body = m.form.view(m.renderPanel, width)
	case screenStats:
		body = m.renderPanel("Per-user Statistics", m.statsBlock(), width, lipgloss.Color("63"))
	default:
		body = m.renderPanel("Menu", m.menuBlock(), width, lipgloss.Color("69"))
	}
	return lipgloss.JoinVertical(
		lipgloss.Left,
		head,
		subhead,
		m.renderPanel("Connection", m.connectionBlock(), width, stateColor(m.conn.State)),
		body,
		m.renderPanel("Status", m.status, width, lipgloss.Color("205")),
	)
}

func (m modelUI) connectionBlock() string {
	var b strings.Builder
	state := string(m.conn.State)
	if m.swapping {
		state += " (swapping token)"
	}
	b.WriteString(fmt.Sprintf("State:   %s since %s\n", state, humanize.Time(m.conn.Since)))
	if m.conn.Reason != "" && m.conn.State == model.SessionDisconnected {
		b.WriteString(fmt.Sprintf("Reason:  %s\n", m.conn.Reason))
	}
	b.WriteString(fmt.Sprintf("Token:   %s\n", util.MaskSecret(m.creds.Token)))
	b.WriteString(fmt.Sprintf("Prefix:  %s\n", util.EmptyDash(m.creds.CommandPrefix)))
	b.WriteString(fmt.Sprintf("Gambles: %s  wins=%s  losses=%s  players=%d",
		humanize.Comma(int64(m.stats.TotalAttempts)),
		humanize.Comma(int64(m.stats.TotalWins)),
		humanize.Comma(int64(m.stats.TotalLosses)),
		len(m.stats.PerUser)))
	return b.String()
}

func (m modelUI) menuBlock() string {
	lines := []string{
		"  1) Change command prefix",
		"  2) View per-user statistics",
		"  3) Reset statistics",
		"  4) Change bot token",
		"  5) Exit",
	}
	if m.screen == screenConfirmReset {
		lines = append(lines, "", "  Reset all statistics? press y to confirm, n to cancel")
	}
	return strings.Join(lines, "\n")
}

func (m modelUI) statsBlock() string {
	if len(m.stats.PerUser) == 0 {
		return "(no gambles recorded yet)\n\nEsc to go back"
	}
	return m.table.View() + "\n\nj/k to scroll, Esc to go back"
}

func stateColor(s model.SessionState) lipgloss.Color {
	switch s {
	case model.SessionConnected:
		return lipgloss.Color("42")
	case model.SessionConnecting:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("196")
	}
}

func (m modelUI) effectiveWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m modelUI) renderPanel(title, body string, width int, accent lipgloss.Color) string {
	if width < 24 {
		width = 24
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title)
	content := strings.TrimSuffix(body, "\n")
	panel := strings.TrimSpace(header + "\n" + content)
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(panel)
}

// Run shows the dashboard until the operator exits or ctx is cancelled.
// The session is stopped on exit; leaving the dashboard aborts an
// in-flight swap.
func Run(ctx context.Context, deps Deps) error {
	swapCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := tea.NewProgram(newModel(swapCtx, cancel, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	switch {
	case errors.Is(err, tea.ErrInterrupted):
		return nil
	case errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil:
		return nil
	}
	return err
}
