package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/relayboard/internal/status"
)

// Board is the part of the client the watch view needs.
type Board interface {
	Status(ctx context.Context) (*status.Report, error)
	Set(ctx context.Context, channel int, on bool) error
}

type watchKeyMap struct {
	Toggle  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Refresh, k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Toggle, k.Refresh, k.Quit}}
}

var watchKeys = watchKeyMap{
	Toggle: key.NewBinding(
		key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "toggle relay"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

// statusMsg carries the result of one fetch. Only polled fetches schedule
// the next tick, so manual refreshes do not multiply the poll rate.
type statusMsg struct {
	report *status.Report
	err    error
	at     time.Time
	polled bool
}

// setMsg carries the result of a toggle.
type setMsg struct {
	channel int
	on      bool
	err     error
}

type tickMsg time.Time

// WatchModel polls a board and lets the user toggle relays by number.
type WatchModel struct {
	board    Board
	name     string
	interval time.Duration
	timeout  time.Duration

	spinner spinner.Model
	help    help.Model
	width   int

	report  *status.Report
	fetched time.Time
	lastErr error
	notice  string
	loading bool
}

// NewWatchModel creates the watch view for board, polling every interval.
func NewWatchModel(board Board, name string, interval time.Duration) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return WatchModel{
		board:    board,
		name:     name,
		interval: interval,
		timeout:  interval,
		spinner:  s,
		help:     help.New(),
		width:    GetTerminalWidth(),
		loading:  true,
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(true))
}

func (m WatchModel) fetch(polled bool) tea.Cmd {
	board, timeout := m.board, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		report, err := board.Status(ctx)
		return statusMsg{report: report, err: err, at: time.Now(), polled: polled}
	}
}

func (m WatchModel) toggle(channel int) tea.Cmd {
	on := true
	if m.report != nil {
		if cur, ok := m.report.Relay(channel); ok {
			on = !cur
		}
	}
	board, timeout := m.board, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return setMsg{channel: channel, on: on, err: board.Set(ctx, channel, on)}
	}
}

func (m WatchModel) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, watchKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, watchKeys.Refresh):
			m.loading = true
			return m, m.fetch(false)
		case key.Matches(msg, watchKeys.Toggle):
			channel := int(msg.String()[0] - '0')
			m.notice = fmt.Sprintf("switching %s...", status.RelayKey(channel))
			return m, m.toggle(channel)
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.help.Width = m.width

	case statusMsg:
		m.loading = false
		m.lastErr = msg.err
		if msg.err == nil {
			m.report = msg.report
			m.fetched = msg.at
		}
		if !msg.polled {
			return m, nil
		}
		return m, m.schedule()

	case setMsg:
		if msg.err != nil {
			m.notice = ""
			m.lastErr = msg.err
			return m, nil
		}
		state := "off"
		if msg.on {
			state = "on"
		}
		m.notice = fmt.Sprintf("%s switched %s", status.RelayKey(msg.channel), state)
		m.lastErr = nil
		m.loading = true
		return m, m.fetch(false)

	case tickMsg:
		m.loading = true
		return m, m.fetch(true)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder

	if m.report == nil {
		if m.lastErr != nil {
			b.WriteString(ErrorMessageStyle.Render(m.lastErr.Error()))
		} else {
			b.WriteString(m.spinner.View() + " connecting to " + m.name)
		}
		b.WriteString("\n\n" + m.help.View(watchKeys) + "\n")
		return b.String()
	}

	b.WriteString(RenderStatus(m.name, m.report, m.width))
	b.WriteString("\n")

	line := SubtitleStyle.Render("updated " + m.fetched.Format("15:04:05"))
	if m.loading {
		line = m.spinner.View() + " " + line
	}
	b.WriteString(line + "\n")

	switch {
	case m.lastErr != nil:
		b.WriteString(WarningStyle.Render("last request failed: "+m.lastErr.Error()) + "\n")
	case m.notice != "":
		b.WriteString(SubtitleStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.help.View(watchKeys) + "\n")
	return b.String()
}
