package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/freshen-dev/freshen/metrics"
	"github.com/freshen-dev/freshen/types"
)

// refreshInterval is how often the watch view re-reads the detector state.
const refreshInterval = time.Second

// WatchSource supplies point-in-time views of a running detector session.
// Both funcs must be safe for concurrent use.
type WatchSource struct {
	App      string
	Snapshot func() types.Snapshot
	Metrics  func() metrics.Snapshot
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// WatchModel is a Bubble Tea model showing live detector state.
type WatchModel struct {
	source   WatchSource
	snap     types.Snapshot
	counters metrics.Snapshot
	width    int
	height   int
	quitting bool
}

// NewWatchModel creates a watch model over a detector session.
func NewWatchModel(source WatchSource) WatchModel {
	return WatchModel{
		source:   source,
		snap:     source.Snapshot(),
		counters: source.Metrics(),
	}
}

// Init implements tea.Model.
func (m WatchModel) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.snap = m.source.Snapshot()
		m.counters = m.source.Metrics()
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Watching %s", m.source.App)))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.renderCounters())

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + "\n" + help
}

func (m WatchModel) renderStatus() string {
	var b strings.Builder

	state := SuccessStyle.Render("up to date")
	if m.snap.HasUpdate {
		state = WarningStyle.Render("update available")
	}
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Status:"), state))
	b.WriteString(fmt.Sprintf("%s %s\n",
		LabelStyle.Render("Running:"),
		ValueStyle.Render(m.snap.CurrentVersion)))

	remote := m.snap.RemoteVersion
	if remote == "" {
		remote = "(not yet checked)"
	}
	b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render("Remote:"), ValueStyle.Render(remote)))

	checked := "never"
	if m.snap.LastChecked > 0 {
		checked = time.UnixMilli(m.snap.LastChecked).Local().Format("2006-01-02 15:04:05")
	}
	b.WriteString(fmt.Sprintf("%s %s", LabelStyle.Render("Last Check:"), ValueStyle.Render(checked)))

	return BoxStyle.Render(b.String())
}

func (m WatchModel) renderCounters() string {
	boxes := []string{
		m.renderStatBox("Checks", m.counters.ChecksPerformed, highlightColor),
		m.renderStatBox("Skipped", m.counters.ChecksSkippedOffline, mutedColor),
		m.renderStatBox("Failed", m.counters.ChecksFailed, errorColor),
		m.renderStatBox("Updates", m.counters.UpdatesDetected, warningColor),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m WatchModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	content := lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr)

	return boxStyle.Render(content)
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunWatchTUI runs the watch TUI until the user quits.
func RunWatchTUI(source WatchSource) error {
	model := NewWatchModel(source)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderWatchStatic renders the watch view once, without the interactive
// program (for fallback and testing).
func RenderWatchStatic(source WatchSource) string {
	model := NewWatchModel(source)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
