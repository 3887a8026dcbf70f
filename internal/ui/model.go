// Package ui is the terminal dashboard shown by serve --tui: server address,
// connected sessions, and reload activity for the watched graph file.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// KeyMap defines the dashboard keyboard shortcuts.
type KeyMap struct {
	Reload key.Binding
	Quit   key.Binding
}

var DefaultKeyMap = KeyMap{
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

// Messages pushed into the dashboard from the serve command.
type (
	// SessionsMsg updates the connected session count.
	SessionsMsg int

	// ReloadMsg reports a completed reload of the graph file.
	ReloadMsg struct {
		At  time.Time
		Err error
	}

	// ServerErrMsg reports a fatal server error; the dashboard quits.
	ServerErrMsg struct{ Err error }
)

// ReloadFunc is invoked when the user requests a manual reload.
type ReloadFunc func()

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Model is the dashboard state.
type Model struct {
	addr      string
	graphPath string
	watching  bool
	reload    ReloadFunc

	spinner    spinner.Model
	sessions   int
	lastReload time.Time
	reloadErr  error
	serverErr  error
	quitting   bool
}

// NewModel creates a dashboard for a server at addr rendering graphPath.
func NewModel(addr, graphPath string, watching bool, reload ReloadFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		addr:      addr,
		graphPath: graphPath,
		watching:  watching,
		reload:    reload,
		spinner:   s,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, DefaultKeyMap.Reload):
			if m.reload != nil {
				m.reload()
			}
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SessionsMsg:
		m.sessions = int(msg)
		return m, nil

	case ReloadMsg:
		m.lastReload = msg.At
		m.reloadErr = msg.Err
		return m, nil

	case ServerErrMsg:
		m.serverErr = msg.Err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		if m.serverErr != nil {
			return errStyle.Render("server error: "+m.serverErr.Error()) + "\n"
		}
		return ""
	}

	out := titleStyle.Render("graphview") + "  " + m.spinner.View() + "\n\n"
	out += row("serving", "http://"+m.addr)
	out += row("graph", m.graphPath)
	out += row("sessions", fmt.Sprintf("%d", m.sessions))

	if m.watching {
		status := "waiting for changes"
		if !m.lastReload.IsZero() {
			status = "last reload " + m.lastReload.Format("15:04:05")
		}
		if m.reloadErr != nil {
			status = errStyle.Render("reload failed: " + m.reloadErr.Error())
		}
		out += row("watch", status)
	}

	out += helpStyle.Render("r reload · q quit")
	return out
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%10s  ", label)) + valueStyle.Render(value) + "\n"
}
