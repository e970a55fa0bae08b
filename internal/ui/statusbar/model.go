package statusbar

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	profileStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1E6FD9")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width       int
	profile     string
	voterName   string
	statusText  string
	statusError bool
}

// New creates a new status bar for the given profile.
func New(profile string) Model {
	return Model{profile: profile}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetVoter sets the signed-in voter's name; "" means signed out.
func (m *Model) SetVoter(name string) {
	m.voterName = name
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isError bool) {
	m.statusText = text
	m.statusError = isError
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := profileStyle.Render(m.profile)

	var right string
	if m.statusText != "" {
		if m.statusError {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}
	if m.voterName != "" {
		right += userStyle.Render(m.voterName)
	} else {
		right += statusTextStyle.Render("not signed in")
	}

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	gap := m.width - leftWidth - rightWidth
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
