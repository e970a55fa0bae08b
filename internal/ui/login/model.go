package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui/messages"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).
			Padding(1, 0)
)

// Model is the voter ID + PIN login form.
type Model struct {
	identifierInput textinput.Model
	pinInput        textinput.Model
	focusIndex      int
	err             string
	submitting      bool
	store           *session.Store
	width           int
	height          int
}

// New creates a new login form.
func New(store *session.Store) Model {
	identifierInput := textinput.New()
	identifierInput.Placeholder = "voter ID or student ID"
	identifierInput.Focus()
	identifierInput.Width = 30

	pinInput := textinput.New()
	pinInput.Placeholder = "PIN"
	pinInput.EchoMode = textinput.EchoPassword
	pinInput.Width = 30

	return Model{
		identifierInput: identifierInput,
		pinInput:        pinInput,
		store:           store,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.identifierInput.Blur()
				m.pinInput.Focus()
			} else {
				m.focusIndex = 0
				m.pinInput.Blur()
				m.identifierInput.Focus()
			}
			return m, nil
		case "enter":
			if m.submitting {
				return m, nil
			}
			identifier := strings.TrimSpace(m.identifierInput.Value())
			pin := m.pinInput.Value()
			if identifier == "" || pin == "" {
				m.err = "Voter ID and PIN required"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			store := m.store
			return m, func() tea.Msg {
				err := store.Login(context.Background(), identifier, pin)
				return messages.AuthResultMsg{Op: "login", Err: err}
			}
		}

	case messages.AuthResultMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = errorText(m.store, msg.Err)
			m.pinInput.SetValue("")
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focusIndex == 0 {
		m.identifierInput, cmd = m.identifierInput.Update(msg)
	} else {
		m.pinInput, cmd = m.pinInput.Update(msg)
	}
	return m, cmd
}

// errorText prefers the message the store recorded for display.
func errorText(store *session.Store, err error) string {
	if msg := store.State().Error; msg != "" {
		return msg
	}
	return err.Error()
}

// View renders the login form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Voter Login"))
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("Voter ID:"))
	sb.WriteString("\n")
	sb.WriteString(m.identifierInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("PIN:"))
	sb.WriteString("\n")
	sb.WriteString(m.pinInput.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString("Signing in...")
	} else {
		sb.WriteString(focusedStyle.Render("Enter") + " to submit, " + focusedStyle.Render("Esc") + " to cancel")
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
