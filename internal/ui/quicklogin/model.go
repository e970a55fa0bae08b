package quicklogin

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Width(16)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
)

type field int

const (
	fieldName field = iota
	fieldBatch
	fieldChapter
	fieldConsent
	fieldCount
)

// Model is the quick login form: name, batch year, chapter and consent.
type Model struct {
	nameInput    textinput.Model
	batchInput   textinput.Model
	chapterInput textinput.Model
	consent      bool
	focused      field
	store        *session.Store
	err          string
	submitting   bool
	width        int
	height       int
}

// New creates a new quick login form.
func New(store *session.Store) Model {
	ni := textinput.New()
	ni.Placeholder = "Full name"
	ni.Focus()
	ni.CharLimit = 150
	ni.Width = 40

	bi := textinput.New()
	bi.Placeholder = "e.g. 2018"
	bi.CharLimit = 4
	bi.Width = 10

	ci := textinput.New()
	ci.Placeholder = "Campus chapter"
	ci.CharLimit = 150
	ci.Width = 40

	return Model{
		nameInput:    ni,
		batchInput:   bi,
		chapterInput: ci,
		focused:      fieldName,
		store:        store,
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
		case "tab", "down":
			m.focused = (m.focused + 1) % fieldCount
			return m, m.updateFocus()
		case "shift+tab", "up":
			m.focused = (m.focused + fieldCount - 1) % fieldCount
			return m, m.updateFocus()
		case " ":
			if m.focused == fieldConsent {
				m.consent = !m.consent
				return m, nil
			}
		case "enter":
			if m.submitting {
				return m, nil
			}
			return m.submit()
		}

	case messages.AuthResultMsg:
		m.submitting = false
		if msg.Err != nil {
			if text := m.store.State().Error; text != "" {
				m.err = text
			} else {
				m.err = msg.Err.Error()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focused {
	case fieldName:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case fieldBatch:
		m.batchInput, cmd = m.batchInput.Update(msg)
	case fieldChapter:
		m.chapterInput, cmd = m.chapterInput.Update(msg)
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	name := strings.TrimSpace(m.nameInput.Value())
	if name == "" {
		m.err = "Name is required"
		return m, nil
	}
	batch, err := strconv.Atoi(strings.TrimSpace(m.batchInput.Value()))
	if err != nil {
		m.err = "Batch year must be a number"
		return m, nil
	}
	chapter := strings.TrimSpace(m.chapterInput.Value())
	consent := m.consent

	m.submitting = true
	m.err = ""
	store := m.store
	return m, func() tea.Msg {
		err := store.QuickLogin(context.Background(), name, batch, chapter, consent)
		return messages.AuthResultMsg{Op: "quick login", Err: err}
	}
}

func (m *Model) updateFocus() tea.Cmd {
	m.nameInput.Blur()
	m.batchInput.Blur()
	m.chapterInput.Blur()
	switch m.focused {
	case fieldName:
		return m.nameInput.Focus()
	case fieldBatch:
		return m.batchInput.Focus()
	case fieldChapter:
		return m.chapterInput.Focus()
	}
	return nil
}

// View renders the quick login form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Quick Login"))
	sb.WriteString("\n\n")

	sb.WriteString(labelStyle.Render("name") + " " + m.nameInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("batch year") + " " + m.batchInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(labelStyle.Render("campus chapter") + " " + m.chapterInput.View())
	sb.WriteString("\n\n")

	box := "[ ]"
	if m.consent {
		box = "[x]"
	}
	if m.focused == fieldConsent {
		box = checkStyle.Render(box)
	}
	sb.WriteString(labelStyle.Render("privacy consent") + " " + box + " I agree to the data privacy notice")
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Signing in...")
	} else {
		sb.WriteString(hintStyle.Render("Tab to switch fields | Space to toggle consent | Enter to submit | Esc to cancel"))
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
