package register

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dilg/votedesk/internal/api"
	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true).Width(18)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	checkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true)
)

type fieldDef struct {
	label       string
	placeholder string
	optional    bool
	secret      bool
}

const (
	fFirstName = iota
	fMiddleName
	fLastName
	fStudentID
	fDateOfBirth
	fDegree
	fBatchYear
	fChapter
	fEmail
	fPhone
	fEmployment
	fIndustry
	fPassword
	textFields
)

var fieldDefs = [textFields]fieldDef{
	fFirstName:   {label: "first name"},
	fMiddleName:  {label: "middle name", optional: true},
	fLastName:    {label: "last name"},
	fStudentID:   {label: "student ID"},
	fDateOfBirth: {label: "date of birth", placeholder: "YYYY-MM-DD"},
	fDegree:      {label: "degree program"},
	fBatchYear:   {label: "batch year", placeholder: "e.g. 2018"},
	fChapter:     {label: "campus chapter", optional: true},
	fEmail:       {label: "email"},
	fPhone:       {label: "phone"},
	fEmployment:  {label: "employment status"},
	fIndustry:    {label: "industry field"},
	fPassword:    {label: "PIN / password", placeholder: "at least 8 characters", secret: true},
}

// consentIndex is the focus position of the consent checkbox.
const consentIndex = textFields

// Model is the voter self-registration form.
type Model struct {
	inputs     [textFields]textinput.Model
	consent    bool
	focused    int
	store      *session.Store
	err        string
	submitting bool
	width      int
	height     int
}

// New creates a new registration form.
func New(store *session.Store) Model {
	m := Model{store: store}
	for i, s := range fieldDefs {
		ti := textinput.New()
		ti.Placeholder = s.placeholder
		if ti.Placeholder == "" {
			ti.Placeholder = s.label
		}
		ti.CharLimit = 200
		ti.Width = 40
		if s.secret {
			ti.EchoMode = textinput.EchoPassword
		}
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
	return m
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
		case "tab", "down", "enter":
			if msg.String() == "enter" && m.focused == consentIndex {
				return m.submit()
			}
			m.focused = (m.focused + 1) % (textFields + 1)
			return m, m.updateFocus()
		case "shift+tab", "up":
			m.focused = (m.focused + textFields) % (textFields + 1)
			return m, m.updateFocus()
		case " ":
			if m.focused == consentIndex {
				m.consent = !m.consent
				return m, nil
			}
		case "ctrl+s":
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

	if m.focused == consentIndex {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// Registration builds the request payload from the form. It reports the
// first missing or malformed field as an error message.
func (m Model) Registration() (api.Registration, string) {
	vals := make([]string, textFields)
	for i, in := range m.inputs {
		vals[i] = strings.TrimSpace(in.Value())
		if vals[i] == "" && !fieldDefs[i].optional {
			return api.Registration{}, fieldDefs[i].label + " is required"
		}
	}
	batch, err := strconv.Atoi(vals[fBatchYear])
	if err != nil {
		return api.Registration{}, "batch year must be a number"
	}
	if !m.consent {
		return api.Registration{}, "privacy consent is required"
	}
	return api.Registration{
		FirstName:        vals[fFirstName],
		MiddleName:       vals[fMiddleName],
		LastName:         vals[fLastName],
		StudentID:        vals[fStudentID],
		DateOfBirth:      vals[fDateOfBirth],
		DegreeProgram:    vals[fDegree],
		BatchYear:        batch,
		CampusChapter:    vals[fChapter],
		Email:            vals[fEmail],
		Phone:            vals[fPhone],
		EmploymentStatus: vals[fEmployment],
		IndustryField:    vals[fIndustry],
		PrivacyConsent:   m.consent,
		Password:         m.inputs[fPassword].Value(),
	}, ""
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	reg, problem := m.Registration()
	if problem != "" {
		m.err = problem
		return m, nil
	}
	m.submitting = true
	m.err = ""
	store := m.store
	return m, func() tea.Msg {
		err := store.Register(context.Background(), reg)
		return messages.AuthResultMsg{Op: "register", Err: err}
	}
}

func (m *Model) updateFocus() tea.Cmd {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	if m.focused < textFields {
		return m.inputs[m.focused].Focus()
	}
	return nil
}

// View renders the registration form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Voter Registration"))
	sb.WriteString("\n\n")

	for i, in := range m.inputs {
		sb.WriteString(labelStyle.Render(fieldDefs[i].label) + " " + in.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	box := "[ ]"
	if m.consent {
		box = "[x]"
	}
	if m.focused == consentIndex {
		box = checkStyle.Render(box)
	}
	sb.WriteString(labelStyle.Render("privacy consent") + " " + box + " I agree to the data privacy notice")
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(errorStyle.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Registering...")
	} else {
		sb.WriteString(hintStyle.Render("Tab/Enter next field | Space toggles consent | Ctrl+S to submit | Esc to cancel"))
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
