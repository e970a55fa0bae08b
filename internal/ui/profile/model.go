package profile

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dilg/votedesk/internal/api"
	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui/messages"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1E6FD9")).Bold(true).Padding(1, 0)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#828282")).Bold(true).Width(20)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	votedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#32CD32")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
)

// rows lists the voter fields shown, in order.
var rows = []struct{ key, label string }{
	{"voter_id", "Voter ID"},
	{"student_id", "Student ID"},
	{"alumni_id", "Alumni ID"},
	{"batch_year", "Batch"},
	{"campus_chapter", "Campus chapter"},
	{"degree_program", "Degree program"},
	{"email", "Email"},
	{"phone", "Phone"},
	{"employment_status", "Employment"},
	{"industry_field", "Industry"},
	{"is_approved", "Approved"},
	{"pin_reset_requested", "PIN reset requested"},
}

// Model is the signed-in voter's profile view.
type Model struct {
	voter   api.Voter
	loading bool
	err     string
	store   *session.Store
	width   int
	height  int
}

// New creates a profile view showing the store's current voter.
func New(store *session.Store) Model {
	return Model{
		voter:   store.State().Voter,
		loading: true,
		store:   store,
	}
}

// Init refreshes the profile from the backend.
func (m Model) Init() tea.Cmd {
	return Refresh(m.store)
}

// Refresh returns a command that refetches the voter profile.
func Refresh(store *session.Store) tea.Cmd {
	return func() tea.Msg {
		v, err := store.RefreshVoter(context.Background())
		return messages.ProfileRefreshedMsg{Voter: v, Err: err}
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
	case messages.ProfileRefreshedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		} else {
			m.err = ""
			m.voter = msg.Voter
		}
	}
	return m, nil
}

// View renders the profile.
func (m Model) View() string {
	if m.voter == nil {
		if m.loading {
			return titleStyle.Render("Loading profile...")
		}
		if m.err != "" {
			return titleStyle.Render("Error: " + m.err)
		}
		return titleStyle.Render("No voter profile")
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.voter.Name()))
	if m.voter.HasVoted() {
		sb.WriteString("  " + votedStyle.Render("VOTED"))
	}
	sb.WriteString("\n")

	for _, r := range rows {
		val := m.voter.Field(r.key)
		if val == "" {
			continue
		}
		sb.WriteString(labelStyle.Render(r.label) + valueStyle.Render(val))
		sb.WriteString("\n")
	}

	if m.loading {
		sb.WriteString("\nRefreshing...")
	} else if m.err != "" {
		sb.WriteString("\n" + errorStyle.Render(m.err))
	}
	return sb.String()
}
