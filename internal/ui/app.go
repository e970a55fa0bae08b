package ui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dilg/votedesk/internal/api"
	"github.com/dilg/votedesk/internal/config"
	"github.com/dilg/votedesk/internal/refresher"
	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui/login"
	"github.com/dilg/votedesk/internal/ui/messages"
	"github.com/dilg/votedesk/internal/ui/profile"
	"github.com/dilg/votedesk/internal/ui/quicklogin"
	"github.com/dilg/votedesk/internal/ui/register"
	"github.com/dilg/votedesk/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewHome ViewType = iota
	ViewLogin
	ViewQuickLogin
	ViewRegister
	ViewProfile
)

const sessionExpired = "Session expired, please sign in again"

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType

	// Child models
	loginForm      login.Model
	quickLoginForm quicklogin.Model
	registerForm   register.Model
	profile        profile.Model
	statusBar      statusbar.Model

	// Shared state
	cfg       config.Config
	store     *session.Store
	refresher *refresher.Refresher

	// Dimensions
	width  int
	height int

	// For passing program reference to the refresher
	program *tea.Program
}

// NewApp creates the root application model around an initialized store.
func NewApp(cfg config.Config, store *session.Store, ref *refresher.Refresher) *App {
	return &App{
		activeView: ViewHome,
		statusBar:  statusbar.New(cfg.Profile),
		cfg:        cfg,
		store:      store,
		refresher:  ref,
	}
}

// SetProgram stores the tea.Program reference for the background refresher.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	return a.restoredSession()
}

func (a *App) restoredSession() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		if store.IsAuthenticated() {
			return messages.SessionRestoredMsg{Voter: store.State().Voter}
		}
		return nil
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 1 // Reserve 1 line for status bar.
		a.statusBar.SetSize(msg.Width)
		switch a.activeView {
		case ViewLogin:
			a.loginForm.SetSize(msg.Width, contentHeight)
		case ViewQuickLogin:
			a.quickLoginForm.SetSize(msg.Width, contentHeight)
		case ViewRegister:
			a.registerForm.SetSize(msg.Width, contentHeight)
		case ViewProfile:
			a.profile.SetSize(msg.Width, contentHeight)
		}
		return a, nil

	case tea.KeyMsg:
		if a.inForm() {
			// Text inputs own every key except these.
			switch msg.String() {
			case "esc":
				return a, a.goBack()
			case "ctrl+c":
				return a, a.quit()
			}
		} else if cmd, ok := a.handleKey(msg); ok {
			return a, cmd
		}

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.SessionRestoredMsg:
		a.statusBar.SetVoter(msg.Voter.Name())
		a.startRefresher()
		return a, nil

	case messages.AuthResultMsg:
		if msg.Err == nil {
			st := a.store.State()
			a.statusBar.SetVoter(st.Voter.Name())
			a.statusBar.SetStatus("Signed in", false)
			a.startRefresher()
			a.activeView = ViewHome
			a.previousViews = nil
			return a, nil
		}
		if errors.Is(msg.Err, session.ErrBusy) {
			a.statusBar.SetStatus("Still signing in...", true)
		}
		// Let the form show the error.

	case messages.ProfileRefreshedMsg:
		if msg.Err == nil {
			a.statusBar.SetVoter(msg.Voter.Name())
			if a.activeView != ViewProfile {
				a.statusBar.SetStatus("Profile updated", false)
			}
		} else if api.StatusCode(msg.Err) == http.StatusUnauthorized {
			return a, a.logout(sessionExpired, true)
		} else {
			a.statusBar.SetStatus("Profile refresh failed", true)
		}

	case messages.SessionExpiredMsg:
		return a, a.logout(sessionExpired, true)

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
		cmds = append(cmds, cmd)
	case ViewQuickLogin:
		a.quickLoginForm, cmd = a.quickLoginForm.Update(msg)
		cmds = append(cmds, cmd)
	case ViewRegister:
		a.registerForm, cmd = a.registerForm.Update(msg)
		cmds = append(cmds, cmd)
	case ViewProfile:
		a.profile, cmd = a.profile.Update(msg)
		cmds = append(cmds, cmd)
	}

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewHome:
		content = a.homeView()
	case ViewLogin:
		content = a.loginForm.View()
	case ViewQuickLogin:
		content = a.quickLoginForm.View()
	case ViewRegister:
		content = a.registerForm.View()
	case ViewProfile:
		content = a.profile.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) homeView() string {
	st := a.store.State()

	var sb strings.Builder
	sb.WriteString(TitleStyle.Render("votedesk"))
	sb.WriteString("\n")

	bindings := signedOutKeys
	if st.Token != "" {
		bindings = signedInKeys
		sb.WriteString(TextStyle.Render("Signed in as " + st.Voter.Name()))
		if st.Voter.HasVoted() {
			sb.WriteString("  " + BadgeStyle.Render("VOTED"))
		}
	} else {
		sb.WriteString(DimStyle.Render("Not signed in"))
	}
	sb.WriteString("\n\n")

	for _, b := range bindings {
		h := b.Help()
		sb.WriteString(KeyStyle.Render(h.Key) + " " + DimStyle.Render(h.Desc) + "\n")
	}

	content := sb.String()
	h := a.height - 1
	if h < 0 {
		h = 0
	}
	return lipgloss.Place(a.width, h, lipgloss.Center, lipgloss.Center, content)
}

// handleKey processes global keys outside the forms. ok is false when the
// key should fall through to the active view.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, Keys.Quit):
		if a.activeView == ViewHome || msg.String() == "ctrl+c" {
			return a.quit(), true
		}
		return a.goBack(), true
	case key.Matches(msg, Keys.Back):
		return a.goBack(), true
	}

	if a.store.IsAuthenticated() {
		switch {
		case key.Matches(msg, Keys.Profile):
			return a.openProfile(), true
		case key.Matches(msg, Keys.Refresh):
			a.statusBar.SetStatus("Refreshing profile...", false)
			return profile.Refresh(a.store), true
		case key.Matches(msg, Keys.Logout):
			return a.logout("Signed out", false), true
		}
		return nil, false
	}

	switch {
	case key.Matches(msg, Keys.Login):
		a.loginForm = login.New(a.store)
		a.loginForm.SetSize(a.width, a.height-1)
		a.pushView(ViewLogin)
		return nil, true
	case key.Matches(msg, Keys.QuickLogin):
		a.quickLoginForm = quicklogin.New(a.store)
		a.quickLoginForm.SetSize(a.width, a.height-1)
		a.pushView(ViewQuickLogin)
		return nil, true
	case key.Matches(msg, Keys.Register):
		a.registerForm = register.New(a.store)
		a.registerForm.SetSize(a.width, a.height-1)
		a.pushView(ViewRegister)
		return nil, true
	}
	return nil, false
}

func (a *App) inForm() bool {
	switch a.activeView {
	case ViewLogin, ViewQuickLogin, ViewRegister:
		return true
	}
	return false
}

func (a *App) openProfile() tea.Cmd {
	a.profile = profile.New(a.store)
	a.profile.SetSize(a.width, a.height-1)
	a.pushView(ViewProfile)
	return a.profile.Init()
}

func (a *App) startRefresher() {
	if a.program != nil && a.refresher != nil {
		a.refresher.Start(a.program)
	}
}

func (a *App) logout(status string, isError bool) tea.Cmd {
	if a.refresher != nil {
		a.refresher.Stop()
	}
	a.store.Logout()
	a.statusBar.SetVoter("")
	a.statusBar.SetStatus(status, isError)
	a.activeView = ViewHome
	a.previousViews = nil
	return nil
}

func (a *App) quit() tea.Cmd {
	if a.refresher != nil {
		a.refresher.Stop()
	}
	return tea.Quit
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

func (a *App) goBack() tea.Cmd {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	return nil
}
