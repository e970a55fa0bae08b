package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit       key.Binding
	Back       key.Binding
	Login      key.Binding
	QuickLogin key.Binding
	Register   key.Binding
	Profile    key.Binding
	Refresh    key.Binding
	Logout     key.Binding
}

var Keys = KeyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Login:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "login")),
	QuickLogin: key.NewBinding(key.WithKeys("Q"), key.WithHelp("Q", "quick login")),
	Register:   key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "register")),
	Profile:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile")),
	Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh profile")),
	Logout:     key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "logout")),
}

// signedOutKeys and signedInKeys are listed on the home view.
var (
	signedOutKeys = []key.Binding{Keys.Login, Keys.QuickLogin, Keys.Register, Keys.Quit}
	signedInKeys  = []key.Binding{Keys.Profile, Keys.Refresh, Keys.Logout, Keys.Quit}
)
