package messages

import "github.com/dilg/votedesk/internal/api"

// View transition messages.
type (
	GoBackMsg         struct{}
	OpenLoginMsg      struct{}
	OpenQuickLoginMsg struct{}
	OpenRegisterMsg   struct{}
	OpenProfileMsg    struct{}
)

// Data messages.
type (
	// AuthResultMsg reports the outcome of a login, quick login or
	// registration. Err is the value returned by the store action.
	AuthResultMsg struct {
		Op  string
		Err error
	}

	ProfileRefreshedMsg struct {
		Voter api.Voter
		Err   error
	}

	SessionRestoredMsg struct {
		Voter api.Voter
	}

	SessionExpiredMsg struct{}

	LoggedOutMsg struct{}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
