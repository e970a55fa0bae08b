package session

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dilg/votedesk/internal/api"
)

var (
	// ErrBusy is returned when an authentication call is already in flight.
	ErrBusy = errors.New("session: another sign-in request is in progress")
	// ErrNotAuthenticated is returned by calls that need a token.
	ErrNotAuthenticated = errors.New("session: not signed in")
)

// Fallback messages used when the backend gives nothing usable.
const (
	loginFallback    = "Login failed. Please try again."
	registerFallback = "Registration failed."
	refreshFallback  = "Could not refresh your profile."
)

// AuthError is a failed store action. Message is the user-facing text that
// was also recorded in State.Error; Err is the underlying transport error.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// loginMessage prefers the body's "error" member.
func loginMessage(err error) string {
	if msg, ok := api.ErrorField(api.ResponseBody(err)); ok {
		return msg
	}
	return loginFallback
}

// registerMessage uses a plain-text body verbatim and flattens a
// field-to-messages body into one line.
func registerMessage(err error) string {
	body := api.ResponseBody(err)
	if len(bytes.TrimSpace(body)) == 0 {
		return registerFallback
	}
	if msg, ok := api.PlainMessage(body); ok {
		return msg
	}
	if msg := api.FlattenMessages(body); strings.TrimSpace(msg) != "" {
		return msg
	}
	return registerFallback
}

func refreshMessage(err error) string {
	if msg, ok := api.ErrorField(api.ResponseBody(err)); ok {
		return msg
	}
	return refreshFallback
}
