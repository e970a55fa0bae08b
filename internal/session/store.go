package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"maps"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dilg/votedesk/internal/api"
)

// API is the part of the backend client the store depends on.
type API interface {
	Post(ctx context.Context, path string, body, dst any) error
	Get(ctx context.Context, path string, dst any) error
	SetAuthToken(token string)
}

// State is a snapshot of the session.
type State struct {
	Token   string
	Voter   api.Voter
	Loading bool
	Error   string
}

// Store holds the voter session and mirrors it into a Persistence.
// It is safe for concurrent use; only one sign-in call runs at a time.
type Store struct {
	client API
	mirror Persistence

	mu    sync.Mutex
	state State

	refresh singleflight.Group
}

// New creates a store whose initial token and voter are read from mirror.
// No network request is made.
func New(client API, mirror Persistence) *Store {
	s := &Store{client: client, mirror: mirror}

	if token, ok, err := mirror.Get(TokenKey); err != nil {
		log.Printf("session: reading %s: %v", TokenKey, err)
	} else if ok {
		s.state.Token = token
	}

	if raw, ok, err := mirror.Get(VoterKey); err != nil {
		log.Printf("session: reading %s: %v", VoterKey, err)
	} else if ok {
		var v api.Voter
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			log.Printf("session: ignoring unreadable %s: %v", VoterKey, err)
		} else {
			s.state.Voter = v
		}
	}
	return s
}

// InitFromStorage attaches a restored token to the API client.
func (s *Store) InitFromStorage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token != "" {
		s.client.SetAuthToken(s.state.Token)
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Voter = maps.Clone(s.state.Voter)
	return st
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Token != ""
}

// Login signs in with a voter identifier and PIN.
func (s *Store) Login(ctx context.Context, identifier, secret string) error {
	req := api.LoginRequest{Identifier: identifier, Password: secret}
	return s.authenticate(ctx, "login", api.PathLogin, req, loginMessage)
}

// QuickLogin signs in by name, batch and chapter without a password.
func (s *Store) QuickLogin(ctx context.Context, name string, batchYear int, campusChapter string, privacyConsent bool) error {
	req := api.QuickLoginRequest{
		Name:           name,
		BatchYear:      batchYear,
		CampusChapter:  campusChapter,
		PrivacyConsent: privacyConsent,
	}
	return s.authenticate(ctx, "quick login", api.PathQuickLogin, req, loginMessage)
}

// Register creates a voter from payload and signs in as it.
func (s *Store) Register(ctx context.Context, payload any) error {
	return s.authenticate(ctx, "register", api.PathRegister, payload, registerMessage)
}

func (s *Store) authenticate(ctx context.Context, op, path string, body any, describe func(error) string) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state.Loading = false
		s.mu.Unlock()
	}()

	var resp api.AuthResponse
	if err := s.client.Post(ctx, path, body, &resp); err != nil {
		log.Printf("session: %s failed: %v", op, err)
		msg := describe(err)
		s.mu.Lock()
		s.state.Error = msg
		s.mu.Unlock()
		return &AuthError{Op: op, Message: msg, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = resp.Token
	s.state.Voter = resp.Voter
	s.save(TokenKey, resp.Token)
	s.saveVoter(resp.Voter)
	s.client.SetAuthToken(resp.Token)
	return nil
}

// Logout forgets the session locally. The backend is not contacted.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = ""
	s.state.Voter = nil
	s.state.Error = ""
	s.remove(TokenKey)
	s.remove(VoterKey)
	s.client.SetAuthToken("")
}

// SetVoter replaces the voter record, leaving the token alone.
// A nil voter clears it.
func (s *Store) SetVoter(v api.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Voter = v
	s.saveVoter(v)
}

// RefreshVoter refetches the signed-in voter's profile and stores it.
// Concurrent calls share one request, which is not cancelled when a caller
// gives up; the client's timeout bounds it. A result that arrives after the
// session changed is discarded.
func (s *Store) RefreshVoter(ctx context.Context) (api.Voter, error) {
	s.mu.Lock()
	token := s.state.Token
	s.mu.Unlock()
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	ch := s.refresh.DoChan(token, func() (any, error) {
		var v api.Voter
		if err := s.client.Get(context.WithoutCancel(ctx), api.PathMe, &v); err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state.Token != token {
			return nil, ErrNotAuthenticated
		}
		s.state.Voter = v
		s.saveVoter(v)
		return v, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if errors.Is(res.Err, ErrNotAuthenticated) {
		return nil, res.Err
	}
	if res.Err != nil {
		log.Printf("session: refresh failed: %v", res.Err)
		return nil, &AuthError{Op: "refresh", Message: refreshMessage(res.Err), Err: res.Err}
	}
	return maps.Clone(res.Val.(api.Voter)), nil
}

// The helpers below expect s.mu to be held. Mirror failures are logged
// and otherwise ignored; in-memory state stays authoritative.

func (s *Store) saveVoter(v api.Voter) {
	if v == nil {
		s.remove(VoterKey)
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("session: encoding voter: %v", err)
		return
	}
	s.save(VoterKey, string(raw))
}

func (s *Store) save(key, value string) {
	if err := s.mirror.Set(key, value); err != nil {
		log.Printf("session: writing %s: %v", key, err)
	}
}

func (s *Store) remove(key string) {
	if err := s.mirror.Remove(key); err != nil {
		log.Printf("session: removing %s: %v", key, err)
	}
}
