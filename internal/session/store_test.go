package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dilg/votedesk/internal/api"
)

type call struct {
	Method string
	Path   string
	Body   any
}

// fakeAPI answers requests from a per-path script.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	tokens  []string
	replies map[string]func() (string, error)

	// When block is set, requests signal entered and wait for block to close.
	block    chan struct{}
	entered  chan struct{}
	// finished, when set, is signalled after each request completes.
	finished chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: make(map[string]func() (string, error))}
}

func (f *fakeAPI) reply(path, body string) {
	f.replies[path] = func() (string, error) { return body, nil }
}

func (f *fakeAPI) fail(path string, status int, body string) {
	f.replies[path] = func() (string, error) {
		return "", &api.HTTPError{Method: "POST", URL: path, StatusCode: status, Body: []byte(body)}
	}
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, dst any) error {
	return f.do(ctx, "POST", path, body, dst)
}

func (f *fakeAPI) Get(ctx context.Context, path string, dst any) error {
	return f.do(ctx, "GET", path, nil, dst)
}

func (f *fakeAPI) do(ctx context.Context, method, path string, body, dst any) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Path: path, Body: body})
	reply, ok := f.replies[path]
	block, entered, finished := f.block, f.entered, f.finished
	f.mu.Unlock()

	if finished != nil {
		defer func() { finished <- struct{}{} }()
	}
	if block != nil {
		entered <- struct{}{}
		<-block
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("dial tcp: connection refused")
	}
	raw, err := reply()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dst)
}

func (f *fakeAPI) SetAuthToken(token string) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}

func (f *fakeAPI) lastToken() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		return "", false
	}
	return f.tokens[len(f.tokens)-1], true
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

const okAuth = `{"token":"tok-123","voter":{"id":7,"name":"Ana Reyes","voter_id":"V-7"}}`

func assertSignedIn(t *testing.T, s *Store, f *fakeAPI, mirror *MemoryPersistence) {
	t.Helper()
	st := s.State()
	if st.Token != "tok-123" {
		t.Errorf("expected token tok-123, got %q", st.Token)
	}
	if st.Voter.Name() != "Ana Reyes" {
		t.Errorf("expected voter Ana Reyes, got %v", st.Voter)
	}
	if st.Loading {
		t.Error("expected loading to be false")
	}
	if st.Error != "" {
		t.Errorf("expected empty error, got %q", st.Error)
	}
	if tok, _, _ := mirror.Get(TokenKey); tok != "tok-123" {
		t.Errorf("expected mirrored token tok-123, got %q", tok)
	}
	raw, ok, _ := mirror.Get(VoterKey)
	if !ok {
		t.Fatal("expected mirrored voter")
	}
	var v api.Voter
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decoding mirrored voter: %v", err)
	}
	if !reflect.DeepEqual(v, st.Voter) {
		t.Errorf("mirrored voter %v differs from state %v", v, st.Voter)
	}
	if tok, _ := f.lastToken(); tok != "tok-123" {
		t.Errorf("expected client token tok-123, got %q", tok)
	}
}

func TestInitFromStorageAttachesRestoredToken(t *testing.T) {
	f := newFakeAPI()
	mirror := NewMemoryPersistence()
	mirror.Set(TokenKey, "restored")
	mirror.Set(VoterKey, `{"id":3,"name":"Lea"}`)

	s := New(f, mirror)
	s.InitFromStorage()

	if tok, ok := f.lastToken(); !ok || tok != "restored" {
		t.Errorf("expected client token 'restored', got %q (set=%v)", tok, ok)
	}
	if f.callCount() != 0 {
		t.Errorf("expected no network calls, got %d", f.callCount())
	}
	st := s.State()
	if st.Voter.Name() != "Lea" {
		t.Errorf("expected restored voter Lea, got %v", st.Voter)
	}
	if !s.IsAuthenticated() {
		t.Error("expected restored session to be authenticated")
	}
}

func TestInitFromStorageWithoutToken(t *testing.T) {
	f := newFakeAPI()
	s := New(f, NewMemoryPersistence())
	s.InitFromStorage()

	if _, ok := f.lastToken(); ok {
		t.Error("expected client token to stay untouched")
	}
	if s.IsAuthenticated() {
		t.Error("expected unauthenticated store")
	}
}

func TestNewIgnoresUnreadableVoter(t *testing.T) {
	mirror := NewMemoryPersistence()
	mirror.Set(TokenKey, "tok")
	mirror.Set(VoterKey, `{not json`)

	s := New(newFakeAPI(), mirror)
	st := s.State()
	if st.Token != "tok" {
		t.Errorf("expected token tok, got %q", st.Token)
	}
	if st.Voter != nil {
		t.Errorf("expected nil voter, got %v", st.Voter)
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathLogin, okAuth)
	mirror := NewMemoryPersistence()
	s := New(f, mirror)

	if err := s.Login(context.Background(), "V-7", "4321"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	assertSignedIn(t, s, f, mirror)

	want := api.LoginRequest{Identifier: "V-7", Password: "4321"}
	if got := f.calls[0].Body; got != want {
		t.Errorf("expected body %+v, got %+v", want, got)
	}
}

func TestQuickLoginSuccess(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathQuickLogin, okAuth)
	mirror := NewMemoryPersistence()
	s := New(f, mirror)

	if err := s.QuickLogin(context.Background(), "Ana Reyes", 2018, "Manila", true); err != nil {
		t.Fatalf("QuickLogin: %v", err)
	}
	assertSignedIn(t, s, f, mirror)

	want := api.QuickLoginRequest{Name: "Ana Reyes", BatchYear: 2018, CampusChapter: "Manila", PrivacyConsent: true}
	if got := f.calls[0].Body; got != want {
		t.Errorf("expected body %+v, got %+v", want, got)
	}
}

func TestRegisterSuccess(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathRegister, okAuth)
	mirror := NewMemoryPersistence()
	s := New(f, mirror)

	payload := map[string]any{"first_name": "Ana", "last_name": "Reyes"}
	if err := s.Register(context.Background(), payload); err != nil {
		t.Fatalf("Register: %v", err)
	}
	assertSignedIn(t, s, f, mirror)
	if f.calls[0].Path != api.PathRegister {
		t.Errorf("expected %s, got %s", api.PathRegister, f.calls[0].Path)
	}
}

func TestErrorFieldSurfacedVerbatim(t *testing.T) {
	actions := map[string]struct {
		path string
		run  func(*Store) error
	}{
		"login": {api.PathLogin, func(s *Store) error {
			return s.Login(context.Background(), "x", "y")
		}},
		"quick login": {api.PathQuickLogin, func(s *Store) error {
			return s.QuickLogin(context.Background(), "x", 2020, "", true)
		}},
		"register": {api.PathRegister, func(s *Store) error {
			return s.Register(context.Background(), map[string]any{})
		}},
	}

	for name, a := range actions {
		t.Run(name, func(t *testing.T) {
			f := newFakeAPI()
			f.fail(a.path, 400, `{"error":"X"}`)
			s := New(f, NewMemoryPersistence())

			err := a.run(s)
			var ae *AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("expected *AuthError, got %T (%v)", err, err)
			}
			if ae.Message != "X" {
				t.Errorf("expected message X, got %q", ae.Message)
			}
			var he *api.HTTPError
			if !errors.As(err, &he) {
				t.Error("expected the transport error to be reachable")
			}
			st := s.State()
			if st.Error != "X" {
				t.Errorf("expected error state X, got %q", st.Error)
			}
			if st.Loading {
				t.Error("expected loading to be false")
			}
			if st.Token != "" {
				t.Errorf("expected no token, got %q", st.Token)
			}
		})
	}
}

func TestRegisterFlattensValidationErrors(t *testing.T) {
	f := newFakeAPI()
	f.fail(api.PathRegister, 400, `{"field1":["a","b"],"field2":["c"]}`)
	s := New(f, NewMemoryPersistence())

	err := s.Register(context.Background(), map[string]any{})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := s.State().Error; got != "a b c" {
		t.Errorf("expected %q, got %q", "a b c", got)
	}
}

func TestRegisterPlainMessageBody(t *testing.T) {
	f := newFakeAPI()
	f.fail(api.PathRegister, 403, `"Registration is closed."`)
	s := New(f, NewMemoryPersistence())

	s.Register(context.Background(), map[string]any{})
	if got := s.State().Error; got != "Registration is closed." {
		t.Errorf("expected plain message, got %q", got)
	}
}

func TestRegisterTopLevelListBody(t *testing.T) {
	f := newFakeAPI()
	f.fail(api.PathRegister, 400, `["Voter already registered."]`)
	s := New(f, NewMemoryPersistence())

	if err := s.Register(context.Background(), map[string]any{}); err == nil {
		t.Fatal("expected error")
	}
	if got := s.State().Error; got != "Voter already registered." {
		t.Errorf("expected %q, got %q", "Voter already registered.", got)
	}
}

func TestRegisterEmptyValidationBodyUsesFallback(t *testing.T) {
	for _, body := range []string{`{}`, `{"email":null}`, `{"email":null,"phone":[]}`, `[]`} {
		f := newFakeAPI()
		f.fail(api.PathRegister, 400, body)
		s := New(f, NewMemoryPersistence())

		s.Register(context.Background(), map[string]any{})
		if got := s.State().Error; got != registerFallback {
			t.Errorf("body %s: expected %q, got %q", body, registerFallback, got)
		}
	}
}

func TestFallbackMessages(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Store) error
		want string
	}{
		{"login", func(s *Store) error { return s.Login(context.Background(), "a", "b") }, loginFallback},
		{"quick login", func(s *Store) error { return s.QuickLogin(context.Background(), "a", 1, "", false) }, loginFallback},
		{"register", func(s *Store) error { return s.Register(context.Background(), nil) }, registerFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No replies scripted: every call fails without a response body.
			s := New(newFakeAPI(), NewMemoryPersistence())
			if err := tt.run(s); err == nil {
				t.Fatal("expected error")
			}
			st := s.State()
			if st.Error != tt.want {
				t.Errorf("expected %q, got %q", tt.want, st.Error)
			}
			if st.Loading {
				t.Error("expected loading to be false")
			}
		})
	}
}

func TestLoginIgnoresBodyWithoutErrorField(t *testing.T) {
	f := newFakeAPI()
	f.fail(api.PathLogin, 500, `{"detail":"boom"}`)
	s := New(f, NewMemoryPersistence())

	s.Login(context.Background(), "a", "b")
	if got := s.State().Error; got != loginFallback {
		t.Errorf("expected fallback, got %q", got)
	}
}

func TestErrorResetAtStartOfCall(t *testing.T) {
	f := newFakeAPI()
	f.fail(api.PathLogin, 400, `{"error":"Invalid PIN"}`)
	s := New(f, NewMemoryPersistence())
	s.Login(context.Background(), "a", "b")

	f.reply(api.PathLogin, okAuth)
	if err := s.Login(context.Background(), "a", "c"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := s.State().Error; got != "" {
		t.Errorf("expected error to be cleared, got %q", got)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathLogin, okAuth)
	mirror := NewMemoryPersistence()
	s := New(f, mirror)
	s.Login(context.Background(), "a", "b")

	for i := 0; i < 2; i++ {
		s.Logout()

		st := s.State()
		if st.Token != "" || st.Voter != nil || st.Error != "" || st.Loading {
			t.Errorf("logout %d: expected zero state, got %+v", i+1, st)
		}
		if _, ok, _ := mirror.Get(TokenKey); ok {
			t.Errorf("logout %d: expected token key removed", i+1)
		}
		if _, ok, _ := mirror.Get(VoterKey); ok {
			t.Errorf("logout %d: expected voter key removed", i+1)
		}
		if tok, ok := f.lastToken(); !ok || tok != "" {
			t.Errorf("logout %d: expected client credential detached, got %q", i+1, tok)
		}
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	f := newFakeAPI()
	s := New(f, NewMemoryPersistence())
	s.Logout()

	if s.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
	if f.callCount() != 0 {
		t.Errorf("expected no network calls, got %d", f.callCount())
	}
}

func TestSetVoter(t *testing.T) {
	mirror := NewMemoryPersistence()
	mirror.Set(TokenKey, "keep")
	s := New(newFakeAPI(), mirror)

	s.SetVoter(api.Voter{"id": 1})
	raw, ok, _ := mirror.Get(VoterKey)
	if !ok || raw != `{"id":1}` {
		t.Errorf("expected mirrored {\"id\":1}, got %q (ok=%v)", raw, ok)
	}
	if got := s.State().Voter; !reflect.DeepEqual(got, api.Voter{"id": 1}) {
		t.Errorf("unexpected voter %v", got)
	}

	s.SetVoter(nil)
	if _, ok, _ := mirror.Get(VoterKey); ok {
		t.Error("expected voter key removed")
	}
	st := s.State()
	if st.Voter != nil {
		t.Errorf("expected nil voter, got %v", st.Voter)
	}
	if st.Token != "keep" {
		t.Errorf("expected token untouched, got %q", st.Token)
	}
}

func TestStateReturnsCopy(t *testing.T) {
	s := New(newFakeAPI(), NewMemoryPersistence())
	s.SetVoter(api.Voter{"name": "Ana"})

	st := s.State()
	st.Voter["name"] = "changed"
	if got := s.State().Voter.Name(); got != "Ana" {
		t.Errorf("snapshot mutation leaked into store: %q", got)
	}
}

func TestOverlappingSignInIsRejected(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathLogin, okAuth)
	f.block = make(chan struct{})
	f.entered = make(chan struct{}, 1)
	s := New(f, NewMemoryPersistence())

	done := make(chan error)
	go func() { done <- s.Login(context.Background(), "a", "b") }()
	<-f.entered
	if !s.State().Loading {
		t.Error("expected loading while the first call is in flight")
	}

	err := s.QuickLogin(context.Background(), "x", 2020, "", true)
	if !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if got := s.State().Error; got != "" {
		t.Errorf("rejected call must not touch state, got error %q", got)
	}

	close(f.block)
	if err := <-done; err != nil {
		t.Fatalf("Login: %v", err)
	}
	if f.callCount() != 1 {
		t.Errorf("expected 1 network call, got %d", f.callCount())
	}
	if s.State().Loading {
		t.Error("expected loading to be false")
	}
}

func TestRefreshVoter(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathLogin, okAuth)
	f.reply(api.PathMe, `{"id":7,"name":"Ana R. Reyes","has_voted":true}`)
	mirror := NewMemoryPersistence()
	s := New(f, mirror)

	if _, err := s.RefreshVoter(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	s.Login(context.Background(), "a", "b")
	v, err := s.RefreshVoter(context.Background())
	if err != nil {
		t.Fatalf("RefreshVoter: %v", err)
	}
	if !v.HasVoted() {
		t.Error("expected refreshed has_voted")
	}
	st := s.State()
	if st.Voter.Name() != "Ana R. Reyes" {
		t.Errorf("expected refreshed name, got %q", st.Voter.Name())
	}
	if st.Token != "tok-123" {
		t.Errorf("expected token untouched, got %q", st.Token)
	}
	raw, _, _ := mirror.Get(VoterKey)
	if raw != `{"has_voted":true,"id":7,"name":"Ana R. Reyes"}` {
		t.Errorf("unexpected mirrored voter %q", raw)
	}
}

func TestRefreshVoterOutlivesCancelledCaller(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathLogin, okAuth)
	f.reply(api.PathMe, `{"id":7,"name":"Ana R. Reyes"}`)
	s := New(f, NewMemoryPersistence())
	s.Login(context.Background(), "a", "b")

	f.mu.Lock()
	f.block = make(chan struct{})
	f.entered = make(chan struct{}, 1)
	f.finished = make(chan struct{}, 1)
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := s.RefreshVoter(ctx)
		done <- err
	}()
	<-f.entered
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled for the caller, got %v", err)
	}

	close(f.block)
	<-f.finished
	// The shared request stores its result once it completes.
	for i := 0; i < 100 && s.State().Voter.Name() != "Ana R. Reyes"; i++ {
		time.Sleep(time.Millisecond)
	}
	if got := s.State().Voter.Name(); got != "Ana R. Reyes" {
		t.Errorf("expected shared refresh to complete, voter is %q", got)
	}
}

func TestRefreshVoterUnauthorized(t *testing.T) {
	f := newFakeAPI()
	f.reply(api.PathLogin, okAuth)
	f.fail(api.PathMe, 401, `{"detail":"Invalid token."}`)
	s := New(f, NewMemoryPersistence())
	s.Login(context.Background(), "a", "b")

	_, err := s.RefreshVoter(context.Background())
	if api.StatusCode(err) != 401 {
		t.Errorf("expected 401 to be reachable through the error, got %v", err)
	}
	var ae *AuthError
	if !errors.As(err, &ae) || ae.Message != refreshFallback {
		t.Errorf("expected refresh fallback message, got %v", err)
	}
	if got := s.State().Error; got != "" {
		t.Errorf("refresh must not record errors, got %q", got)
	}
}
