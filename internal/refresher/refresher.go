package refresher

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dilg/votedesk/internal/api"
	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui/messages"
)

// Notifier receives refresh results. *tea.Program satisfies it.
type Notifier interface {
	Send(msg tea.Msg)
}

// Refresher periodically refetches the signed-in voter's profile.
type Refresher struct {
	store    *session.Store
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	stopCh chan struct{}
}

// New creates a refresher polling every interval. Each poll is bounded by
// timeout.
func New(store *session.Store, interval, timeout time.Duration) *Refresher {
	return &Refresher{
		store:    store,
		interval: interval,
		timeout:  timeout,
	}
}

// Start begins polling and reports to n. Starting a running refresher is a
// no-op.
func (r *Refresher) Start(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		return
	}
	r.stopCh = make(chan struct{})
	go r.loop(n, r.stopCh)
}

// Stop halts polling. It does not wait for an in-flight poll, whose result
// is dropped. Stop is safe to call more than once, and Start may be called
// again afterwards.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
}

func (r *Refresher) loop(n Notifier, stopCh chan struct{}) {
	defer func() {
		r.mu.Lock()
		if r.stopCh == stopCh {
			r.stopCh = nil
		}
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !r.poll(n, stopCh) {
				return
			}
		}
	}
}

// poll runs one refresh. It returns false when polling should end.
func (r *Refresher) poll(n Notifier, stopCh chan struct{}) bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	voter, err := r.store.RefreshVoter(ctx)
	select {
	case <-stopCh:
		return false
	default:
	}

	switch {
	case err == nil:
		n.Send(messages.ProfileRefreshedMsg{Voter: voter})
		return true
	case errors.Is(err, session.ErrNotAuthenticated):
		return false
	case api.StatusCode(err) == http.StatusUnauthorized:
		log.Printf("refresher: credential rejected, signing out")
		r.store.Logout()
		n.Send(messages.SessionExpiredMsg{})
		return false
	default:
		log.Printf("refresher: %v", err)
		return true
	}
}
