// Package auth holds the signed-in state of the back-office user. A Session is
// an explicit value owned by its caller; there is no process-wide auth state.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrNotConfigured      = errors.New("auth: no authenticator configured")
)

// Principal is the authenticated user.
type Principal struct {
	Subject  string    `json:"subject"`
	SignedIn time.Time `json:"signedIn"`
}

// Authenticator exchanges a credential for a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// StaticToken authenticates a single admin against a fixed token.
type StaticToken struct {
	Subject string
	Token   string
	Now     func() time.Time
}

// Authenticate implements Authenticator.
func (s StaticToken) Authenticate(_ context.Context, token string) (Principal, error) {
	if s.Token == "" {
		return Principal{}, ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.Token)) != 1 {
		return Principal{}, ErrInvalidCredentials
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	subject := s.Subject
	if subject == "" {
		subject = "admin"
	}
	return Principal{Subject: subject, SignedIn: now().UTC()}, nil
}

// Event is delivered to subscribers on every sign-in and sign-out.
type Event struct {
	Principal *Principal
}

// SignedIn reports whether the event carries a principal.
func (e Event) SignedIn() bool { return e.Principal != nil }

// Session tracks the current principal and notifies subscribers of changes.
type Session struct {
	auth Authenticator

	mu          sync.Mutex
	current     *Principal
	subscribers map[uint64]func(Event)
	nextID      uint64
}

// NewSession returns a signed-out session.
func NewSession(authenticator Authenticator) *Session {
	return &Session{auth: authenticator, subscribers: make(map[uint64]func(Event))}
}

// SignIn authenticates token and, on success, replaces the current principal.
// A failed attempt leaves the previous state untouched.
func (s *Session) SignIn(ctx context.Context, token string) (Principal, error) {
	if s.auth == nil {
		return Principal{}, ErrNotConfigured
	}
	p, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return Principal{}, err
	}

	s.mu.Lock()
	s.current = &p
	subs := s.snapshotLocked()
	s.mu.Unlock()

	publish(subs, Event{Principal: &p})
	return p, nil
}

// SignOut clears the principal. Signing out while signed out is a no-op.
func (s *Session) SignOut() {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return
	}
	s.current = nil
	subs := s.snapshotLocked()
	s.mu.Unlock()

	publish(subs, Event{})
}

// Current returns the principal, if any.
func (s *Session) Current() (Principal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Principal{}, false
	}
	return *s.current, true
}

// Subscribe registers fn for state changes. The returned function removes the
// subscription and may be called more than once.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) snapshotLocked() []func(Event) {
	out := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		out = append(out, fn)
	}
	return out
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
