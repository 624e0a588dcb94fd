package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-intake/pkg/auth"
	"github.com/goliatone/go-intake/pkg/model"
	"github.com/goliatone/go-intake/pkg/notify"
	"github.com/goliatone/go-intake/pkg/wizard"
)

const sessionCookie = "intake_session"

// visitor is the server-side state behind one browser cookie.
type visitor struct {
	id     string
	wizard *wizard.Session
	flash  *notify.Recorder
	auth   *auth.Session

	unsubscribe func()
	lastSeen    time.Time
}

// visitors maps cookies to visitor state and evicts idle entries.
type visitors struct {
	mu     sync.Mutex
	items  map[string]*visitor
	form   *model.Form
	authn  auth.Authenticator
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

func newVisitors(form *model.Form, authn auth.Authenticator, ttl time.Duration, logger *slog.Logger) *visitors {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &visitors{
		items:  make(map[string]*visitor),
		form:   form,
		authn:  authn,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// get returns the visitor for the request, creating one and setting the
// cookie when the request has none or its state has been evicted.
func (v *visitors) get(w http.ResponseWriter, r *http.Request) (*visitor, error) {
	now := v.now()
	if c, err := r.Cookie(sessionCookie); err == nil {
		v.mu.Lock()
		existing, ok := v.items[c.Value]
		if ok && now.Sub(existing.lastSeen) <= v.ttl {
			existing.lastSeen = now
			v.mu.Unlock()
			return existing, nil
		}
		v.mu.Unlock()
	}

	created, err := v.create(now)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    created.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return created, nil
}

// lookup returns the visitor for the request without creating one.
func (v *visitors) lookup(r *http.Request) (*visitor, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	existing, ok := v.items[c.Value]
	if !ok || v.now().Sub(existing.lastSeen) > v.ttl {
		return nil, false
	}
	return existing, true
}

func (v *visitors) create(now time.Time) (*visitor, error) {
	id := uuid.NewString()
	logger := v.logger.With("session", id[:8])

	ws, err := wizard.NewSession(v.form,
		wizard.WithLogger(logger),
		wizard.WithStatusObserver(func(from, to wizard.Status) {
			logger.Debug("submission status", "from", string(from), "to", string(to))
		}),
	)
	if err != nil {
		return nil, err
	}

	authSession := auth.NewSession(v.authn)
	unsubscribe := authSession.Subscribe(func(ev auth.Event) {
		if ev.SignedIn() {
			logger.Info("admin signed in", "subject", ev.Principal.Subject)
			return
		}
		logger.Info("admin signed out")
	})

	item := &visitor{
		id:          id,
		wizard:      ws,
		flash:       &notify.Recorder{},
		auth:        authSession,
		unsubscribe: unsubscribe,
		lastSeen:    now,
	}
	v.mu.Lock()
	v.items[id] = item
	v.mu.Unlock()
	return item, nil
}

// sweep evicts visitors idle longer than the ttl and returns how many went.
func (v *visitors) sweep() int {
	now := v.now()

	v.mu.Lock()
	var expired []*visitor
	for id, item := range v.items {
		if now.Sub(item.lastSeen) > v.ttl {
			expired = append(expired, item)
			delete(v.items, id)
		}
	}
	v.mu.Unlock()

	for _, item := range expired {
		item.auth.SignOut()
		item.unsubscribe()
	}
	if len(expired) > 0 {
		v.logger.Debug("evicted idle sessions", "count", len(expired))
	}
	return len(expired)
}

func (v *visitors) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// run sweeps on an interval until ctx is done.
func (v *visitors) run(ctx context.Context) {
	interval := v.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.sweep()
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
