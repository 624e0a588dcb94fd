package admin

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// WorkSession is a span of time spent on a project.
type WorkSession struct {
	ID        string     `json:"id"`
	Project   string     `json:"project"`
	Note      string     `json:"note,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Open reports whether the session is still running.
func (w WorkSession) Open() bool { return w.EndedAt == nil }

// Duration is the session length; an open session counts up to now.
func (w WorkSession) Duration(now time.Time) time.Duration {
	if w.EndedAt != nil {
		return w.EndedAt.Sub(w.StartedAt)
	}
	return now.Sub(w.StartedAt)
}

// WorkSessions tracks time per project. Each project has at most one open
// session.
type WorkSessions struct {
	mu    sync.Mutex
	coll  Collection[WorkSession]
	clock Clock
	newID func() string
}

// NewWorkSessions returns the time tracking service.
func NewWorkSessions(coll Collection[WorkSession], clock Clock) *WorkSessions {
	return &WorkSessions{coll: coll, clock: clock, newID: uuid.NewString}
}

// Start opens a session for project.
func (w *WorkSessions) Start(ctx context.Context, project, note string) (WorkSession, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return WorkSession{}, ErrEmptyProject
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok, err := w.open(ctx, project); err != nil {
		return WorkSession{}, err
	} else if ok {
		return WorkSession{}, ErrSessionOpen
	}

	session := WorkSession{
		ID:        w.newID(),
		Project:   project,
		Note:      strings.TrimSpace(note),
		StartedAt: utcNow(w.clock),
	}
	if err := w.coll.Create(ctx, session.ID, session); err != nil {
		return WorkSession{}, err
	}
	return session, nil
}

// Stop closes the open session for project.
func (w *WorkSessions) Stop(ctx context.Context, project string) (WorkSession, error) {
	project = strings.TrimSpace(project)

	w.mu.Lock()
	defer w.mu.Unlock()

	session, ok, err := w.open(ctx, project)
	if err != nil {
		return WorkSession{}, err
	}
	if !ok {
		return WorkSession{}, ErrNoOpenSession
	}
	return w.coll.Update(ctx, session.ID, func(s *WorkSession) error {
		ended := utcNow(w.clock)
		s.EndedAt = &ended
		return nil
	})
}

// List returns the sessions of project, or of every project when project is
// empty, oldest first.
func (w *WorkSessions) List(ctx context.Context, project string) ([]WorkSession, error) {
	all, err := w.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	project = strings.TrimSpace(project)
	out := make([]WorkSession, 0, len(all))
	for _, s := range all {
		if project == "" || s.Project == project {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out, nil
}

// Total sums the time spent on project, including a running session.
func (w *WorkSessions) Total(ctx context.Context, project string) (time.Duration, error) {
	sessions, err := w.List(ctx, project)
	if err != nil {
		return 0, err
	}
	now := utcNow(w.clock)
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration(now)
	}
	return total, nil
}

func (w *WorkSessions) open(ctx context.Context, project string) (WorkSession, bool, error) {
	sessions, err := w.List(ctx, project)
	if err != nil {
		return WorkSession{}, false, err
	}
	for _, s := range sessions {
		if s.Open() {
			return s, true, nil
		}
	}
	return WorkSession{}, false, nil
}
