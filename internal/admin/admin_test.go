package admin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/pkg/consultation"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setup(t *testing.T) (*Services, *fakeClock) {
	t.Helper()
	s, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := Open(context.Background(), s, clock.Now)
	require.NoError(t, err)
	return svc, clock
}

func insertConsultation(t *testing.T, svc *Services, name string) consultation.Record {
	t.Helper()
	ctx := context.Background()
	rec := consultation.Record{
		Name:               name,
		Email:              "x@example.com",
		BusinessType:       "agency",
		OnlinePresence:     "no",
		Goal:               "Launch a site",
		MainChallenge:      "We have no web presence at all",
		ServicesInterested: []string{"web-design"},
		Budget:             500000,
	}
	require.NoError(t, svc.Records.Insert(ctx, rec))
	list, err := svc.Consultations.List(ctx, "")
	require.NoError(t, err)
	for _, r := range list {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("inserted consultation %q not listed", name)
	return consultation.Record{}
}

func TestConsultations_StatusFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)
	rec := insertConsultation(t, svc, "Acme")

	_, err := svc.Consultations.SetStatus(ctx, rec.ID, "pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err := svc.Consultations.SetStatus(ctx, rec.ID, consultation.StatusContacted)
	require.NoError(t, err)
	assert.Equal(t, consultation.StatusContacted, got.Status)

	_, err = svc.Consultations.SetStatus(ctx, rec.ID, consultation.StatusContacted)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Consultations.SetStatus(ctx, rec.ID, consultation.StatusClosed)
	require.NoError(t, err)
	_, err = svc.Consultations.SetStatus(ctx, rec.ID, consultation.StatusArchived)
	require.NoError(t, err)

	archived, err := svc.Consultations.List(ctx, consultation.StatusArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	require.NoError(t, svc.Consultations.Delete(ctx, rec.ID))
	_, err = svc.Consultations.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPosts_SlugsAndPublishing(t *testing.T) {
	ctx := context.Background()
	svc, clock := setup(t)

	first, err := svc.Posts.Create(ctx, PostInput{
		Title:   "Hello, World!",
		Content: `<p onclick="x()">Hi <script>alert(1)</script><a href="https://example.com">there</a></p>`,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", first.Slug)
	assert.NotContains(t, first.Content, "script")
	assert.NotContains(t, first.Content, "onclick")
	assert.Contains(t, first.Content, `href="https://example.com"`)

	clock.Advance(time.Hour)
	second, err := svc.Posts.Create(ctx, PostInput{Title: "Hello World"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", second.Slug)

	_, err = svc.Posts.Create(ctx, PostInput{Title: "  "})
	assert.ErrorIs(t, err, ErrEmptyTitle)

	published, err := svc.Posts.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, published)

	_, err = svc.Posts.Publish(ctx, first.ID)
	require.NoError(t, err)

	published, err = svc.Posts.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, first.ID, published[0].ID)

	bySlug, err := svc.Posts.GetBySlug(ctx, "hello-world-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, bySlug.ID)

	renamed, err := svc.Posts.Update(ctx, second.ID, PostInput{Title: "Pricing update"})
	require.NoError(t, err)
	assert.Equal(t, "pricing-update", renamed.Slug)

	_, err = svc.Posts.Unpublish(ctx, first.ID)
	require.NoError(t, err)
	published, err = svc.Posts.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, published)

	_, err = svc.Posts.GetBySlug(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubscribers(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	sub, err := svc.Subscribers.Subscribe(ctx, " Reader@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", sub.Email)

	_, err = svc.Subscribers.Subscribe(ctx, "reader@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	_, err = svc.Subscribers.Subscribe(ctx, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	list, err := svc.Subscribers.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Subscribers.Unsubscribe(ctx, "READER@example.com"))
	list, err = svc.Subscribers.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWorkSessions(t *testing.T) {
	ctx := context.Background()
	svc, clock := setup(t)

	_, err := svc.Work.Stop(ctx, "site")
	assert.ErrorIs(t, err, ErrNoOpenSession)

	_, err = svc.Work.Start(ctx, "site", "wireframes")
	require.NoError(t, err)
	_, err = svc.Work.Start(ctx, "site", "again")
	assert.ErrorIs(t, err, ErrSessionOpen)

	_, err = svc.Work.Start(ctx, "other", "")
	require.NoError(t, err, "projects are independent")

	clock.Advance(90 * time.Minute)
	stopped, err := svc.Work.Stop(ctx, "site")
	require.NoError(t, err)
	assert.False(t, stopped.Open())

	_, err = svc.Work.Start(ctx, "site", "copy")
	require.NoError(t, err)
	clock.Advance(30 * time.Minute)

	total, err := svc.Work.Total(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, total)

	sessions, err := svc.Work.List(ctx, "site")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "wireframes", sessions[0].Note)

	_, err = svc.Work.Start(ctx, " ", "")
	assert.ErrorIs(t, err, ErrEmptyProject)
}
