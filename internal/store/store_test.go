package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-intake/pkg/consultation"
)

type note struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func openServer(t *testing.T) *Server {
	t.Helper()
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func validRecord() consultation.Record {
	return consultation.Record{
		Name:               "Ada Lovelace",
		Email:              "ada@example.com",
		BusinessType:       "saas",
		OnlinePresence:     "yes",
		Goal:               "More qualified leads",
		MainChallenge:      "Nobody can find our pricing page",
		ServicesInterested: []string{"seo"},
		Budget:             consultation.DefaultBudget,
	}
}

func TestBucket_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openServer(t)

	b, err := OpenBucket[note](ctx, s, "notes")
	require.NoError(t, err)

	require.NoError(t, b.Create(ctx, "a", note{Title: "first"}))
	err = b.Create(ctx, "a", note{Title: "again"})
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, b.Put(ctx, "b", note{Title: "second"}))

	got, err := b.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, note{Title: "first"}, got)

	list, err := b.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{Title: "first"}, {Title: "second"}}, list)

	updated, err := b.Update(ctx, "a", func(n *note) error {
		n.Body = "edited"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Body)

	require.NoError(t, b.Delete(ctx, "a"))
	_, err = b.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, b.Delete(ctx, "a"), ErrNotFound)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestBucket_EmptyList(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBucket[note](ctx, openServer(t), "empty")
	require.NoError(t, err)

	list, err := b.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBucket_UpdateErrorAborts(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBucket[note](ctx, openServer(t), "notes")
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "k", note{Title: "keep"}))

	boom := errors.New("boom")
	_, err = b.Update(ctx, "k", func(n *note) error {
		n.Title = "lost"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
}

func TestBucket_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := OpenBucket[note](ctx, openServer(t), "notes")
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, "old", note{Title: "before watch"}))

	changes, err := b.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "new", note{Title: "after watch"}))
	require.NoError(t, b.Delete(ctx, "new"))

	var got []Change[note]
	for len(got) < 2 {
		select {
		case c := <-changes:
			c.Revision = 0
			got = append(got, c)
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for changes, got %v", got)
		}
	}
	assert.Equal(t, []Change[note]{
		{Key: "new", Op: OpPut, Value: note{Title: "after watch"}},
		{Key: "new", Op: OpDelete},
	}, got)

	cancel()
	select {
	case _, ok := <-changes:
		for ok {
			_, ok = <-changes
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("watch channel not closed after cancel")
	}
}

func TestConsultations_Insert(t *testing.T) {
	ctx := context.Background()
	s := openServer(t)

	clock := time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)
	n := 0
	c, err := OpenConsultations(ctx, s,
		WithClock(func() time.Time { clock = clock.Add(time.Minute); return clock }),
		WithIDs(func() string { n++; return fmt.Sprintf("c-%d", n) }),
	)
	require.NoError(t, err)

	require.NoError(t, c.Insert(ctx, validRecord()))
	second := validRecord()
	second.Name = "Grace Hopper"
	require.NoError(t, c.Insert(ctx, second))

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Grace Hopper", list[0].Name, "newest first")
	assert.Equal(t, "c-1", list[1].ID)
	assert.Equal(t, consultation.StatusNew, list[1].Status)
	assert.Equal(t, time.Date(2025, 5, 4, 12, 1, 0, 0, time.UTC), list[1].CreatedAt)
}

func TestConsultations_InsertRejectsSchemaViolation(t *testing.T) {
	ctx := context.Background()
	c, err := OpenConsultations(ctx, openServer(t))
	require.NoError(t, err)

	rec := validRecord()
	rec.Budget = 5
	err = c.Insert(ctx, rec)

	var schemaErr *consultation.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "budget", schemaErr.Column)

	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServer_Ping(t *testing.T) {
	s := openServer(t)
	assert.NoError(t, s.Ping(context.Background()))
}
