package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-intake/internal/store"
)

// Post is a blog entry.
type Post struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostInput is the editable part of a post.
type PostInput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

var (
	contentPolicyOnce sync.Once
	contentPolicy     *bluemonday.Policy
)

func contentSanitizer() *bluemonday.Policy {
	contentPolicyOnce.Do(func() {
		contentPolicy = bluemonday.UGCPolicy()
	})
	return contentPolicy
}

// Posts manages blog posts. Slugs are derived from titles and kept unique.
type Posts struct {
	mu    sync.Mutex
	coll  Collection[Post]
	clock Clock
	newID func() string
}

// NewPosts returns the post service.
func NewPosts(coll Collection[Post], clock Clock) *Posts {
	return &Posts{coll: coll, clock: clock, newID: uuid.NewString}
}

// Create stores a draft post.
func (p *Posts) Create(ctx context.Context, in PostInput) (Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Post{}, ErrEmptyTitle
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.uniqueSlug(ctx, title, "")
	if err != nil {
		return Post{}, err
	}
	now := utcNow(p.clock)
	post := Post{
		ID:        p.newID(),
		Slug:      s,
		Title:     title,
		Summary:   strings.TrimSpace(in.Summary),
		Content:   contentSanitizer().Sanitize(in.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.coll.Create(ctx, post.ID, post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// Update replaces a post's editable fields. A changed title yields a new slug.
func (p *Posts) Update(ctx context.Context, id string, in PostInput) (Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Post{}, ErrEmptyTitle
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.uniqueSlug(ctx, title, id)
	if err != nil {
		return Post{}, err
	}
	return p.coll.Update(ctx, id, func(post *Post) error {
		post.Title = title
		post.Slug = s
		post.Summary = strings.TrimSpace(in.Summary)
		post.Content = contentSanitizer().Sanitize(in.Content)
		post.UpdatedAt = utcNow(p.clock)
		return nil
	})
}

// Publish makes a post public.
func (p *Posts) Publish(ctx context.Context, id string) (Post, error) {
	return p.coll.Update(ctx, id, func(post *Post) error {
		if post.Published {
			return nil
		}
		now := utcNow(p.clock)
		post.Published = true
		post.PublishedAt = &now
		post.UpdatedAt = now
		return nil
	})
}

// Unpublish returns a post to draft.
func (p *Posts) Unpublish(ctx context.Context, id string) (Post, error) {
	return p.coll.Update(ctx, id, func(post *Post) error {
		post.Published = false
		post.PublishedAt = nil
		post.UpdatedAt = utcNow(p.clock)
		return nil
	})
}

// List returns posts, newest first. Published posts sort by publish time.
func (p *Posts) List(ctx context.Context, publishedOnly bool) ([]Post, error) {
	all, err := p.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(all))
	for _, post := range all {
		if publishedOnly && !post.Published {
			continue
		}
		out = append(out, post)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return sortTime(out[i]).After(sortTime(out[j]))
	})
	return out, nil
}

// GetBySlug finds a post by slug.
func (p *Posts) GetBySlug(ctx context.Context, s string) (Post, error) {
	all, err := p.coll.List(ctx)
	if err != nil {
		return Post{}, err
	}
	for _, post := range all {
		if post.Slug == s {
			return post, nil
		}
	}
	return Post{}, fmt.Errorf("%w: post %q", store.ErrNotFound, s)
}

// Get loads a post by id.
func (p *Posts) Get(ctx context.Context, id string) (Post, error) {
	return p.coll.Get(ctx, id)
}

// Delete removes a post.
func (p *Posts) Delete(ctx context.Context, id string) error {
	return p.coll.Delete(ctx, id)
}

func (p *Posts) uniqueSlug(ctx context.Context, title, selfID string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}
	all, err := p.coll.List(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	taken := make(map[string]bool, len(all))
	for _, post := range all {
		if post.ID != selfID {
			taken[post.Slug] = true
		}
	}
	candidate := base
	for n := 2; taken[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return candidate, nil
}

func sortTime(p Post) time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}
