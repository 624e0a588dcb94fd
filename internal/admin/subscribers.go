package admin

import (
	"context"
	"encoding/base64"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-intake/internal/store"
	"github.com/goliatone/go-intake/pkg/validation"
)

// Subscriber is a newsletter signup.
type Subscriber struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// Subscribers manages the newsletter list. Addresses are stored lowercased.
type Subscribers struct {
	coll  Collection[Subscriber]
	clock Clock
}

// NewSubscribers returns the subscriber service.
func NewSubscribers(coll Collection[Subscriber], clock Clock) *Subscribers {
	return &Subscribers{coll: coll, clock: clock}
}

// Subscribe adds email to the list.
func (s *Subscribers) Subscribe(ctx context.Context, email string) (Subscriber, error) {
	addr := normalizeEmail(email)
	if !validation.IsEmail(addr) {
		return Subscriber{}, ErrInvalidEmail
	}
	sub := Subscriber{Email: addr, SubscribedAt: utcNow(s.clock)}
	if err := s.coll.Create(ctx, subscriberKey(addr), sub); err != nil {
		if errors.Is(err, store.ErrExists) {
			return Subscriber{}, ErrAlreadySubscribed
		}
		return Subscriber{}, err
	}
	return sub, nil
}

// Unsubscribe removes email from the list.
func (s *Subscribers) Unsubscribe(ctx context.Context, email string) error {
	return s.coll.Delete(ctx, subscriberKey(normalizeEmail(email)))
}

// List returns subscribers in signup order.
func (s *Subscribers) List(ctx context.Context) ([]Subscriber, error) {
	subs, err := s.coll.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].SubscribedAt.Before(subs[j].SubscribedAt)
	})
	return subs, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// subscriberKey encodes the address; bucket keys cannot contain '@'.
func subscriberKey(email string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(email))
}
