package admin

import (
	"context"

	"github.com/goliatone/go-intake/internal/store"
)

// Services bundles the back-office services over one store.
type Services struct {
	Records       *store.Consultations
	Consultations *Consultations
	Posts         *Posts
	Subscribers   *Subscribers
	Work          *WorkSessions
}

// Open opens every bucket and wires the services. clock may be nil.
func Open(ctx context.Context, s *store.Server, clock Clock) (*Services, error) {
	var storeOpts []store.ConsultationsOption
	if clock != nil {
		storeOpts = append(storeOpts, store.WithClock(clock))
	}
	records, err := store.OpenConsultations(ctx, s, storeOpts...)
	if err != nil {
		return nil, err
	}
	posts, err := store.OpenBucket[Post](ctx, s, store.BucketPosts)
	if err != nil {
		return nil, err
	}
	subscribers, err := store.OpenBucket[Subscriber](ctx, s, store.BucketSubscribers)
	if err != nil {
		return nil, err
	}
	work, err := store.OpenBucket[WorkSession](ctx, s, store.BucketWorkSessions)
	if err != nil {
		return nil, err
	}
	return &Services{
		Records:       records,
		Consultations: NewConsultations(records),
		Posts:         NewPosts(posts, clock),
		Subscribers:   NewSubscribers(subscribers, clock),
		Work:          NewWorkSessions(work, clock),
	}, nil
}
