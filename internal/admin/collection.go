package admin

import "context"

// Collection is the keyed JSON storage the services run on.
// *store.Bucket satisfies it.
type Collection[T any] interface {
	Create(ctx context.Context, key string, v T) error
	Put(ctx context.Context, key string, v T) error
	Get(ctx context.Context, key string) (T, error)
	Update(ctx context.Context, key string, fn func(*T) error) (T, error)
	List(ctx context.Context) ([]T, error)
	Delete(ctx context.Context, key string) error
}
