package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nats-io/nats.go/jetstream"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrExists   = errors.New("store: already exists")
	ErrConflict = errors.New("store: concurrent update")
)

// Op is the kind of change a watcher reports.
type Op string

const (
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// Change is one update observed on a bucket.
type Change[T any] struct {
	Key      string
	Op       Op
	Value    T
	Revision uint64
}

// Bucket is a typed view over a JetStream key-value bucket. Values are stored
// as JSON.
type Bucket[T any] struct {
	name   string
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// OpenBucket creates the bucket if needed and returns a typed handle.
func OpenBucket[T any](ctx context.Context, s *Server, name string) (*Bucket[T], error) {
	kv, err := s.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  name,
		Storage: jetstream.FileStorage,
		History: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open bucket %s: %w", name, err)
	}
	return &Bucket[T]{name: name, kv: kv, logger: s.logger.With("bucket", name)}, nil
}

// Name returns the bucket name.
func (b *Bucket[T]) Name() string { return b.name }

// Create stores v under key, failing with ErrExists when the key is taken.
func (b *Bucket[T]) Create(ctx context.Context, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", b.name, key, err)
	}
	if _, err := b.kv.Create(ctx, key, raw); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: %s/%s", ErrExists, b.name, key)
		}
		return fmt.Errorf("store: create %s/%s: %w", b.name, key, err)
	}
	return nil
}

// Put stores v under key, replacing any previous value.
func (b *Bucket[T]) Put(ctx context.Context, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s/%s: %w", b.name, key, err)
	}
	if _, err := b.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("store: put %s/%s: %w", b.name, key, err)
	}
	return nil
}

// Get loads the value under key.
func (b *Bucket[T]) Get(ctx context.Context, key string) (T, error) {
	v, _, err := b.get(ctx, key)
	return v, err
}

func (b *Bucket[T]) get(ctx context.Context, key string) (T, uint64, error) {
	var v T
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return v, 0, fmt.Errorf("%w: %s/%s", ErrNotFound, b.name, key)
		}
		return v, 0, fmt.Errorf("store: get %s/%s: %w", b.name, key, err)
	}
	if err := json.Unmarshal(entry.Value(), &v); err != nil {
		return v, 0, fmt.Errorf("store: decode %s/%s: %w", b.name, key, err)
	}
	return v, entry.Revision(), nil
}

// Update applies fn to the stored value and writes it back only if nobody
// else changed the key in between. It returns the stored result.
func (b *Bucket[T]) Update(ctx context.Context, key string, fn func(*T) error) (T, error) {
	v, rev, err := b.get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := fn(&v); err != nil {
		return v, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("store: encode %s/%s: %w", b.name, key, err)
	}
	if _, err := b.kv.Update(ctx, key, raw, rev); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return v, fmt.Errorf("%w: %s/%s", ErrConflict, b.name, key)
		}
		return v, fmt.Errorf("store: update %s/%s: %w", b.name, key, err)
	}
	return v, nil
}

// Keys returns the live keys in lexical order.
func (b *Bucket[T]) Keys(ctx context.Context) ([]string, error) {
	keys, err := b.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: list %s: %w", b.name, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// List loads every value in key order. Keys deleted between listing and
// loading are skipped.
func (b *Bucket[T]) List(ctx context.Context) ([]T, error) {
	keys, err := b.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(keys))
	for _, key := range keys {
		v, err := b.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (b *Bucket[T]) Delete(ctx context.Context, key string) error {
	if _, err := b.kv.Get(ctx, key); err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, b.name, key)
		}
		return fmt.Errorf("store: get %s/%s: %w", b.name, key, err)
	}
	if err := b.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", b.name, key, err)
	}
	return nil
}

// Watch streams changes made after the call until ctx is cancelled. The
// channel is closed when the watch ends. Entries that fail to decode are
// logged and skipped.
func (b *Bucket[T]) Watch(ctx context.Context) (<-chan Change[T], error) {
	watcher, err := b.kv.WatchAll(ctx, jetstream.UpdatesOnly())
	if err != nil {
		return nil, fmt.Errorf("store: watch %s: %w", b.name, err)
	}

	out := make(chan Change[T])
	go func() {
		defer close(out)
		defer func() { _ = watcher.Stop() }()

		updates := watcher.Updates()
		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-updates:
				if !ok {
					return
				}
				if entry == nil {
					continue
				}
				change, ok := b.toChange(entry)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *Bucket[T]) toChange(entry jetstream.KeyValueEntry) (Change[T], bool) {
	change := Change[T]{Key: entry.Key(), Revision: entry.Revision()}
	switch entry.Operation() {
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		change.Op = OpDelete
		return change, true
	default:
		change.Op = OpPut
	}
	if err := json.Unmarshal(entry.Value(), &change.Value); err != nil {
		b.logger.Warn("skipping undecodable entry", "key", entry.Key(), "error", err)
		return change, false
	}
	return change, true
}
