package cache

import (
	"context"
	"fmt"
	"sync"
)

// Lease is one consumer's attachment to a cache entry.
type Lease[T any] struct {
	key   string
	cache *Cache
	entry *entry
	err   error
	once  sync.Once
}

func (l *Lease[T]) Key() string {
	return l.key
}

// Settled reports whether the load has completed, without blocking.
func (l *Lease[T]) Settled() bool {
	if l.entry == nil {
		return true
	}
	select {
	case <-l.entry.done:
		return true
	default:
		return false
	}
}

// Wait suspends until the load settles or ctx is done, then returns the
// shared value or the shared error.
func (l *Lease[T]) Wait(ctx context.Context) (T, error) {
	var zero T
	if l.entry == nil {
		return zero, l.err
	}

	select {
	case <-l.entry.done:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	if l.entry.err != nil {
		return zero, l.entry.err
	}
	if l.entry.value == nil {
		return zero, nil
	}

	value, ok := l.entry.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T, want %T", ErrTypeMismatch, l.key, l.entry.value, zero)
	}
	return value, nil
}

// Release detaches the consumer. When the last consumer of an entry detaches
// the entry is evicted. Calling Release more than once has no effect.
func (l *Lease[T]) Release() {
	l.once.Do(func() {
		if l.entry != nil {
			l.cache.release(l.entry)
		}
	})
}
