// Package cache memoizes asynchronous loads by key.
//
// The first Acquire of a key starts its initializer; every other Acquire of
// the same key shares that in-flight (or settled) result. An entry lives for
// as long as at least one Lease on it is unreleased. Errors are cached like
// values and are never retried implicitly.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

var (
	ErrClosed       = errors.New("cache is closed")
	ErrTypeMismatch = errors.New("cached value has a different type")
)

// Initializer produces the value for a key. It runs at most once per live
// entry and is not cancelled when consumers detach.
type Initializer[T any] func(ctx context.Context) (T, error)

type entry struct {
	key       string
	done      chan struct{}
	value     any
	err       error
	consumers int
}

type Cache struct {
	name string
	ctx  context.Context

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

type Option func(*Cache)

// WithContext sets the context handed to initializers. It defaults to
// context.Background.
func WithContext(ctx context.Context) Option {
	return func(c *Cache) {
		c.ctx = ctx
	}
}

// WithName sets the tag used in log lines.
func WithName(name string) Option {
	return func(c *Cache) {
		c.name = name
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		name:    "cache",
		ctx:     context.Background(),
		entries: map[string]*entry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire attaches a consumer to key, starting init if no entry exists. It
// never blocks on the load itself; use Lease.Wait to read the result. The
// returned lease must be released.
func Acquire[T any](c *Cache, key string, init Initializer[T]) *Lease[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &Lease[T]{key: key, err: ErrClosed}
	}

	e, ok := c.entries[key]
	if ok {
		glog.V(2).Infof("[%s]hit %s consumers=%d\n", c.name, key, e.consumers+1)
	} else {
		e = &entry{key: key, done: make(chan struct{})}
		c.entries[key] = e
		glog.V(2).Infof("[%s]miss %s\n", c.name, key)
		go c.run(e, func(ctx context.Context) (any, error) {
			return init(ctx)
		})
	}
	e.consumers++

	return &Lease[T]{key: key, cache: c, entry: e}
}

// Load acquires key and waits for its result. The lease is returned even when
// err is non-nil so the caller can release it.
func Load[T any](ctx context.Context, c *Cache, key string, init Initializer[T]) (T, *Lease[T], error) {
	lease := Acquire(c, key, init)
	value, err := lease.Wait(ctx)
	return value, lease, err
}

func (c *Cache) run(e *entry, init func(context.Context) (any, error)) {
	defer close(e.done)
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("[%s]initializer %s panic = %v\n", c.name, e.key, p)
			e.value = nil
			e.err = fmt.Errorf("initializer for %q panicked: %v", e.key, p)
		}
	}()

	e.value, e.err = init(c.ctx)
	if e.err != nil {
		glog.V(2).Infof("[%s]rejected %s = %s\n", c.name, e.key, e.err)
	}
}

func (c *Cache) release(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e.consumers--
	if e.consumers > 0 {
		return
	}

	// A cleared entry may have been replaced by a newer one under the same
	// key; only evict our own.
	if current, ok := c.entries[e.key]; ok && current == e {
		delete(c.entries, e.key)
		glog.V(2).Infof("[%s]evict %s\n", c.name, e.key)
	}
}

// Clear drops every entry regardless of attached consumers. Existing leases
// keep reading the entry they were attached to.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.entries); n > 0 {
		glog.V(2).Infof("[%s]clear %d entries\n", c.name, n)
	}
	c.entries = map[string]*entry{}
}

// Invalidate drops the live entry for key so the next Acquire loads it
// again. Leases already attached keep reading the dropped entry, and
// releasing them never evicts a newer entry for the same key. Other keys are
// untouched.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		glog.V(2).Infof("[%s]invalidate %s consumers=%d\n", c.name, key, e.consumers)
	}
}

// Close clears the cache and rejects further acquisitions with ErrClosed.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]*entry{}
	c.closed = true
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Consumers reports how many unreleased leases hold key.
func (c *Cache) Consumers(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return e.consumers
	}
	return 0
}
