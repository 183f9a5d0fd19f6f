// Package notify provides handle-based listener registration.
//
// Subscribing returns an opaque Handle; unsubscribing takes that handle back.
// Listeners are never matched by function identity.
package notify

import (
	"sync"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// Handle identifies one subscription. The zero Handle never matches.
type Handle struct {
	id ulid.ULID
}

func newHandle() Handle {
	return Handle{id: ulid.Make()}
}

func (h Handle) IsZero() bool {
	return h.id == (ulid.ULID{})
}

func (h Handle) String() string {
	return h.id.String()
}

type listener[T any] struct {
	handle Handle
	fn     func(T)
}

// Registry is a copy-on-write list of listeners for one event class. It is
// safe for concurrent use; Emit calls listeners outside the lock so a
// listener may subscribe or unsubscribe while being notified.
type Registry[T any] struct {
	mu        sync.Mutex
	listeners []listener[T]
}

func (r *Registry[T]) Subscribe(fn func(T)) Handle {
	h := newHandle()

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]listener[T], 0, len(r.listeners)+1)
	next = append(next, r.listeners...)
	r.listeners = append(next, listener[T]{handle: h, fn: fn})
	return h
}

// Unsubscribe removes the listener registered under h. It reports whether
// the handle belonged to this registry.
func (r *Registry[T]) Unsubscribe(h Handle) bool {
	if h.IsZero() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, l := range r.listeners {
		if l.handle != h {
			continue
		}
		next := make([]listener[T], 0, len(r.listeners)-1)
		next = append(next, r.listeners[:i]...)
		r.listeners = append(next, r.listeners[i+1:]...)
		return true
	}
	return false
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Emit delivers v to every listener in subscription order. A panicking
// listener is logged and does not stop delivery to the others.
func (r *Registry[T]) Emit(v T) {
	r.mu.Lock()
	listeners := r.listeners
	r.mu.Unlock()

	for _, l := range listeners {
		call(l, v)
	}
}

func call[T any](l listener[T], v T) {
	defer func() {
		if p := recover(); p != nil {
			glog.Errorf("[notify]listener %s panic = %v", l.handle, p)
		}
	}()
	l.fn(v)
}
