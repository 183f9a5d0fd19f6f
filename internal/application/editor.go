package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/bnema/viewsync/internal/cache"
	"github.com/bnema/viewsync/internal/confirm"
	"github.com/bnema/viewsync/internal/dirty"
	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/ports"
	"github.com/bnema/viewsync/internal/presence"
)

var (
	ErrEditorClosed  = errors.New("editor is closed")
	ErrEditorNotOpen = errors.New("editor is not open")
)

// Model is what an editor can hold: a record that knows its presence
// descriptor.
type Model interface {
	Resource(mode domain.AccessMode) domain.Resource
}

// Store loads and persists one record type by id. New returns the value
// edited when a record is created.
type Store[T Model] interface {
	New() T
	Load(ctx context.Context, id int64) (T, error)
	Save(ctx context.Context, id int64, v T) (T, error)
	Delete(ctx context.Context, id int64) error
}

type EditorDeps struct {
	Cache    *cache.Cache
	Broker   ports.Confirmer
	Presence ports.Presence
	// Occupancy and SelfID are optional; without them Occupants reports
	// nobody.
	Occupancy *presence.Occupancy
	SelfID    string
}

type validator interface {
	Validate() error
}

// Editor is one open view of a record: it shares loads through the cache,
// tracks unsaved changes against the last loaded or saved value, announces
// itself to presence and routes every outcome through the broker.
type Editor[T Model] struct {
	store Store[T]
	deps  EditorDeps
	kind  string

	mu        sync.Mutex
	tracker   *dirty.Tracker[T]
	current   T
	id        int64
	mode      domain.AccessMode
	lease     *cache.Lease[T]
	announced *domain.Resource
	open      bool
	closed    bool
}

// NewEditor builds an editor over store. exclude names JSON fields that never
// make the record dirty.
func NewEditor[T Model](store Store[T], deps EditorDeps, exclude ...string) *Editor[T] {
	if deps.Cache == nil {
		deps.Cache = cache.New()
	}

	return &Editor[T]{
		store:   store,
		deps:    deps,
		kind:    store.New().Resource(domain.AccessModeDetail).Type,
		tracker: dirty.New[T](exclude...),
	}
}

func (e *Editor[T]) cacheKey(id int64) string {
	return fmt.Sprintf("%s/%d", e.kind, id)
}

// Open loads record id (or starts a new record when id is 0), arms the dirty
// baseline and announces the record in mode. Load failures are acknowledged
// through the broker before being returned.
func (e *Editor[T]) Open(ctx context.Context, id int64, mode domain.AccessMode) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEditorClosed
	}
	if e.open {
		e.mu.Unlock()
		return fmt.Errorf("open %s: already open", e.cacheKey(e.id))
	}
	e.mu.Unlock()

	var (
		value T
		lease *cache.Lease[T]
	)
	if id == 0 {
		value = e.store.New()
	} else {
		var err error
		value, lease, err = cache.Load(ctx, e.deps.Cache, e.cacheKey(id), func(ctx context.Context) (T, error) {
			return e.store.Load(ctx, id)
		})
		if err != nil {
			lease.Release()
			return e.fail(ctx, fmt.Sprintf("load %s", e.cacheKey(id)), err)
		}
	}

	if err := e.tracker.SetOriginalModel(value); err != nil {
		if lease != nil {
			lease.Release()
		}
		return fmt.Errorf("track %s: %w", e.cacheKey(id), err)
	}

	e.mu.Lock()
	e.current = value
	e.id = id
	e.mode = mode
	e.lease = lease
	e.open = true
	e.mu.Unlock()

	if id != 0 {
		e.announce(ctx, value.Resource(mode))
	}
	return nil
}

// Announced returns the resource this editor announced to presence, if the
// announcement went out.
func (e *Editor[T]) Announced() (domain.Resource, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.announced == nil {
		return domain.Resource{}, false
	}
	return *e.announced, true
}

// Current returns the value being edited.
func (e *Editor[T]) Current() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Editor[T]) ID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Update replaces the edited value with fn's result. fn must derive a new
// value rather than mutate its argument.
func (e *Editor[T]) Update(fn func(T) (T, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return ErrEditorNotOpen
	}
	next, err := fn(e.current)
	if err != nil {
		return err
	}
	e.current = next
	return nil
}

func (e *Editor[T]) IsDirty() (bool, error) {
	e.mu.Lock()
	current := e.current
	open := e.open
	e.mu.Unlock()

	if !open {
		return false, ErrEditorNotOpen
	}
	return e.tracker.IsDirty(current)
}

// Submit saves the edited value. Unchanged data is acknowledged as such and
// not sent; failures are acknowledged with their mapped kind; success
// re-arms the baseline, drops the cached load of this record and announces a newly created
// record.
func (e *Editor[T]) Submit(ctx context.Context) (T, error) {
	var zero T

	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return zero, ErrEditorNotOpen
	}
	current, id := e.current, e.id
	e.mu.Unlock()

	changed, err := e.tracker.IsDirty(current)
	if err != nil {
		return zero, fmt.Errorf("submit %s: %w", e.cacheKey(id), err)
	}
	if !changed && id != 0 {
		glog.V(2).Infof("[editor]%s unchanged\n", e.cacheKey(id))
		if err := e.acknowledge(ctx, confirm.KindDataUnchanged, confirm.Payload{}); err != nil {
			return zero, err
		}
		return current, nil
	}

	if v, ok := any(current).(validator); ok {
		if err := v.Validate(); err != nil {
			return zero, e.fail(ctx, fmt.Sprintf("submit %s", e.cacheKey(id)), err)
		}
	}

	saved, err := e.store.Save(ctx, id, current)
	if err != nil {
		return zero, e.fail(ctx, fmt.Sprintf("submit %s", e.cacheKey(id)), err)
	}

	if err := e.tracker.SetOriginalModel(saved); err != nil {
		return zero, fmt.Errorf("track %s: %w", e.cacheKey(id), err)
	}
	if id != 0 {
		e.deps.Cache.Invalidate(e.cacheKey(id))
	}

	savedResource := saved.Resource(e.mode)
	e.mu.Lock()
	e.current = saved
	e.id = savedResource.PrimaryID
	mode := e.mode
	e.mu.Unlock()

	if id == 0 && savedResource.PrimaryID != 0 {
		e.announce(ctx, saved.Resource(mode))
	}

	if err := e.acknowledge(ctx, confirm.KindSubmissionSuccess, confirm.Payload{}); err != nil {
		return saved, err
	}
	return saved, nil
}

// Close asks before discarding unsaved changes. It reports false when the
// user keeps the editor open.
func (e *Editor[T]) Close(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return true, nil
	}
	current := e.current
	e.mu.Unlock()

	changed, err := e.tracker.IsDirty(current)
	if err != nil {
		return false, fmt.Errorf("close %s: %w", e.cacheKey(e.ID()), err)
	}
	if changed {
		discard, err := e.confirm(ctx, confirm.KindDiscarding)
		if err != nil {
			return false, err
		}
		if !discard {
			return false, nil
		}
	}

	e.teardown(ctx)
	return true, nil
}

// Delete asks for confirmation and removes the record. It reports false when
// the user declines.
func (e *Editor[T]) Delete(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return false, ErrEditorNotOpen
	}
	id := e.id
	e.mu.Unlock()

	if id == 0 {
		return false, fmt.Errorf("delete %s: record was never saved", e.kind)
	}

	ok, err := e.confirm(ctx, confirm.KindDeleting)
	if err != nil || !ok {
		return false, err
	}

	if err := e.store.Delete(ctx, id); err != nil {
		return false, e.fail(ctx, fmt.Sprintf("delete %s", e.cacheKey(id)), err)
	}

	e.deps.Cache.Invalidate(e.cacheKey(id))
	e.teardown(ctx)
	return true, nil
}

// Occupants returns the other users viewing and editing the open record.
func (e *Editor[T]) Occupants() (viewers, editors []presence.User) {
	e.mu.Lock()
	current, id, open := e.current, e.id, e.open
	e.mu.Unlock()

	if !open || id == 0 || e.deps.Occupancy == nil {
		return nil, nil
	}

	others := func(mode domain.AccessMode) []presence.User {
		var users []presence.User
		for _, u := range e.deps.Occupancy.Users(current.Resource(mode)) {
			if e.deps.SelfID != "" && u.ID == e.deps.SelfID {
				continue
			}
			users = append(users, u)
		}
		return users
	}
	return others(domain.AccessModeDetail), others(domain.AccessModeUpdate)
}

// ReportError acknowledges err with the kind it maps to.
func (e *Editor[T]) ReportError(ctx context.Context, err error) error {
	kind, payload := confirm.KindFor(err)
	return e.acknowledge(ctx, kind, payload)
}

func (e *Editor[T]) fail(ctx context.Context, op string, err error) error {
	glog.Warningf("%s: %v", op, err)
	if ackErr := e.ReportError(ctx, err); ackErr != nil {
		return fmt.Errorf("%s: %w", op, errors.Join(err, ackErr))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (e *Editor[T]) acknowledge(ctx context.Context, kind confirm.Kind, payload confirm.Payload) error {
	if e.deps.Broker == nil {
		return nil
	}
	if err := e.deps.Broker.Acknowledge(ctx, kind, payload); err != nil {
		return fmt.Errorf("acknowledge %s: %w", kind, err)
	}
	return nil
}

func (e *Editor[T]) confirm(ctx context.Context, kind confirm.Kind) (bool, error) {
	if e.deps.Broker == nil {
		return true, nil
	}
	ok, err := e.deps.Broker.Confirm(ctx, kind)
	if err != nil {
		return false, fmt.Errorf("confirm %s: %w", kind, err)
	}
	return ok, nil
}

// announce is best effort: presence is advisory and an editor works without
// a connected channel.
func (e *Editor[T]) announce(ctx context.Context, r domain.Resource) {
	if e.deps.Presence == nil {
		return
	}
	if err := e.deps.Presence.StartResourceAccess(ctx, r); err != nil {
		glog.Infof("[editor]announce %s: %v\n", r, err)
		return
	}
	e.mu.Lock()
	e.announced = &r
	e.mu.Unlock()
}

func (e *Editor[T]) teardown(ctx context.Context) {
	e.mu.Lock()
	announced := e.announced
	lease := e.lease
	e.announced = nil
	e.lease = nil
	e.open = false
	e.closed = true
	e.mu.Unlock()

	if announced != nil && e.deps.Presence != nil {
		if err := e.deps.Presence.FinishResourceAccess(ctx, *announced); err != nil {
			glog.Infof("[editor]finish %s: %v\n", *announced, err)
		}
	}
	if lease != nil {
		lease.Release()
	}
	e.tracker.Reset()
}
