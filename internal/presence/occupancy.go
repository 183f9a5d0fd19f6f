package presence

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/notify"
)

// Occupancy tracks which other users hold each resource. Updates are set
// operations, so duplicated or reordered events never drive a count wrong.
type Occupancy struct {
	mu   sync.Mutex
	sets map[domain.ResourceKey]map[string]User
	// answered is closed once the hub replied to our own announcement
	answered map[domain.ResourceKey]chan struct{}

	changes notify.Registry[domain.Resource]
}

func NewOccupancy() *Occupancy {
	return &Occupancy{
		sets:     map[domain.ResourceKey]map[string]User{},
		answered: map[domain.ResourceKey]chan struct{}{},
	}
}

func (o *Occupancy) answeredLocked(key domain.ResourceKey) chan struct{} {
	ch, ok := o.answered[key]
	if !ok {
		ch = make(chan struct{})
		o.answered[key] = ch
	}
	return ch
}

// Await blocks until the hub has answered our own announcement of r or ctx
// is done. It reports whether the answer arrived.
func (o *Occupancy) Await(ctx context.Context, r domain.Resource) bool {
	o.mu.Lock()
	ch := o.answeredLocked(r.Key())
	o.mu.Unlock()

	select {
	case <-ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// ApplySelfStarted replaces the set for the resource with the users the hub
// reported on our own announcement.
func (o *Occupancy) ApplySelfStarted(e SelfAccessStarted) {
	set := make(map[string]User, len(e.Users))
	for _, u := range e.Users {
		set[u.ID] = u
	}

	o.mu.Lock()
	key := e.Resource.Key()
	o.sets[key] = set
	ch := o.answeredLocked(key)
	select {
	case <-ch:
	default:
		close(ch)
	}
	o.mu.Unlock()
	o.changes.Emit(e.Resource)
}

func (o *Occupancy) ApplyStarted(e UserAccessStarted) {
	o.mu.Lock()
	key := e.Resource.Key()
	set, ok := o.sets[key]
	if !ok {
		set = map[string]User{}
		o.sets[key] = set
	}
	set[e.User.ID] = e.User
	o.mu.Unlock()
	o.changes.Emit(e.Resource)
}

func (o *Occupancy) ApplyFinished(e UserAccessFinished) {
	o.mu.Lock()
	key := e.Resource.Key()
	set, ok := o.sets[key]
	if !ok {
		o.mu.Unlock()
		return
	}
	delete(set, e.UserID)
	if len(set) == 0 {
		delete(o.sets, key)
	}
	o.mu.Unlock()
	o.changes.Emit(e.Resource)
}

// Users returns the other users holding r, ordered by name then id.
func (o *Occupancy) Users(r domain.Resource) []User {
	o.mu.Lock()
	defer o.mu.Unlock()

	set := o.sets[r.Key()]
	users := make([]User, 0, len(set))
	for _, u := range set {
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b User) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return users
}

// Forget drops what is known about r, typically after finishing access.
func (o *Occupancy) Forget(r domain.Resource) {
	o.mu.Lock()
	delete(o.sets, r.Key())
	delete(o.answered, r.Key())
	o.mu.Unlock()
}

func (o *Occupancy) OnChange(fn func(domain.Resource)) notify.Handle {
	return o.changes.Subscribe(fn)
}

func (o *Occupancy) Unsubscribe(h notify.Handle) bool {
	return o.changes.Unsubscribe(h)
}

// Attach feeds the occupancy from ch until the returned func is called.
func (o *Occupancy) Attach(ch *Channel) (detach func()) {
	handles := []notify.Handle{
		ch.OnSelfAccessStarted(o.ApplySelfStarted),
		ch.OnUserAccessStarted(o.ApplyStarted),
		ch.OnUserAccessFinished(o.ApplyFinished),
	}
	return func() {
		for _, h := range handles {
			ch.Unsubscribe(h)
		}
	}
}
