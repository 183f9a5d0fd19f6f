// Package confirm serializes modal confirmations and acknowledgements shown
// to the user. At most one request is active at a time.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/bnema/viewsync/internal/notify"
)

var (
	ErrWrongKind      = errors.New("wrong confirmation kind")
	ErrSuperseded     = errors.New("confirmation superseded by a newer request")
	ErrUnknownRequest = errors.New("unknown confirmation request")
	ErrClosed         = errors.New("confirmation broker closed")
)

// Policy decides what happens when a request arrives while another is active.
type Policy int

const (
	// PolicySupersede replaces the active request. The replaced caller
	// receives ErrSuperseded.
	PolicySupersede Policy = iota
	// PolicyQueue serves requests one at a time in arrival order.
	PolicyQueue
)

func (p Policy) String() string {
	if p == PolicyQueue {
		return "queue"
	}
	return "supersede"
}

func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "supersede":
		return PolicySupersede, nil
	case "queue":
		return PolicyQueue, nil
	default:
		return PolicySupersede, fmt.Errorf("unknown confirm policy %q", raw)
	}
}

// Request is what the presentation side renders.
type Request struct {
	ID        ulid.ULID
	Kind      Kind
	Payload   Payload
	CreatedAt time.Time
}

type reply struct {
	answer bool
	err    error
}

type pending struct {
	req   Request
	reply chan reply
}

type Broker struct {
	policy Policy
	now    func() time.Time

	mu     sync.Mutex
	active *pending
	queue  []*pending
	closed bool

	requests notify.Registry[Request]
}

type Option func(*Broker)

func WithPolicy(p Policy) Option {
	return func(b *Broker) { b.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

func New(opts ...Option) *Broker {
	b := &Broker{policy: PolicySupersede, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Broker) Policy() Policy {
	return b.policy
}

// Confirm asks a yes/no question and waits for the answer.
func (b *Broker) Confirm(ctx context.Context, kind Kind) (bool, error) {
	if !kind.IsQuestion() {
		return false, fmt.Errorf("confirm %s: %w", kind, ErrWrongKind)
	}
	return b.submit(ctx, kind, Payload{})
}

// Acknowledge shows an informational request and waits until the user
// dismisses it.
func (b *Broker) Acknowledge(ctx context.Context, kind Kind, payload Payload) error {
	if kind.IsQuestion() {
		return fmt.Errorf("acknowledge %s: %w", kind, ErrWrongKind)
	}
	_, err := b.submit(ctx, kind, payload)
	return err
}

// Active returns the request currently awaiting an answer.
func (b *Broker) Active() (Request, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return Request{}, false
	}
	return b.active.req, true
}

// Queued returns the number of requests waiting behind the active one.
func (b *Broker) Queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// OnRequest registers fn to be called each time a request becomes active.
func (b *Broker) OnRequest(fn func(Request)) notify.Handle {
	return b.requests.Subscribe(fn)
}

func (b *Broker) Unsubscribe(h notify.Handle) bool {
	return b.requests.Unsubscribe(h)
}

// Resolve answers the active request. For acknowledgements the answer is
// ignored.
func (b *Broker) Resolve(id ulid.ULID, answer bool) error {
	b.mu.Lock()
	if b.active == nil || b.active.req.ID != id {
		b.mu.Unlock()
		return fmt.Errorf("resolve %s: %w", id, ErrUnknownRequest)
	}
	done := b.active
	next := b.advanceLocked()
	b.mu.Unlock()

	glog.V(2).Infof("[confirm]resolved %s kind=%s answer=%t\n", id, done.req.Kind, answer)
	done.reply <- reply{answer: answer}
	b.activate(next)
	return nil
}

// Close fails every outstanding request with ErrClosed and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	outstanding := b.queue
	if b.active != nil {
		outstanding = append([]*pending{b.active}, outstanding...)
	}
	b.active = nil
	b.queue = nil
	b.mu.Unlock()

	for _, p := range outstanding {
		p.reply <- reply{err: ErrClosed}
	}
}

func (b *Broker) submit(ctx context.Context, kind Kind, payload Payload) (bool, error) {
	p := &pending{
		req: Request{
			ID:        ulid.Make(),
			Kind:      kind,
			Payload:   payload,
			CreatedAt: b.now(),
		},
		reply: make(chan reply, 1),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false, ErrClosed
	}
	var superseded *pending
	activate := true
	switch {
	case b.active == nil:
		b.active = p
	case b.policy == PolicyQueue:
		b.queue = append(b.queue, p)
		activate = false
	default:
		superseded = b.active
		b.active = p
	}
	b.mu.Unlock()

	if superseded != nil {
		glog.V(2).Infof("[confirm]%s supersedes %s\n", p.req.ID, superseded.req.ID)
		superseded.reply <- reply{err: ErrSuperseded}
	}
	if activate {
		b.activate(p)
	} else {
		glog.V(2).Infof("[confirm]queued %s kind=%s\n", p.req.ID, kind)
	}

	select {
	case r := <-p.reply:
		return r.answer, r.err
	case <-ctx.Done():
		if !b.withdraw(p) {
			// Someone else already took p out and is sending its reply.
			r := <-p.reply
			return r.answer, r.err
		}
		return false, ctx.Err()
	}
}

// withdraw removes p from the broker. It reports false when p was no longer
// held, in which case a reply is on its way.
func (b *Broker) withdraw(p *pending) bool {
	b.mu.Lock()
	if b.active == p {
		next := b.advanceLocked()
		b.mu.Unlock()
		b.activate(next)
		return true
	}
	for i, q := range b.queue {
		if q == p {
			b.queue = append(b.queue[:i:i], b.queue[i+1:]...)
			b.mu.Unlock()
			return true
		}
	}
	b.mu.Unlock()
	return false
}

func (b *Broker) advanceLocked() *pending {
	b.active = nil
	if len(b.queue) == 0 {
		return nil
	}
	b.active = b.queue[0]
	b.queue = b.queue[1:]
	return b.active
}

func (b *Broker) activate(p *pending) {
	if p == nil {
		return
	}
	glog.V(2).Infof("[confirm]active %s kind=%s\n", p.req.ID, p.req.Kind)
	b.requests.Emit(p.req)
}
