// Package prompt answers confirmation requests on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
	"golang.org/x/term"

	"github.com/bnema/viewsync/internal/adapters/render/customer"
	"github.com/bnema/viewsync/internal/confirm"
	"github.com/bnema/viewsync/internal/notify"
)

// Broker is the presentation side of confirm.Broker.
type Broker interface {
	OnRequest(fn func(confirm.Request)) notify.Handle
	Unsubscribe(h notify.Handle) bool
	Resolve(id ulid.ULID, answer bool) error
}

type Option func(*Resolver)

// WithAssumeYes answers every question with yes when input is not a
// terminal.
func WithAssumeYes(yes bool) Option {
	return func(r *Resolver) {
		r.assumeYes = yes
	}
}

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(r *Resolver) {
		r.interactive = interactive
	}
}

// Resolver renders each active request and resolves it from a line of
// input. Requests are handled one at a time on a dedicated goroutine.
type Resolver struct {
	broker      Broker
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	assumeYes   bool

	requests chan confirm.Request
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

func New(broker Broker, in io.Reader, out io.Writer, opts ...Option) *Resolver {
	r := &Resolver{
		broker:      broker,
		in:          bufio.NewReader(in),
		out:         out,
		interactive: IsTerminal(in),
		requests:    make(chan confirm.Request, 16),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Attach starts answering requests. The returned func stops it and waits for
// the request in progress, if any.
func (r *Resolver) Attach() (detach func()) {
	handle := r.broker.OnRequest(func(req confirm.Request) {
		select {
		case r.requests <- req:
		case <-r.stop:
		}
	})
	go r.loop()

	return func() {
		r.broker.Unsubscribe(handle)
		r.once.Do(func() { close(r.stop) })
		<-r.done
	}
}

func (r *Resolver) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case req := <-r.requests:
			if err := r.handle(req); err != nil {
				glog.Infof("[prompt]%s: %v\n", req.ID, err)
			}
		}
	}
}

func (r *Resolver) handle(req confirm.Request) error {
	view, err := customer.RenderRequest(req)
	if err != nil {
		return fmt.Errorf("render request: %w", err)
	}
	if _, err := fmt.Fprintln(r.out, view); err != nil {
		return fmt.Errorf("write request: %w", err)
	}

	answer := false
	if req.Kind.IsQuestion() {
		answer, err = r.answer()
		if err != nil {
			return err
		}
	}

	if err := r.broker.Resolve(req.ID, answer); err != nil {
		if errors.Is(err, confirm.ErrUnknownRequest) {
			glog.V(2).Infof("[prompt]%s no longer active\n", req.ID)
			return nil
		}
		return err
	}
	return nil
}

func (r *Resolver) answer() (bool, error) {
	if !r.interactive {
		if _, err := fmt.Fprintf(r.out, "answering %s (not a terminal)\n", yesNo(r.assumeYes)); err != nil {
			return false, fmt.Errorf("write answer: %w", err)
		}
		return r.assumeYes, nil
	}

	line, err := r.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return ParseAnswer(line), nil
}

// ParseAnswer accepts y and yes in any case; anything else is no.
func ParseAnswer(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
