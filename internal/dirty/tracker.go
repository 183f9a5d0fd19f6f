// Package dirty detects unsaved changes by comparing a model's canonical
// serialization with a captured baseline.
package dirty

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
)

var ErrNoBaseline = errors.New("no original model set")

// Tracker holds the baseline of one edited model. The baseline only changes
// through SetOriginalModel or Reset.
type Tracker[T any] struct {
	exclude map[string]struct{}

	mu       sync.Mutex
	baseline []byte
	armed    bool
}

// New returns a tracker that ignores the named fields (JSON names) wherever
// they appear in the model.
func New[T any](exclude ...string) *Tracker[T] {
	set := make(map[string]struct{}, len(exclude))
	for _, field := range exclude {
		set[norm.NFC.String(field)] = struct{}{}
	}
	return &Tracker[T]{exclude: set}
}

func (t *Tracker[T]) SetOriginalModel(v T) error {
	data, err := Canonical(v, t.exclude)
	if err != nil {
		return fmt.Errorf("capture original model: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.baseline = data
	t.armed = true
	return nil
}

func (t *Tracker[T]) IsDirty(v T) (bool, error) {
	t.mu.Lock()
	baseline, armed := t.baseline, t.armed
	t.mu.Unlock()

	if !armed {
		return false, ErrNoBaseline
	}

	data, err := Canonical(v, t.exclude)
	if err != nil {
		return false, fmt.Errorf("serialize current model: %w", err)
	}
	return !bytes.Equal(baseline, data), nil
}

// Armed reports whether a baseline has been captured.
func (t *Tracker[T]) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *Tracker[T]) Baseline() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.baseline)
}

func (t *Tracker[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baseline = nil
	t.armed = false
}

func (t *Tracker[T]) Excluded() []string {
	fields := make([]string, 0, len(t.exclude))
	for field := range t.exclude {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
