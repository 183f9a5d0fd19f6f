package domain

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Sequence is an ordered, copy-on-write list of records. Every edit returns a
// new Sequence and leaves the receiver untouched. The zero value is an empty
// sequence.
type Sequence[T Record[T, P], P any] struct {
	items []T
}

func NewSequence[T Record[T, P], P any](items ...T) Sequence[T, P] {
	return Sequence[T, P]{items: slices.Clone(items)}
}

func (s Sequence[T, P]) Len() int {
	return len(s.items)
}

// At returns the element at i. The second result is false when i is out of
// range.
func (s Sequence[T, P]) At(i int) (T, bool) {
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero, false
	}
	return s.items[i], true
}

// Items returns a copy of the elements.
func (s Sequence[T, P]) Items() []T {
	return slices.Clone(s.items)
}

func (s Sequence[T, P]) All() iter.Seq2[int, T] {
	return slices.All(s.items)
}

// IndexOf returns the position of the first element identical to e, or -1.
func (s Sequence[T, P]) IndexOf(e T) int {
	return slices.Index(s.items, e)
}

// IndexWhere returns the position of the first element matching pred, or -1.
func (s Sequence[T, P]) IndexWhere(pred func(T) bool) int {
	return slices.IndexFunc(s.items, pred)
}

func (s Sequence[T, P]) Add(e T) Sequence[T, P] {
	return s.AddMultiple(e)
}

func (s Sequence[T, P]) AddMultiple(es ...T) Sequence[T, P] {
	items := make([]T, 0, len(s.items)+len(es))
	items = append(items, s.items...)
	items = append(items, es...)
	return Sequence[T, P]{items: items}
}

func (s Sequence[T, P]) Replace(i int, e T) (Sequence[T, P], error) {
	if err := s.checkIndex("replace", i); err != nil {
		return s, err
	}

	items := slices.Clone(s.items)
	items[i] = e
	return Sequence[T, P]{items: items}, nil
}

// Remove drops every element identical to e. Removing an element that is not
// present returns an equal copy.
func (s Sequence[T, P]) Remove(e T) Sequence[T, P] {
	items := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if item != e {
			items = append(items, item)
		}
	}
	return Sequence[T, P]{items: items}
}

func (s Sequence[T, P]) RemoveAt(i int) (Sequence[T, P], error) {
	if err := s.checkIndex("remove", i); err != nil {
		return s, err
	}

	items := make([]T, 0, len(s.items)-1)
	items = append(items, s.items[:i]...)
	items = append(items, s.items[i+1:]...)
	return Sequence[T, P]{items: items}, nil
}

// FromIndex replaces the element at i with its patched clone.
func (s Sequence[T, P]) FromIndex(i int, patch P) (Sequence[T, P], error) {
	if err := s.checkIndex("patch", i); err != nil {
		return s, err
	}
	return s.patchAt(i, patch), nil
}

// FromElement replaces the first element identical to e with its patched
// clone.
func (s Sequence[T, P]) FromElement(e T, patch P) (Sequence[T, P], error) {
	i := s.IndexOf(e)
	if i < 0 {
		return s, ErrElementNotFound
	}
	return s.patchAt(i, patch), nil
}

// FromWhere replaces the first element matching pred with its patched clone.
func (s Sequence[T, P]) FromWhere(pred func(T) bool, patch P) (Sequence[T, P], error) {
	i := s.IndexWhere(pred)
	if i < 0 {
		return s, ErrNoMatch
	}
	return s.patchAt(i, patch), nil
}

func (s Sequence[T, P]) patchAt(i int, patch P) Sequence[T, P] {
	items := slices.Clone(s.items)
	items[i] = items[i].From(patch)
	return Sequence[T, P]{items: items}
}

func (s Sequence[T, P]) checkIndex(op string, i int) error {
	if i < 0 || i >= len(s.items) {
		return fmt.Errorf("%s at %d (len %d): %w", op, i, len(s.items), ErrIndexOutOfRange)
	}
	return nil
}

// MarshalJSON encodes the sequence as an array; an empty sequence encodes as
// [] rather than null so serializations stay stable.
func (s Sequence[T, P]) MarshalJSON() ([]byte, error) {
	if len(s.items) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s.items)
}

func (s *Sequence[T, P]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	s.items = items
	return nil
}
