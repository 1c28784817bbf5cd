package core

import (
	"fmt"
	"slices"
)

// Kind represents the type of mutation carried by a ChangeEvent.
type Kind string

const (
	KindReset   Kind = "reset"
	KindAdd     Kind = "add"
	KindRemove  Kind = "remove"
	KindReplace Kind = "replace"
	KindMove    Kind = "move"
)

// Unspecified is the sentinel index. For Add it means "append", for Remove and
// Replace it means "locate the items by value".
const Unspecified = -1

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindReset, KindAdd, KindRemove, KindReplace, KindMove:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown kind %q: %w", string(k), ErrInvalidArgument)
	}
	return []byte(k), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed := Kind(text)
	if !parsed.Valid() {
		return fmt.Errorf("unknown kind %q: %w", string(text), ErrInvalidArgument)
	}
	*k = parsed
	return nil
}

// ChangeEvent is an immutable description of one mutation of an ordered collection.
// Build it with one of the constructors; the zero value is not a valid event.
type ChangeEvent[T any] struct {
	kind     Kind
	newItems []T
	oldItems []T
	newIndex int
	oldIndex int
}

// NewChangeEvent builds and validates an event from its raw parts.
// It is the path used by decoders; the typed constructors below are preferred in code.
func NewChangeEvent[T any](kind Kind, newItems, oldItems []T, newIndex, oldIndex int) (ChangeEvent[T], error) {
	ev := ChangeEvent[T]{
		kind:     kind,
		newItems: slices.Clone(newItems),
		oldItems: slices.Clone(oldItems),
		newIndex: newIndex,
		oldIndex: oldIndex,
	}
	if err := ev.validate(); err != nil {
		return ChangeEvent[T]{}, err
	}
	return ev, nil
}

func (e ChangeEvent[T]) validate() error {
	if !e.kind.Valid() {
		return fmt.Errorf("unknown kind %q: %w", string(e.kind), ErrInvalidArgument)
	}
	if e.newIndex < Unspecified || e.oldIndex < Unspecified {
		return fmt.Errorf("%s: negative index (new=%d, old=%d): %w", e.kind, e.newIndex, e.oldIndex, ErrInvalidArgument)
	}

	switch e.kind {
	case KindMove:
		if e.oldIndex < 0 || e.newIndex < 0 {
			return fmt.Errorf("move requires both indices (from=%d, to=%d): %w", e.oldIndex, e.newIndex, ErrInvalidArgument)
		}
	case KindReplace:
		if e.oldIndex == Unspecified && len(e.oldItems) != len(e.newItems) {
			return fmt.Errorf("replace by value needs lists of the same length (old=%d, new=%d): %w",
				len(e.oldItems), len(e.newItems), ErrInvalidArgument)
		}
	}
	return nil
}

// Kind returns the mutation type.
func (e ChangeEvent[T]) Kind() Kind { return e.kind }

// NewItems returns a copy of the items being inserted or used as replacements.
func (e ChangeEvent[T]) NewItems() []T { return slices.Clone(e.newItems) }

// OldItems returns a copy of the items being removed or replaced.
// For positional removals the values are placeholders; only the length matters.
func (e ChangeEvent[T]) OldItems() []T { return slices.Clone(e.oldItems) }

// NewIndex returns the target index, or Unspecified.
func (e ChangeEvent[T]) NewIndex() int { return e.newIndex }

// OldIndex returns the source index, or Unspecified.
func (e ChangeEvent[T]) OldIndex() int { return e.oldIndex }

// Positional reports whether a Remove or Replace addresses items by index.
func (e ChangeEvent[T]) Positional() bool { return e.oldIndex != Unspecified }

func (e ChangeEvent[T]) String() string {
	switch e.kind {
	case KindReset:
		return fmt.Sprintf("reset %v", e.newItems)
	case KindAdd:
		if e.newIndex == Unspecified {
			return fmt.Sprintf("add %v", e.newItems)
		}
		return fmt.Sprintf("insert %v at %d", e.newItems, e.newIndex)
	case KindMove:
		return fmt.Sprintf("move %d -> %d", e.oldIndex, e.newIndex)
	case KindRemove:
		if e.Positional() {
			return fmt.Sprintf("remove %d at %d", len(e.oldItems), e.oldIndex)
		}
		return fmt.Sprintf("remove %v", e.oldItems)
	case KindReplace:
		if e.Positional() {
			return fmt.Sprintf("replace at %d with %v", e.oldIndex, e.newItems)
		}
		return fmt.Sprintf("replace %v with %v", e.oldItems, e.newItems)
	}
	return fmt.Sprintf("invalid change %q", string(e.kind))
}

// --- Constructors ---

// Reset replaces the whole contents with items.
func Reset[T any](items ...T) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindReset, newItems: slices.Clone(items), newIndex: Unspecified, oldIndex: Unspecified}
}

// Add appends items at the end.
func Add[T any](items ...T) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindAdd, newItems: slices.Clone(items), newIndex: Unspecified, oldIndex: Unspecified}
}

// Insert places items contiguously starting at index.
// Passing Unspecified is the same as Add.
func Insert[T any](index int, items ...T) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindAdd, newItems: slices.Clone(items), newIndex: index, oldIndex: Unspecified}
}

// Move relocates the element at from so that it ends up at to.
func Move[T any](from, to int) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindMove, newIndex: to, oldIndex: from}
}

// RemoveAt removes the element at index.
func RemoveAt[T any](index int) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindRemove, oldItems: make([]T, 1), newIndex: Unspecified, oldIndex: index}
}

// RemoveRange removes count contiguous elements starting at index.
func RemoveRange[T any](index, count int) (ChangeEvent[T], error) {
	if count < 0 {
		return ChangeEvent[T]{}, fmt.Errorf("remove range: negative count %d: %w", count, ErrInvalidArgument)
	}
	return NewChangeEvent(KindRemove, nil, make([]T, count), Unspecified, index)
}

// Remove removes the first occurrence of each item, in order.
func Remove[T any](items ...T) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindRemove, oldItems: slices.Clone(items), newIndex: Unspecified, oldIndex: Unspecified}
}

// Replace swaps the first occurrence of oldItem for newItem.
func Replace[T any](oldItem, newItem T) ChangeEvent[T] {
	return ChangeEvent[T]{
		kind:     KindReplace,
		oldItems: []T{oldItem},
		newItems: []T{newItem},
		newIndex: Unspecified,
		oldIndex: Unspecified,
	}
}

// ReplaceValues pairs oldItems[k] with newItems[k] and replaces each by value.
func ReplaceValues[T any](oldItems, newItems []T) (ChangeEvent[T], error) {
	return NewChangeEvent(KindReplace, newItems, oldItems, Unspecified, Unspecified)
}

// ReplaceAt overwrites the elements starting at index with items.
func ReplaceAt[T any](index int, items ...T) ChangeEvent[T] {
	return ChangeEvent[T]{kind: KindReplace, newItems: slices.Clone(items), newIndex: Unspecified, oldIndex: index}
}
