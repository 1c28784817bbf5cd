package core

import "fmt"

// Notification describes one contiguous mutation that was applied to a collection.
// A single ChangeEvent may produce several notifications (e.g. a value-based
// Remove touching scattered positions), all sharing the same Seq.
type Notification[T any] struct {
	// Seq is the 1-based sequence number of the ChangeEvent that produced it.
	Seq      uint64
	Kind     Kind
	NewItems []T
	OldItems []T
	// NewIndex and OldIndex are Unspecified when they do not apply to Kind.
	NewIndex int
	OldIndex int
}

// String implements fmt.Stringer (and therefore lifecycle.Event).
func (n Notification[T]) String() string {
	switch n.Kind {
	case KindReset:
		return fmt.Sprintf("#%d reset %v -> %v", n.Seq, n.OldItems, n.NewItems)
	case KindAdd:
		return fmt.Sprintf("#%d add %v at %d", n.Seq, n.NewItems, n.NewIndex)
	case KindRemove:
		return fmt.Sprintf("#%d remove %v at %d", n.Seq, n.OldItems, n.OldIndex)
	case KindReplace:
		return fmt.Sprintf("#%d replace %v -> %v at %d", n.Seq, n.OldItems, n.NewItems, n.OldIndex)
	case KindMove:
		return fmt.Sprintf("#%d move %v %d -> %d", n.Seq, n.NewItems, n.OldIndex, n.NewIndex)
	}
	return fmt.Sprintf("#%d %s", n.Seq, string(n.Kind))
}
