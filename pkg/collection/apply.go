package collection

import (
	"fmt"
	"slices"

	"github.com/aretw0/synclist/pkg/core"
)

// applyChange computes the effect of ev on items.
//
//	Reset                 clear, then append NewItems in order
//	Add,     NewIndex -1  append NewItems
//	Add,     NewIndex i   insert NewItems as a contiguous block at i
//	Move                  remove the element at OldIndex, reinsert it at NewIndex
//	Remove,  OldIndex -1  remove the first occurrence of each OldItems value; misses are skipped
//	Remove,  OldIndex i   remove len(OldItems) elements starting at i
//	Replace, OldIndex -1  for each pair, overwrite the first occurrence of OldItems[k] with NewItems[k]; misses are skipped
//	Replace, OldIndex i   overwrite positions i, i+1, ... with NewItems
//
// Positional events are bounds-checked before anything changes; on error items
// is returned untouched. items may be modified in place, so callers that still
// expose the old slice must pass a copy.
func applyChange[T comparable](items []T, ev core.ChangeEvent[T], seq uint64) ([]T, []core.Notification[T], error) {
	n := len(items)

	switch ev.Kind() {
	case core.KindReset:
		next := ev.NewItems()
		return next, []core.Notification[T]{{
			Seq:      seq,
			Kind:     core.KindReset,
			NewItems: slices.Clone(next),
			OldItems: slices.Clone(items),
			NewIndex: core.Unspecified,
			OldIndex: core.Unspecified,
		}}, nil

	case core.KindAdd:
		added := ev.NewItems()
		at := ev.NewIndex()
		if at == core.Unspecified {
			at = n
		}
		if at < 0 || at > n {
			return items, nil, outOfRange(ev, at, n)
		}
		if len(added) == 0 {
			return items, nil, nil
		}
		items = slices.Insert(items, at, added...)
		return items, []core.Notification[T]{{
			Seq:      seq,
			Kind:     core.KindAdd,
			NewItems: added,
			NewIndex: at,
			OldIndex: core.Unspecified,
		}}, nil

	case core.KindMove:
		from, to := ev.OldIndex(), ev.NewIndex()
		if from < 0 || from >= n {
			return items, nil, outOfRange(ev, from, n)
		}
		if to < 0 || to >= n {
			return items, nil, outOfRange(ev, to, n)
		}
		if from == to {
			return items, nil, nil
		}
		item := items[from]
		items = slices.Delete(items, from, from+1)
		items = slices.Insert(items, to, item)
		return items, []core.Notification[T]{{
			Seq:      seq,
			Kind:     core.KindMove,
			NewItems: []T{item},
			OldItems: []T{item},
			NewIndex: to,
			OldIndex: from,
		}}, nil

	case core.KindRemove:
		if ev.Positional() {
			at, count := ev.OldIndex(), len(ev.OldItems())
			if at < 0 || at+count > n {
				return items, nil, outOfRange(ev, at, n)
			}
			if count == 0 {
				return items, nil, nil
			}
			removed := slices.Clone(items[at : at+count])
			items = slices.Delete(items, at, at+count)
			return items, []core.Notification[T]{{
				Seq:      seq,
				Kind:     core.KindRemove,
				OldItems: removed,
				NewIndex: core.Unspecified,
				OldIndex: at,
			}}, nil
		}

		var notes []core.Notification[T]
		for _, v := range ev.OldItems() {
			at := slices.Index(items, v)
			if at < 0 {
				continue
			}
			items = slices.Delete(items, at, at+1)
			notes = append(notes, core.Notification[T]{
				Seq:      seq,
				Kind:     core.KindRemove,
				OldItems: []T{v},
				NewIndex: core.Unspecified,
				OldIndex: at,
			})
		}
		return items, notes, nil

	case core.KindReplace:
		replacements := ev.NewItems()
		if ev.Positional() {
			at := ev.OldIndex()
			if at < 0 || at+len(replacements) > n {
				return items, nil, outOfRange(ev, at, n)
			}
			if len(replacements) == 0 {
				return items, nil, nil
			}
			previous := slices.Clone(items[at : at+len(replacements)])
			copy(items[at:], replacements)
			return items, []core.Notification[T]{{
				Seq:      seq,
				Kind:     core.KindReplace,
				NewItems: replacements,
				OldItems: previous,
				NewIndex: at,
				OldIndex: at,
			}}, nil
		}

		var notes []core.Notification[T]
		for k, old := range ev.OldItems() {
			at := slices.Index(items, old)
			if at < 0 {
				continue
			}
			items[at] = replacements[k]
			notes = append(notes, core.Notification[T]{
				Seq:      seq,
				Kind:     core.KindReplace,
				NewItems: []T{replacements[k]},
				OldItems: []T{old},
				NewIndex: at,
				OldIndex: at,
			})
		}
		return items, notes, nil
	}

	return items, nil, fmt.Errorf("unknown kind %q: %w", string(ev.Kind()), core.ErrInvalidArgument)
}

func outOfRange[T any](ev core.ChangeEvent[T], index, length int) error {
	return fmt.Errorf("%s: index %d with length %d: %w", ev, index, length, core.ErrOutOfRange)
}
