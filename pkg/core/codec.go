package core

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// wireEvent is the serialized shape of a ChangeEvent.
type wireEvent[T any] struct {
	Kind     Kind `json:"kind" yaml:"kind"`
	NewItems []T  `json:"new_items,omitempty" yaml:"new_items,omitempty"`
	OldItems []T  `json:"old_items,omitempty" yaml:"old_items,omitempty"`
	NewIndex *int `json:"new_index,omitempty" yaml:"new_index,omitempty"`
	OldIndex *int `json:"old_index,omitempty" yaml:"old_index,omitempty"`
}

func (e ChangeEvent[T]) wire() wireEvent[T] {
	w := wireEvent[T]{
		Kind:     e.kind,
		NewItems: e.newItems,
		OldItems: e.oldItems,
	}
	if e.newIndex != Unspecified {
		idx := e.newIndex
		w.NewIndex = &idx
	}
	if e.oldIndex != Unspecified {
		idx := e.oldIndex
		w.OldIndex = &idx
	}
	return w
}

func (w wireEvent[T]) event() (ChangeEvent[T], error) {
	newIndex, oldIndex := Unspecified, Unspecified
	if w.NewIndex != nil {
		newIndex = *w.NewIndex
	}
	if w.OldIndex != nil {
		oldIndex = *w.OldIndex
	}
	return NewChangeEvent(w.Kind, w.NewItems, w.OldItems, newIndex, oldIndex)
}

// MarshalJSON implements json.Marshaler.
func (e ChangeEvent[T]) MarshalJSON() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e.wire())
}

// UnmarshalJSON implements json.Unmarshaler. The decoded event is validated.
func (e *ChangeEvent[T]) UnmarshalJSON(data []byte) error {
	var w wireEvent[T]
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	ev, err := w.event()
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e ChangeEvent[T]) MarshalYAML() (interface{}, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e.wire(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. The decoded event is validated.
func (e *ChangeEvent[T]) UnmarshalYAML(value *yaml.Node) error {
	var w wireEvent[T]
	if err := value.Decode(&w); err != nil {
		return fmt.Errorf("invalid yaml: %w", err)
	}
	ev, err := w.event()
	if err != nil {
		return err
	}
	*e = ev
	return nil
}
