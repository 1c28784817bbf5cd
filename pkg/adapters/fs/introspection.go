package fs

import (
	"github.com/aretw0/introspection"
)

// JournalState exposes internal state for observability.
type JournalState struct {
	Dir     string `json:"dir"`
	Format  string `json:"format"`
	Entries int    `json:"entries"`
	LastSeq uint64 `json:"last_seq"`
}

// State implements introspection.Introspectable.
func (j *Journal[T]) State() any {
	state := JournalState{
		Dir:    j.Dir,
		Format: j.Format,
	}
	if refs, err := j.List(0); err == nil && len(refs) > 0 {
		state.Entries = len(refs)
		state.LastSeq = refs[len(refs)-1].Seq
	}
	return state
}

// ComponentType implements introspection.Component.
func (j *Journal[T]) ComponentType() string {
	return "journal"
}

var _ introspection.Introspectable = (*Journal[string])(nil)
var _ introspection.Component = (*Journal[string])(nil)
