package collection

import (
	"github.com/aretw0/introspection"
)

// CollectionState exposes internal state for observability.
// It is safe to read from any goroutine.
type CollectionState struct {
	Count       int    `json:"count"`
	Subscribers int    `json:"subscribers"`
	Applied     uint64 `json:"applied"`
	Rejected    uint64 `json:"rejected"`
	LastError   string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Collection[T]) State() any {
	state := CollectionState{
		Count:       int(c.count.Load()),
		Subscribers: c.subscriberCount(),
		Applied:     c.applied.Load(),
		Rejected:    c.rejected.Load(),
	}
	if msg := c.lastErr.Load(); msg != nil {
		state.LastError = *msg
	}
	return state
}

// ComponentType implements introspection.Component.
func (c *Collection[T]) ComponentType() string {
	return "collection"
}

var _ introspection.Introspectable = (*Collection[string])(nil)
var _ introspection.Component = (*Collection[string])(nil)
