package eventloop

import (
	"sync/atomic"
	"weak"
)

// Owner is the liveness anchor of a caller. Results addressed to a closed or
// collected owner are dropped instead of delivered.
type Owner struct {
	name   string
	closed atomic.Bool
}

// NewOwner creates a live owner. The name only appears in logs.
func NewOwner(name string) *Owner {
	return &Owner{name: name}
}

// String returns the owner's name
func (o *Owner) String() string {
	return o.name
}

// Close marks the owner dead. Idempotent.
func (o *Owner) Close() {
	o.closed.Store(true)
}

// Alive reports whether the owner has not been closed
func (o *Owner) Alive() bool {
	return !o.closed.Load()
}

// Handle returns a weak handle to the owner
func (o *Owner) Handle() Handle {
	return Handle{ref: weak.Make(o)}
}

// Handle is a weak reference to an Owner. It does not keep the owner alive.
// The zero Handle is dead.
type Handle struct {
	ref      weak.Pointer[Owner]
	detached bool
}

// Detached returns a handle that is always alive, for callers with no
// lifetime of their own (CLI commands, tests).
func Detached() Handle {
	return Handle{detached: true}
}

// Alive reports whether the referenced owner still exists and is open
func (h Handle) Alive() bool {
	if h.detached {
		return true
	}
	o := h.ref.Value()
	return o != nil && o.Alive()
}

// Deliver invokes fn only if h is alive
func (h Handle) Deliver(fn func()) bool {
	if fn == nil || !h.Alive() {
		return false
	}
	fn()
	return true
}
