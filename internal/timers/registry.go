// File: internal/timers/registry.go
package timers

import (
	"sync"
	"time"
)

// Registry owns the pending timers of one page agent. Every handle registered
// here is cancelled when a new solve cycle begins or when the agent is torn
// down, so no scheduled callback can fire against a stale page.
//
// Cancellation stops callbacks that have not started yet; a callback already
// running is allowed to finish.
type Registry struct {
	mu      sync.Mutex
	seq     uint64
	pending map[uint64]*time.Timer
	closed  bool
	revoked chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[uint64]*time.Timer),
		revoked: make(chan struct{}),
	}
}

// AfterFunc schedules fn to run after d and returns the handle. The handle is
// removed from the registry when the callback fires. Scheduling against a
// closed registry is a no-op and returns false.
func (r *Registry) AfterFunc(d time.Duration, fn func()) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, false
	}

	r.seq++
	handle := r.seq
	r.pending[handle] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.pending, handle)
		r.mu.Unlock()
		fn()
	})
	return handle, true
}

// Cancel stops the timer for one handle, if it is still pending.
func (r *Registry) Cancel(handle uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.pending[handle]; ok {
		t.Stop()
		delete(r.pending, handle)
	}
}

// CancelAll stops every pending timer and signals the current Revoked
// channel. Called at the start of each solve cycle to defend against
// overlapping triggers.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for h, t := range r.pending {
		t.Stop()
		delete(r.pending, h)
	}
	close(r.revoked)
	r.revoked = make(chan struct{})
}

// Close cancels every pending timer and refuses further scheduling. Called at
// page teardown. Idempotent.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for h, t := range r.pending {
		t.Stop()
		delete(r.pending, h)
	}
	close(r.revoked)
	r.closed = true
}

// Revoked returns a channel that is closed the next time the registry's
// pending timers are revoked in bulk (CancelAll or Close). Callers waiting on
// their scheduled timers select on it to avoid waiting for work that will
// never fire.
func (r *Registry) Revoked() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked
}

// Len returns the number of pending timers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
