package eval

import (
	"context"
	"sync"
	"sync/atomic"
)

// Registry tracks in-flight query evaluations by handle, so `::kill N`
// (spec §5, §6) can cancel a running query from another connection. It is
// grounded on the teacher's pattern of a process-wide registry of
// addressable in-flight requests, simplified here to the one operation the
// spec actually names: cancel-by-handle.
type Registry struct {
	next    atomic.Int64
	mu      sync.Mutex
	running map[int64]context.CancelFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{running: map[int64]context.CancelFunc{}}
}

// Register records cancel under a fresh handle and returns it.
func (r *Registry) Register(cancel context.CancelFunc) int64 {
	handle := r.next.Add(1)
	r.mu.Lock()
	r.running[handle] = cancel
	r.mu.Unlock()
	return handle
}

// Unregister removes handle once its query has finished, successfully or
// not.
func (r *Registry) Unregister(handle int64) {
	r.mu.Lock()
	delete(r.running, handle)
	r.mu.Unlock()
}

// Kill cancels the context registered under handle, reporting whether a
// running query was found.
func (r *Registry) Kill(handle int64) bool {
	r.mu.Lock()
	cancel, ok := r.running[handle]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Handles returns every currently-registered handle, for `::running`.
func (r *Registry) Handles() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int64, 0, len(r.running))
	for h := range r.running {
		out = append(out, h)
	}
	return out
}
