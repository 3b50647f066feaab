// Package pool provides process-wide free lists for short-lived objects that
// would otherwise be allocated once per spatial query. Pools are backed by
// sync.Pool, which keeps per-P private free lists with cross-P stealing, so
// independent queries on independent goroutines obtain and recycle objects
// without contending on a single lock.
package pool

import (
	"sync"

	"go.uber.org/atomic"
)

// enabled is the pool-wide switch. When false, Obtain falls through to direct
// allocation and Recycle drops its argument, which makes object lifetimes
// visible to leak diagnostics.
var enabled = atomic.NewBool(true)

// SetEnabled turns all pooling on or off. Disabling does not release capacity
// already held; use Clear or ClearAll for that.
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether pooling is currently on.
func Enabled() bool {
	return enabled.Load()
}

var registry struct {
	mu    sync.Mutex
	pools []interface{ Clear() }
}

// ClearAll releases the pooled capacity of every pool created so far. Intended
// for controlled points such as level or scene transitions.
func ClearAll() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for _, p := range registry.pools {
		p.Clear()
	}
}

func register(p interface{ Clear() }) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.pools = append(registry.pools, p)
}

// Metrics are cumulative counters for a single pool.
type Metrics struct {
	// Obtained is the total number of Obtain calls.
	Obtained int64
	// Recycled is the total number of Recycle calls accepted by the pool.
	Recycled int64
	// Allocated is the number of Obtain calls that had to allocate because
	// the free list was empty or pooling was disabled.
	Allocated int64
}

// Pool hands out and reclaims objects of a single type. The zero value is not
// usable; construct with New.
type Pool[T any] struct {
	inner atomic.Pointer[sync.Pool]
	newFn func() T
	reset func(T)

	obtained  atomic.Int64
	recycled  atomic.Int64
	allocated atomic.Int64
}

// New creates a pool producing objects with newFn. reset is applied to every
// object immediately before it is handed back out by Obtain; it may be nil
// when no cleanup is needed. The pool registers itself for ClearAll.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{newFn: newFn, reset: reset}
	p.inner.Store(&sync.Pool{})
	register(p)
	return p
}

// Obtain returns an object ready for use. The object's state has been reset
// but is not necessarily zeroed.
func (p *Pool[T]) Obtain() T {
	p.obtained.Inc()
	if enabled.Load() {
		if v := p.inner.Load().Get(); v != nil {
			obj := v.(T)
			if p.reset != nil {
				p.reset(obj)
			}
			return obj
		}
	}
	p.allocated.Inc()
	obj := p.newFn()
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Recycle returns an object to the pool. It must be called exactly once per
// obtained object; the caller must not retain the object afterwards.
func (p *Pool[T]) Recycle(obj T) {
	if !enabled.Load() {
		return
	}
	p.recycled.Inc()
	p.inner.Load().Put(obj)
}

// Clear drops all pooled capacity, leaving the pool usable.
func (p *Pool[T]) Clear() {
	p.inner.Store(&sync.Pool{})
}

// Metrics returns a snapshot of the pool's counters.
func (p *Pool[T]) Metrics() Metrics {
	return Metrics{
		Obtained:  p.obtained.Load(),
		Recycled:  p.recycled.Load(),
		Allocated: p.allocated.Load(),
	}
}
