package taskslib

import "sync"

// ResourcePool is a generic object pool that hands items out wrapped in a
// Resource. Releasing a Resource returns the item to the pool when the pool
// is still open and discards it otherwise, so a Resource can safely outlive
// the pool it came from.
//
// The pool shares no state with the task queue; it just tends to travel with
// it, holding reusable payloads for tasks.
type ResourcePool[T any] struct {
	cell *poolCell[T]
}

// poolCell is the guard cell shared between the pool and every handed-out
// Resource. Resources hold the cell, never the pool, so nothing keeps the
// pool itself alive and there is no ownership cycle.
type poolCell[T any] struct {
	mu     sync.Mutex
	items  []*T
	closed bool
}

// NewResourcePool creates an empty open pool.
func NewResourcePool[T any]() *ResourcePool[T] {
	return &ResourcePool[T]{cell: &poolCell[T]{}}
}

// Add puts an item into the pool. Items added after Close are discarded.
func (p *ResourcePool[T]) Add(item *T) {
	p.cell.add(item)
}

// Acquire takes the most recently returned item out of the pool. On an empty
// pool the Resource carries a nil item.
func (p *ResourcePool[T]) Acquire() *Resource[T] {
	c := p.cell
	c.mu.Lock()
	var item *T
	if n := len(c.items); n > 0 {
		item = c.items[n-1]
		c.items[n-1] = nil
		c.items = c.items[:n-1]
	}
	c.mu.Unlock()

	return &Resource[T]{item: item, cell: c}
}

// AddAcquire wraps a caller-supplied item without going through the pool, so
// that releasing it later returns it to this pool.
func (p *ResourcePool[T]) AddAcquire(item *T) *Resource[T] {
	return &Resource[T]{item: item, cell: p.cell}
}

// IsEmpty reports whether the pool currently holds no items.
func (p *ResourcePool[T]) IsEmpty() bool {
	return p.Size() == 0
}

// Size returns the number of pooled items.
func (p *ResourcePool[T]) Size() int {
	p.cell.mu.Lock()
	defer p.cell.mu.Unlock()
	return len(p.cell.items)
}

// Close marks the pool dead and drops the pooled items. Resources released
// afterwards discard their item instead of returning it. Close is idempotent.
func (p *ResourcePool[T]) Close() {
	p.cell.mu.Lock()
	p.cell.closed = true
	p.cell.items = nil
	p.cell.mu.Unlock()
}

func (c *poolCell[T]) add(item *T) {
	if item == nil {
		return
	}
	c.mu.Lock()
	if !c.closed {
		c.items = append(c.items, item)
	}
	c.mu.Unlock()
}

// Resource is one acquired item. Release it when done; releasing twice or
// releasing a nil item is harmless.
type Resource[T any] struct {
	mu   sync.Mutex
	item *T
	cell *poolCell[T]
}

// Get returns the underlying item, nil if the pool was empty on Acquire or
// the Resource was already released.
func (r *Resource[T]) Get() *T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.item
}

// Release hands the item back to its pool, or lets it go to the collector if
// the pool has been closed in the meantime.
func (r *Resource[T]) Release() {
	r.mu.Lock()
	item := r.item
	r.item = nil
	cell := r.cell
	r.cell = nil
	r.mu.Unlock()

	if item == nil || cell == nil {
		return
	}
	cell.add(item)
}
