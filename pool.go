package skipdict

import (
	"fmt"
	"sync"
)

// nodeAllocator provides node memory to a Map. Released nodes have already
// been unlinked and must not be referenced by the caller afterwards.
type nodeAllocator[K, V any] interface {
	alloc(level int) (*node[K, V], error)
	release(n *node[K, V])
	// live reports the number of nodes handed out and not yet released.
	live() int
}

type heapAllocator[K, V any] struct {
	n int
}

func (a *heapAllocator[K, V]) alloc(level int) (*node[K, V], error) {
	a.n++
	return &node[K, V]{forward: make([]*node[K, V], level)}, nil
}

func (a *heapAllocator[K, V]) release(n *node[K, V]) {
	if n == nil {
		return
	}
	n.reset()
	a.n--
}

func (a *heapAllocator[K, V]) live() int { return a.n }

// poolAllocator recycles nodes through a sync.Pool. A pooled node whose
// forward slice is too short for the requested level is discarded.
type poolAllocator[K, V any] struct {
	pool sync.Pool
	n    int
}

func newPoolAllocator[K, V any]() *poolAllocator[K, V] {
	a := &poolAllocator[K, V]{}
	a.pool.New = func() any { return &node[K, V]{} }
	return a
}

func (a *poolAllocator[K, V]) alloc(level int) (*node[K, V], error) {
	n := a.pool.Get().(*node[K, V])
	if cap(n.forward) < level {
		n.forward = make([]*node[K, V], level)
	} else {
		n.forward = n.forward[:level]
		clear(n.forward)
	}
	a.n++
	return n, nil
}

func (a *poolAllocator[K, V]) release(n *node[K, V]) {
	if n == nil {
		return
	}
	n.reset()
	a.n--
	a.pool.Put(n)
}

func (a *poolAllocator[K, V]) live() int { return a.n }

// budgetAllocator refuses allocations once limit nodes are live.
type budgetAllocator[K, V any] struct {
	next  nodeAllocator[K, V]
	limit int
}

func (a *budgetAllocator[K, V]) alloc(level int) (*node[K, V], error) {
	if a.next.live() >= a.limit {
		return nil, fmt.Errorf("%w: node budget of %d exhausted", ErrAllocationFailure, a.limit)
	}
	return a.next.alloc(level)
}

func (a *budgetAllocator[K, V]) release(n *node[K, V]) { a.next.release(n) }

func (a *budgetAllocator[K, V]) live() int { return a.next.live() }

func newAllocator[K, V any](c *Config) nodeAllocator[K, V] {
	var a nodeAllocator[K, V]
	if c.pool {
		a = newPoolAllocator[K, V]()
	} else {
		a = &heapAllocator[K, V]{}
	}
	if c.budget >= 0 {
		a = &budgetAllocator[K, V]{next: a, limit: c.budget}
	}
	return a
}
