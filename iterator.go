package skipdict

import "iter"

// Iterator provides a forward-only view over the map in key order.
// Mutating the map while an iterator is in use is undefined.
type Iterator[K Key, V any] struct {
	m       *Map[K, V]
	current *node[K, V]
	started bool
}

// Iterator returns a new iterator positioned before the first element.
func (m *Map[K, V]) Iterator() *Iterator[K, V] {
	return &Iterator[K, V]{m: m}
}

// SeekGE returns an iterator positioned at the first element whose key is
// greater than or equal to key. The returned iterator is valid if and only if
// such an element exists.
func (m *Map[K, V]) SeekGE(key K) *Iterator[K, V] {
	it := m.Iterator()
	it.SeekGE(key)
	return it
}

// Valid reports whether the iterator currently points at an element.
func (it *Iterator[K, V]) Valid() bool {
	return it != nil && it.current != nil
}

// Key returns the key at the iterator's current position.
// It should only be called when Valid reports true.
func (it *Iterator[K, V]) Key() K {
	var zero K
	if !it.Valid() {
		return zero
	}
	return it.current.key
}

// Value returns the value at the iterator's current position.
// It should only be called when Valid reports true.
func (it *Iterator[K, V]) Value() V {
	var zero V
	if !it.Valid() {
		return zero
	}
	return it.current.val
}

// Next advances the iterator and reports whether it points at an element.
// The first call moves to the smallest key. Once Next has returned false it
// keeps returning false.
func (it *Iterator[K, V]) Next() bool {
	if it == nil || it.m == nil {
		return false
	}
	switch {
	case !it.started:
		it.started = true
		it.current = it.m.head.next()
	case it.current != nil:
		it.current = it.current.next()
	}
	return it.current != nil
}

// SeekGE positions the iterator at the first element whose key is greater
// than or equal to key and reports whether such an element exists.
func (it *Iterator[K, V]) SeekGE(key K) bool {
	if it == nil || it.m == nil {
		return false
	}
	it.started = true
	it.current, _ = it.m.search(key)
	return it.current != nil
}

// All returns a sequence of all entries in ascending key order. Each call
// starts again from the current minimum.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for x := m.head.next(); x != nil; x = x.next() {
			if !yield(x.key, x.val) {
				return
			}
		}
	}
}

// Keys returns a sequence of all keys in ascending order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns a sequence of all values in ascending key order.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Range calls fn for each entry in ascending key order until fn returns false.
func (m *Map[K, V]) Range(fn func(key K, val V) bool) {
	m.All()(fn)
}
