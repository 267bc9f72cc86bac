package skipdict

import (
	"fmt"
	"log/slog"
	"strings"
)

// Map is an ordered map from integer keys to values, backed by a skip list.
// It is not safe for concurrent use; callers serialize access.
//
// The map never inspects values. Any value displaced by Insert or removed by
// Remove, PopMin or PopMax is handed back to the caller, and the map keeps
// no reference to it.
type Map[K Key, V any] struct {
	compare   Compare[K]
	head      *node[K, V]
	level     int
	length    int
	maxLevel  int
	p         float64
	keyHashed bool
	levels    LevelSource
	nodes     nodeAllocator[K, V]
	// update is scratch space for search, sized to maxLevel.
	update  []*node[K, V]
	logger  *slog.Logger
	metrics counters
	closed  bool
}

// New returns an empty Map ordered by compare. A nil compare orders keys
// ascending. It fails with ErrAllocationFailure if the head sentinel cannot be
// allocated and with ErrInvalidConfig if an option is out of range.
func New[K Key, V any](compare Compare[K], opts ...Option) (*Map[K, V], error) {
	c := NewConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if compare == nil {
		compare = Ascending[K]()
	}

	logger := c.logger
	if logger == nil {
		logger = slog.Default().With("system", "skipdict")
	}

	m := &Map[K, V]{
		compare:   compare,
		maxLevel:  c.maxLevel,
		p:         c.p,
		keyHashed: c.keyHashed && c.levels == nil,
		levels:    c.levelSource(),
		nodes:     newAllocator[K, V](&c),
		update:    make([]*node[K, V], c.maxLevel),
		logger:    logger,
	}

	head, err := m.nodes.alloc(c.maxLevel)
	if err != nil {
		m.metrics.allocFailures++
		return nil, fmt.Errorf("allocating head sentinel: %w", err)
	}
	m.head = head
	return m, nil
}

// search walks from the head at the current level down to level 0, recording
// in m.update the last node at each level whose key sorts before key. It
// returns the level-0 successor of that path and whether its key equals key.
func (m *Map[K, V]) search(key K) (*node[K, V], bool) {
	x := m.head
	for i := m.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && m.compare(x.forward[i].key, key) < 0 {
			x = x.forward[i]
		}
		m.update[i] = x
	}

	candidate := x.forward[0]
	if candidate != nil && m.compare(candidate.key, key) == 0 {
		return candidate, true
	}
	return candidate, false
}

func (m *Map[K, V]) drawLevel(key K) int {
	if m.keyHashed {
		return hashLevel(key, m.p, m.maxLevel)
	}
	lvl := m.levels.Level(m.maxLevel)
	if lvl < 1 || lvl > m.maxLevel {
		panic(fmt.Sprintf("skipdict: level source returned %d, want [1, %d]", lvl, m.maxLevel))
	}
	return lvl
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return m.length
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, found := m.search(key)
	return found
}

// Get returns the value stored under key. The boolean is false when the key
// is absent, which is distinct from a present key holding a zero value.
func (m *Map[K, V]) Get(key K) (V, bool) {
	x, found := m.search(key)
	if !found {
		m.metrics.misses++
		var zero V
		return zero, false
	}
	return x.val, true
}

// GetOr returns the value stored under key, or def when key is absent.
func (m *Map[K, V]) GetOr(key K, def V) V {
	if v, ok := m.Get(key); ok {
		return v
	}
	return def
}

// Insert stores val under key. If key was already present its value is
// replaced in place and the previous value is returned with replaced set to
// true. A failed node allocation leaves the map unchanged.
func (m *Map[K, V]) Insert(key K, val V) (prev V, replaced bool, err error) {
	if m.closed {
		return prev, false, ErrClosed
	}

	x, found := m.search(key)
	if found {
		prev = x.val
		x.val = val
		m.metrics.overwrites++
		return prev, true, nil
	}

	lvl := m.drawLevel(key)
	n, err := m.nodes.alloc(lvl)
	if err != nil {
		m.metrics.allocFailures++
		m.logger.Warn("node allocation failed", "level", lvl, "len", m.length, "err", err)
		return prev, false, fmt.Errorf("inserting key %v: %w", key, err)
	}

	if lvl > m.level {
		for i := m.level; i < lvl; i++ {
			m.update[i] = m.head
		}
		m.logger.Debug("level grew", "from", m.level, "to", lvl)
		m.level = lvl
		m.metrics.levelGrows++
	}

	n.key = key
	n.val = val
	for i := 0; i < lvl; i++ {
		n.forward[i] = m.update[i].forward[i]
		m.update[i].forward[i] = n
	}

	m.length++
	m.metrics.inserts++
	return prev, false, nil
}

// Remove deletes key and returns the value it held. The boolean is false if
// key was absent, in which case the map is unchanged.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	x, found := m.search(key)
	if !found {
		m.metrics.misses++
		var zero V
		return zero, false
	}
	_, v := m.unlink(x)
	m.metrics.removals++
	return v, true
}

// unlink splices x out of every level using the predecessors in m.update,
// releases it and returns its key and value.
func (m *Map[K, V]) unlink(x *node[K, V]) (K, V) {
	for i := 0; i < x.level(); i++ {
		if m.update[i].forward[i] == x {
			m.update[i].forward[i] = x.forward[i]
		}
	}
	key, val := x.key, x.val
	m.nodes.release(x)
	m.length--
	m.shrinkLevel()
	return key, val
}

// shrinkLevel lowers the current level while the topmost head slot is empty.
func (m *Map[K, V]) shrinkLevel() {
	from := m.level
	for m.level > 0 && m.head.forward[m.level-1] == nil {
		m.level--
	}
	if m.level != from {
		m.logger.Debug("level shrank", "from", from, "to", m.level)
		m.metrics.levelShrinks++
	}
}

// Min returns the smallest entry. The boolean is false if the map is empty.
func (m *Map[K, V]) Min() (K, V, bool) {
	first := m.head.next()
	if first == nil {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	return first.key, first.val, true
}

// Max returns the largest entry. The boolean is false if the map is empty.
func (m *Map[K, V]) Max() (K, V, bool) {
	x := m.head
	for i := m.level - 1; i >= 0; i-- {
		for x.forward[i] != nil {
			x = x.forward[i]
		}
	}
	if x == m.head {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	return x.key, x.val, true
}

// PopMin removes and returns the smallest entry.
func (m *Map[K, V]) PopMin() (K, V, bool) {
	first := m.head.next()
	if first == nil {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	// The first node is first at every level it is linked at.
	for i := 0; i < first.level(); i++ {
		m.update[i] = m.head
	}
	k, v := m.unlink(first)
	m.metrics.pops++
	return k, v, true
}

// PopMax removes and returns the largest entry.
func (m *Map[K, V]) PopMax() (K, V, bool) {
	last := m.searchLast()
	if last == nil {
		var zeroK K
		var zeroV V
		return zeroK, zeroV, false
	}
	k, v := m.unlink(last)
	m.metrics.pops++
	return k, v, true
}

// searchLast fills m.update with, at each level, the node whose successor at
// that level is the last node of the level. At level 0 that successor is the
// maximum, which is returned.
func (m *Map[K, V]) searchLast() *node[K, V] {
	x := m.head
	for i := m.level - 1; i >= 0; i-- {
		for x.forward[i] != nil && x.forward[i].forward[i] != nil {
			x = x.forward[i]
		}
		m.update[i] = x
	}
	if m.level == 0 {
		return nil
	}
	return x.forward[0]
}

// Clear removes every entry and releases all nodes. The head sentinel is kept.
func (m *Map[K, V]) Clear() {
	for x := m.head.next(); x != nil; {
		next := x.next()
		m.nodes.release(x)
		x = next
	}
	clear(m.head.forward)
	m.length = 0
	m.level = 0
}

// Close releases every node and the head sentinel. Values are not touched.
// After Close the map reads as empty and Insert returns ErrClosed. Close is
// idempotent.
func (m *Map[K, V]) Close() error {
	if m.closed {
		return nil
	}
	n := m.length
	m.Clear()
	m.nodes.release(m.head)
	// A detached single-slot sentinel keeps read paths valid.
	m.head = &node[K, V]{forward: make([]*node[K, V], 1)}
	m.closed = true
	m.logger.Debug("map closed", "released", n)
	return nil
}

// String renders the map in key order, e.g. skipdict{1:a, 2:b}.
func (m *Map[K, V]) String() string {
	var sb strings.Builder
	sb.WriteString("skipdict{")
	for x := m.head.next(); x != nil; x = x.next() {
		if x != m.head.next() {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v:%v", x.key, x.val)
	}
	sb.WriteString("}")
	return sb.String()
}
