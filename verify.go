package skipdict

import "fmt"

// Verify walks every level and checks the structural invariants: level 0
// holds exactly Len nodes in strictly ascending order, each higher level is
// an ordered subsequence of the level below containing every node tall
// enough to be linked there, and no head slot above the current level is in
// use. A violation is a bug, reported as an error wrapping ErrCorrupt.
func (m *Map[K, V]) Verify() error {
	pos := make(map[*node[K, V]]int, m.length)
	tall := make([]int, m.level)

	var prev *node[K, V]
	for x := m.head.next(); x != nil; x = x.next() {
		if _, seen := pos[x]; seen {
			return fmt.Errorf("%w: cycle at level 0 through key %v", ErrCorrupt, x.key)
		}
		if prev != nil && m.compare(prev.key, x.key) >= 0 {
			return fmt.Errorf("%w: key %v follows %v at level 0", ErrCorrupt, x.key, prev.key)
		}
		lvl := x.level()
		if lvl < 1 || lvl > m.level {
			return fmt.Errorf("%w: key %v has level %d, current level is %d", ErrCorrupt, x.key, lvl, m.level)
		}
		for i := 0; i < lvl; i++ {
			tall[i]++
		}
		pos[x] = len(pos)
		prev = x
	}
	if len(pos) != m.length {
		return fmt.Errorf("%w: %d nodes reachable, length is %d", ErrCorrupt, len(pos), m.length)
	}

	for i := 1; i < m.level; i++ {
		count, last := 0, -1
		for x := m.head.forward[i]; x != nil; x = x.forward[i] {
			p, ok := pos[x]
			if !ok {
				return fmt.Errorf("%w: node at level %d missing from level 0", ErrCorrupt, i)
			}
			if p <= last {
				return fmt.Errorf("%w: key %v out of order at level %d", ErrCorrupt, x.key, i)
			}
			last = p
			count++
		}
		if count != tall[i] {
			return fmt.Errorf("%w: level %d links %d nodes, %d are tall enough", ErrCorrupt, i, count, tall[i])
		}
	}

	if m.level > 0 && m.head.forward[m.level-1] == nil {
		return fmt.Errorf("%w: top level %d is empty", ErrCorrupt, m.level)
	}
	for i := m.level; i < len(m.head.forward); i++ {
		if m.head.forward[i] != nil {
			return fmt.Errorf("%w: head slot %d above current level %d in use", ErrCorrupt, i, m.level)
		}
	}

	if !m.closed {
		if live := m.nodes.live(); live != m.length+1 {
			return fmt.Errorf("%w: %d nodes allocated for %d entries", ErrCorrupt, live, m.length)
		}
	}
	return nil
}
