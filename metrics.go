package skipdict

// counters are the operation tallies behind Stats. The map is single
// threaded, so plain integers suffice.
type counters struct {
	inserts       uint64
	overwrites    uint64
	removals      uint64
	pops          uint64
	misses        uint64
	levelGrows    uint64
	levelShrinks  uint64
	allocFailures uint64
}

// Stats is a point-in-time snapshot of a Map's shape and operation counts.
type Stats struct {
	Len      int
	Level    int
	MaxLevel int
	// Nodes counts live allocations, head sentinel included.
	Nodes int

	Inserts       uint64
	Overwrites    uint64
	Removals      uint64
	Pops          uint64
	Misses        uint64
	LevelGrows    uint64
	LevelShrinks  uint64
	AllocFailures uint64
}

// StatsSource is anything that can report Stats.
type StatsSource interface {
	Stats() Stats
}

// Stats returns the current counters. It runs in constant time.
func (m *Map[K, V]) Stats() Stats {
	return Stats{
		Len:           m.length,
		Level:         m.level,
		MaxLevel:      m.maxLevel,
		Nodes:         m.nodes.live(),
		Inserts:       m.metrics.inserts,
		Overwrites:    m.metrics.overwrites,
		Removals:      m.metrics.removals,
		Pops:          m.metrics.pops,
		Misses:        m.metrics.misses,
		LevelGrows:    m.metrics.levelGrows,
		LevelShrinks:  m.metrics.levelShrinks,
		AllocFailures: m.metrics.allocFailures,
	}
}

// Levels returns how many nodes sit at each level: Levels()[i] is the number
// of nodes whose level is i+1. The slice has one entry per current level.
func (m *Map[K, V]) Levels() []int {
	hist := make([]int, m.level)
	for x := m.head.next(); x != nil; x = x.next() {
		hist[x.level()-1]++
	}
	return hist
}
