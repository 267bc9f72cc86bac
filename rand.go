package skipdict

import (
	"encoding/binary"
	"math/bits"
	randv2 "math/rand/v2"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultSeed = uint64(0xdeadbeefcafebabe)

const float64Unit = 1.0 / (1 << 53)

func newRandomSeed() uint64 {
	seed := uint64(time.Now().UnixNano())
	if seed == 0 {
		seed = defaultSeed
	}
	return seed
}

// RNG is a xorshift64* generator. It satisfies math/rand/v2.Source and is not
// safe for concurrent use.
type RNG struct {
	state uint64
}

var _ randv2.Source = (*RNG)(nil)

// NewRNG returns a generator seeded with seed. A zero seed is replaced by a
// fixed non-zero constant since xorshift never leaves the zero state.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = defaultSeed
	}
	return &RNG{state: seed}
}

// Uint64 returns the next pseudo-random value.
func (r *RNG) Uint64() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	if x == 0 {
		x = defaultSeed
	}
	r.state = x
	return x * 2685821657736338717
}

// LevelSource draws the level of a new node. Implementations must return a
// value in [1, maxLevel].
type LevelSource interface {
	Level(maxLevel int) int
}

// GeometricLevels draws levels from a geometric distribution with success
// probability p, truncated at the requested maximum.
type GeometricLevels struct {
	src randv2.Source
	p   float64
}

// NewGeometricLevels returns a GeometricLevels reading from src. A nil src
// falls back to a time-seeded RNG.
func NewGeometricLevels(src randv2.Source, p float64) *GeometricLevels {
	if src == nil {
		src = NewRNG(newRandomSeed())
	}
	return &GeometricLevels{src: src, p: p}
}

func (g *GeometricLevels) Level(maxLevel int) int {
	return geometricLevel(g.src.Uint64, g.p, maxLevel)
}

func geometricLevel(next func() uint64, p float64, maxLevel int) int {
	lvl := 1
	if maxLevel <= 1 {
		return lvl
	}

	if p == 0.5 {
		// Each trailing zero bit is an independent coin flip.
		lvl += bits.TrailingZeros64(next())
		if lvl > maxLevel {
			lvl = maxLevel
		}
		return lvl
	}

	for lvl < maxLevel {
		if float64(next()>>11)*float64Unit >= p {
			break
		}
		lvl++
	}
	return lvl
}

// FixedLevels replays a fixed sequence of levels. Once the sequence is
// exhausted the last entry repeats. Out-of-range entries are clamped.
type FixedLevels struct {
	levels []int
	idx    int
}

// NewFixedLevels returns a FixedLevels replaying levels in order.
func NewFixedLevels(levels ...int) *FixedLevels {
	return &FixedLevels{levels: levels}
}

func (f *FixedLevels) Level(maxLevel int) int {
	lvl := 1
	switch {
	case len(f.levels) == 0:
	case f.idx < len(f.levels):
		lvl = f.levels[f.idx]
		f.idx++
	default:
		lvl = f.levels[len(f.levels)-1]
	}
	return min(max(lvl, 1), maxLevel)
}

// hashLevel derives a level from the key alone, so that the same key set
// always produces the same shape regardless of insertion order.
func hashLevel[K Key](key K, p float64, maxLevel int) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key))
	h := xxhash.Sum64(buf[:])
	return geometricLevel(func() uint64 {
		out := h
		// Re-mix for the slow path so successive draws differ.
		h = xxhash.Sum64(binary.LittleEndian.AppendUint64(buf[:0], h))
		return out
	}, p, maxLevel)
}
