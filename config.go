package skipdict

import (
	"fmt"
	"log/slog"
	randv2 "math/rand/v2"
)

// Config holds the construction parameters of a Map.
type Config struct {
	// maxLevel is the height of the head sentinel and the cap on node levels.
	maxLevel int

	// p is the probability of promoting a node one level up.
	p float64

	seed    uint64
	hasSeed bool
	src     randv2.Source
	levels  LevelSource

	// keyHashed derives levels from the key instead of a random source.
	keyHashed bool

	pool bool

	// budget caps the number of live nodes, head included. Negative means
	// unlimited.
	budget int

	logger *slog.Logger
}

// Option configures a Map.
type Option func(*Config)

// NewConfig returns a Config with default values.
func NewConfig() Config {
	return Config{
		maxLevel: DefaultMaxLevel,
		p:        P,
		budget:   -1,
	}
}

// WithMaxLevel sets the height of the head sentinel.
func WithMaxLevel(maxLevel int) Option {
	return func(c *Config) { c.maxLevel = maxLevel }
}

// WithP sets the probability for level promotion.
func WithP(p float64) Option {
	return func(c *Config) { c.p = p }
}

// WithSeed seeds the default level generator.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.seed = seed
		c.hasSeed = true
	}
}

// WithRandSource makes the default level generator read from src.
func WithRandSource(src randv2.Source) Option {
	return func(c *Config) { c.src = src }
}

// WithLevelSource replaces the level generator entirely. It takes
// precedence over WithSeed, WithRandSource and WithKeyHashedLevels.
func WithLevelSource(levels LevelSource) Option {
	return func(c *Config) { c.levels = levels }
}

// WithKeyHashedLevels derives each node's level from a hash of its key.
func WithKeyHashedLevels() Option {
	return func(c *Config) { c.keyHashed = true }
}

// WithNodePool recycles released nodes through a sync.Pool.
func WithNodePool() Option {
	return func(c *Config) { c.pool = true }
}

// WithNodeBudget limits the number of nodes, head sentinel included, that
// may be live at once. Allocations beyond the budget fail with
// ErrAllocationFailure.
func WithNodeBudget(n int) Option {
	return func(c *Config) { c.budget = n }
}

// WithLogger sets the logger used for structural events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

func (c *Config) validate() error {
	if c.maxLevel < 1 || c.maxLevel > MaxLevelLimit {
		return fmt.Errorf("%w: max level %d not in [1, %d]", ErrInvalidConfig, c.maxLevel, MaxLevelLimit)
	}
	if !(c.p > 0 && c.p < 1) {
		return fmt.Errorf("%w: probability %v not in (0, 1)", ErrInvalidConfig, c.p)
	}
	return nil
}

func (c *Config) levelSource() LevelSource {
	if c.levels != nil {
		return c.levels
	}
	src := c.src
	if src == nil {
		seed := c.seed
		if !c.hasSeed {
			seed = newRandomSeed()
		}
		src = NewRNG(seed)
	}
	return NewGeometricLevels(src, c.p)
}
