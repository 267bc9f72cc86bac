package skipdict

import (
	"cmp"

	"golang.org/x/exp/constraints"
)

// Key is the set of key types a Map accepts: fixed-width integers. Signedness
// is carried by the type parameter and honoured by the comparator.
type Key interface {
	constraints.Integer
}

// Compare is a total order over keys. It returns a negative number when a
// sorts before b, zero when they are equal, and a positive number otherwise.
type Compare[K Key] func(a, b K) int

// Less reports whether a sorts before b.
type Less[K Key] func(a, b K) bool

// Ascending orders keys by their numeric value.
func Ascending[K Key]() Compare[K] {
	return cmp.Compare[K]
}

// Descending orders keys from largest to smallest.
func Descending[K Key]() Compare[K] {
	return func(a, b K) int {
		return cmp.Compare(b, a)
	}
}

// FromLess builds a Compare out of a strict weak ordering.
func FromLess[K Key](less Less[K]) Compare[K] {
	return func(a, b K) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		default:
			return 0
		}
	}
}

// WithContext binds an opaque context value to a comparator. The value is
// passed unchanged to fn on every comparison.
func WithContext[K Key, C any](ctx C, fn func(a, b K, ctx C) int) Compare[K] {
	return func(a, b K) int {
		return fn(a, b, ctx)
	}
}
