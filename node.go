package skipdict

// node holds a key/value pair and one forward pointer per level it is linked at.
// len(forward) is the node's level and never changes after creation.
type node[K, V any] struct {
	key     K
	val     V
	forward []*node[K, V]
}

const (
	// DefaultMaxLevel is the height of the head sentinel when no option overrides it.
	DefaultMaxLevel = 32

	// MaxLevelLimit bounds WithMaxLevel.
	MaxLevelLimit = 64

	// P is the default promotion probability.
	P = 1.0 / 2.0
)

func (n *node[K, V]) level() int {
	return len(n.forward)
}

// next returns the level-0 successor.
func (n *node[K, V]) next() *node[K, V] {
	return n.forward[0]
}

// reset drops the node's references so a released node does not keep its
// neighbours or its value reachable.
func (n *node[K, V]) reset() {
	var zeroK K
	var zeroV V
	n.key = zeroK
	n.val = zeroV
	clear(n.forward)
}
