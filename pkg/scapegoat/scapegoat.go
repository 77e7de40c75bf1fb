package scapegoat

import (
	"cmp"
	"errors"
	"math"
)

// Sentinel errors returned by the constructors. Every other operation is
// total: absent and already-present keys are ordinary boolean outcomes.
var (
	ErrAlphaRange = errors.New("scapegoat: alpha must be in the open interval (0.5, 1)")
	ErrNilLess    = errors.New("scapegoat: less function must not be nil")
	ErrNilArena   = errors.New("scapegoat: arena must not be nil")
)

// Balance parameter bounds, both exclusive. Galperin and Rivest require
// 1/2 < alpha < 1 for the amortized bounds to hold.
const (
	minAlpha = 0.5
	maxAlpha = 1.0
)

// insertPathHint sizes the ancestor path buffer for a typical descent.
const insertPathHint = 32

// LessFunc reports whether a orders strictly before b. It must be a
// strict total order over T: exactly one of less(a, b), less(b, a) or
// equality holds for every pair. Keys for which neither ordering holds
// are the same key.
type LessFunc[T any] func(a, b T) bool

// Stats counts structural events over a tree's lifetime.
type Stats struct {
	// Rebuilds is the total number of subtree rebuilds, root-rooted
	// ones included.
	Rebuilds uint64

	// RootRebuilds counts rebuilds of the whole tree: insertions whose
	// scapegoat was the root, and every removal-triggered rebuild.
	RootRebuilds uint64

	// Hibernations counts completed Hibernate calls.
	Hibernations uint64
}

// Tree is a scapegoat tree holding at most one node per distinct key.
//
// The zero value is not usable; construct trees with New, NewFunc, NewIn
// or NewFuncIn. A Tree is not safe for concurrent use.
type Tree[T any] struct {
	arena *Arena[T]
	less  LessFunc[T]

	root    uint32
	size    int
	maxSize int

	alpha       float64
	invAlphaLog float64 // log(1/alpha), fixed at construction

	// Alternates the successor/predecessor choice across two-child
	// removals so repeated deletions do not skew the tree to one side.
	replaceWithSucc bool

	// Sorted key block while the tree is dormant, nil otherwise. packed
	// holds its compressed form for uint32 trees, packedLen the key
	// count inside it.
	dormant   []T
	packed    []byte
	packedLen int

	stats Stats
}

// New creates a tree ordered by the natural ordering of T, with a
// private arena.
//
// Alpha tunes the balance/rebuild trade-off and must lie in the open
// interval (0.5, 1); anything else is rejected with ErrAlphaRange rather
// than clamped, since clamping would silently change the amortized cost
// the caller asked for.
func New[T cmp.Ordered](alpha float64) (*Tree[T], error) {
	return NewFuncIn(alpha, NewArena[T](), cmp.Less[T])
}

// NewFunc creates a tree ordered by less, with a private arena.
func NewFunc[T any](alpha float64, less LessFunc[T]) (*Tree[T], error) {
	return NewFuncIn(alpha, NewArena[T](), less)
}

// NewIn creates a tree ordered by the natural ordering of T, allocating
// its nodes from arena.
func NewIn[T cmp.Ordered](alpha float64, arena *Arena[T]) (*Tree[T], error) {
	return NewFuncIn(alpha, arena, cmp.Less[T])
}

// NewFuncIn creates a tree ordered by less, allocating its nodes from
// arena. Several trees may share one arena.
func NewFuncIn[T any](alpha float64, arena *Arena[T], less LessFunc[T]) (*Tree[T], error) {
	if alpha <= minAlpha || alpha >= maxAlpha {
		return nil, ErrAlphaRange
	}

	if less == nil {
		return nil, ErrNilLess
	}

	if arena == nil {
		return nil, ErrNilArena
	}

	return &Tree[T]{
		arena:           arena,
		less:            less,
		root:            nilNode,
		size:            0,
		maxSize:         0,
		alpha:           alpha,
		invAlphaLog:     math.Log(1 / alpha),
		replaceWithSucc: true,
		dormant:         nil,
		packed:          nil,
		packedLen:       0,
		stats:           Stats{},
	}, nil
}

func (t *Tree[T]) storage() []node[T] {
	return t.arena.storage
}

// Arena returns the arena the tree allocates from.
func (t *Tree[T]) Arena() *Arena[T] {
	return t.arena
}

// Len returns the number of keys in the tree. It is valid in the active,
// dormant and packed states.
func (t *Tree[T]) Len() int {
	switch {
	case t.packed != nil:
		return t.packedLen
	case t.dormant != nil:
		return len(t.dormant)
	default:
		return t.size
	}
}

// Alpha returns the balance parameter the tree was constructed with.
func (t *Tree[T]) Alpha() float64 {
	return t.alpha
}

// Stats returns the structural event counters.
func (t *Tree[T]) Stats() Stats {
	return t.stats
}

// Search reports whether key is present. Amortized O(log n).
func (t *Tree[T]) Search(key T) bool {
	t.mustBeActive()

	storage := t.storage()
	curr := t.root

	for curr != nilNode {
		nd := &storage[curr]

		switch {
		case t.less(key, nd.key):
			curr = nd.left
		case t.less(nd.key, key):
			curr = nd.right
		default:
			return true
		}
	}

	return false
}

// Insert adds key to the set and reports whether it was absent. An
// already-present key leaves the tree unchanged. Amortized O(log n);
// insertions that trigger a rebuild pay O(subtree) once.
func (t *Tree[T]) Insert(key T) bool {
	t.mustBeActive()

	// Descend to the insertion point recording the root-to-parent
	// ancestor path, deepest last. The sentinel stands for "no parent"
	// so the path is never empty.
	path := make([]uint32, 0, insertPathHint)
	path = append(path, nilNode)

	storage := t.storage()
	curr := t.root

	for curr != nilNode {
		nd := &storage[curr]

		switch {
		case t.less(key, nd.key):
			path = append(path, curr)
			curr = nd.left
		case t.less(nd.key, key):
			path = append(path, curr)
			curr = nd.right
		default:
			return false
		}
	}

	leaf := t.arena.malloc()

	// malloc may have grown the backing array.
	storage = t.storage()
	storage[leaf].key = key

	parent := path[len(path)-1]

	switch {
	case parent == nilNode:
		t.root = leaf
	case t.less(key, storage[parent].key):
		storage[parent].left = leaf
	default:
		storage[parent].right = leaf
	}

	t.size++
	if t.size > t.maxSize {
		t.maxSize = t.size
	}

	insertionHeight := len(path) - 1
	if insertionHeight >= 1 && insertionHeight > t.alphaDeepHeight(t.size) {
		sg, sgParent, sgSize := t.findScapegoat(path)
		t.rebuild(sg, sgParent, sgSize)
	}

	return true
}

// Remove deletes key from the set and reports whether it was present.
// When the removal leaves size at or below alpha*maxSize, the whole tree
// is rebuilt weight-balanced and maxSize resets to size.
func (t *Tree[T]) Remove(key T) bool {
	t.mustBeActive()

	storage := t.storage()
	prev := nilNode
	curr := t.root

	for curr != nilNode {
		nd := &storage[curr]

		if t.less(key, nd.key) {
			prev = curr
			curr = nd.left
		} else if t.less(nd.key, key) {
			prev = curr
			curr = nd.right
		} else {
			break
		}
	}

	if curr == nilNode {
		return false
	}

	if storage[curr].left != nilNode && storage[curr].right != nilNode {
		t.spliceTwoChildren(curr)
	} else {
		t.spliceNode(curr, prev)
	}

	t.size--

	if float64(t.size) <= t.alpha*float64(t.maxSize) {
		t.rebuild(t.root, nilNode, t.size)
	}

	return true
}

// spliceTwoChildren removes the key held by nodeIdx by overwriting it
// with the key of its in-order successor or predecessor and splicing
// that node, which has at most one child, out of its own parent slot.
// The successor/predecessor choice alternates across calls.
func (t *Tree[T]) spliceTwoChildren(nodeIdx uint32) {
	storage := t.storage()
	prev := nodeIdx

	var curr uint32

	if t.replaceWithSucc {
		// The in-order successor: minimum key of the right subtree.
		curr = storage[nodeIdx].right

		if storage[curr].left == nilNode {
			storage[nodeIdx].right = storage[curr].right
		} else {
			for storage[curr].left != nilNode {
				prev = curr
				curr = storage[curr].left
			}

			storage[prev].left = storage[curr].right
		}
	} else {
		// The in-order predecessor: maximum key of the left subtree.
		curr = storage[nodeIdx].left

		if storage[curr].right == nilNode {
			storage[nodeIdx].left = storage[curr].left
		} else {
			for storage[curr].right != nilNode {
				prev = curr
				curr = storage[curr].right
			}

			storage[prev].right = storage[curr].left
		}
	}

	// Adopting the spliced key preserves the BST ordering around nodeIdx.
	storage[nodeIdx].key = storage[curr].key
	t.arena.free(curr)

	t.replaceWithSucc = !t.replaceWithSucc
}

// spliceNode replaces nodeIdx, which has at most one child, with that
// child (or nothing) in parentIdx's slot and frees it.
func (t *Tree[T]) spliceNode(nodeIdx, parentIdx uint32) {
	storage := t.storage()

	child := storage[nodeIdx].left
	if child == nilNode {
		child = storage[nodeIdx].right
	}

	switch {
	case parentIdx == nilNode:
		t.root = child
	case storage[parentIdx].left == nodeIdx:
		storage[parentIdx].left = child
	default:
		storage[parentIdx].right = child
	}

	t.arena.free(nodeIdx)
}

// Clear releases every node back to the arena and resets the tree to
// empty. The rotate-and-consume loop runs in O(1) auxiliary space and
// never recurses, so even a degenerate chain tears down safely.
func (t *Tree[T]) Clear() {
	t.mustBeActive()

	storage := t.storage()

	for t.root != nilNode {
		left := storage[t.root].left

		if left == nilNode {
			right := storage[t.root].right
			t.arena.free(t.root)
			t.root = right

			continue
		}

		// Rotate the left child above the root and retry.
		storage[t.root].left = storage[left].right
		storage[left].right = t.root
		t.root = left
	}

	t.size = 0
	t.maxSize = 0
}

func (t *Tree[T]) mustBeActive() {
	if t.dormant != nil || t.packed != nil {
		panic("hibernated trees cannot be used before Boot")
	}
}

func doAssert(condition bool) {
	if !condition {
		panic("scapegoat internal assertion failed")
	}
}
