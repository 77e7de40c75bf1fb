package scapegoat

import (
	"math"
	"unsafe"

	"github.com/Sumatoshi-tech/scapegoat/pkg/safeconv"
)

// nilNode is the reserved arena index standing for "no child". The zero
// value of a node therefore links to nothing on either side.
const nilNode uint32 = 0

// node is one tree slot inside an Arena.
type node[T any] struct {
	key   T
	left  uint32
	right uint32
}

// Arena is the index-addressed backing store for tree nodes. Several
// trees may allocate from one arena; each node belongs to exactly one
// tree. Slot 0 is reserved as the nil sentinel.
//
// An Arena is not safe for concurrent use.
type Arena[T any] struct {
	storage []node[T]
	gaps    map[uint32]bool
}

// NewArena creates an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		storage: []node[T]{},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the number of slots the arena holds, including freed gaps
// and the reserved slot 0.
func (a *Arena[T]) Size() int {
	return len(a.storage)
}

// Used returns the number of occupied slots, the reserved slot included
// once anything has been allocated.
func (a *Arena[T]) Used() int {
	return len(a.storage) - len(a.gaps)
}

// Footprint returns the memory held by the arena's node storage in bytes,
// gaps included.
func (a *Arena[T]) Footprint() uint64 {
	var n node[T]

	return uint64(cap(a.storage)) * uint64(unsafe.Sizeof(n))
}

// resetIfIdle drops the backing storage once only the sentinel slot is
// occupied, making the arrays collectable. A later malloc re-reserves
// the sentinel. Arenas shared with a tree that still holds nodes are
// left alone.
func (a *Arena[T]) resetIfIdle() {
	if a.Used() != 1 {
		return
	}

	a.storage = []node[T]{}
	a.gaps = map[uint32]bool{}
}

func (a *Arena[T]) malloc() uint32 {
	if len(a.gaps) > 0 {
		var idx uint32

		for idx = range a.gaps {
			break
		}

		delete(a.gaps, idx)

		return idx
	}

	slotLen := len(a.storage)
	if slotLen == 0 {
		// Zero is reserved.
		a.storage = append(a.storage, node[T]{})
		slotLen = 1
	}

	if slotLen == math.MaxUint32 {
		panic("the scapegoat arena has reached the maximum size addressable by uint32 indices")
	}

	a.storage = append(a.storage, node[T]{})

	return safeconv.MustIntToUint32(slotLen)
}

func (a *Arena[T]) free(nodeIdx uint32) {
	if nodeIdx == nilNode {
		panic("node #0 is special and cannot be deallocated")
	}

	_, exists := a.gaps[nodeIdx]
	doAssert(!exists)

	a.storage[nodeIdx] = node[T]{}
	a.gaps[nodeIdx] = true
}
