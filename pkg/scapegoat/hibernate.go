package scapegoat

import (
	"fmt"

	"github.com/Sumatoshi-tech/scapegoat/internal/u32pack"
)

// Hibernate flattens the tree into its sorted key sequence and releases
// every node back to the arena, leaving the tree dormant. A scapegoat
// tree is fully described by that sequence, so dormancy drops all
// structural overhead: links, gaps and slack capacity of a private
// arena become collectable.
//
// A dormant tree answers only Len, Alpha and Stats; every other
// operation panics until Boot. Hibernating a dormant tree panics.
func (t *Tree[T]) Hibernate() {
	if t.dormant != nil || t.packed != nil {
		panic("cannot hibernate an already hibernated tree")
	}

	block := make([]T, 0, t.size)
	block = t.appendInOrder(t.root, block)

	t.Clear()
	t.arena.resetIfIdle()

	t.dormant = block
	t.stats.Hibernations++
}

// Boot restores a dormant tree to the active state. The rebuilt tree is
// perfectly weight-balanced, as after a root rebuild, and maxSize resets
// to size. Booting an active tree is a no-op; booting a packed tree
// panics until Unpack has run.
func (t *Tree[T]) Boot() {
	if t.packed != nil {
		panic("cannot boot a packed tree before Unpack")
	}

	if t.dormant == nil {
		// Not hibernated.
		return
	}

	keys := t.dormant
	n := len(keys)

	if n == 0 {
		t.dormant = nil

		return
	}

	// Allocate every node first: malloc may move the backing array.
	chain := make([]uint32, n)
	for i := range chain {
		chain[i] = t.arena.malloc()
	}

	storage := t.storage()

	for i, idx := range chain {
		storage[idx].key = keys[i]

		if i+1 < n {
			storage[idx].right = chain[i+1]
		}
	}

	top := t.buildTree(n, chain[0])
	doAssert(top == nilNode)

	t.root = storage[nilNode].left
	storage[nilNode].left = nilNode

	t.size = n
	t.maxSize = n
	t.dormant = nil
}

func (t *Tree[T]) appendInOrder(idx uint32, dst []T) []T {
	if idx == nilNode {
		return dst
	}

	nd := t.storage()[idx]
	dst = t.appendInOrder(nd.left, dst)
	dst = append(dst, nd.key)

	return t.appendInOrder(nd.right, dst)
}

// Pack compresses the dormant key block of a hibernated uint32 tree:
// the sorted block is delta-encoded, turning it into small repetitive
// values, and LZ4 block-compressed. Pack requires the dormant state and
// panics otherwise. Packing an already packed tree is a no-op.
//
// Pack and Unpack are free functions rather than methods because the
// codec is specific to the uint32 instantiation.
func Pack(t *Tree[uint32]) error {
	if t.packed != nil {
		return nil
	}

	if t.dormant == nil {
		panic("packing requires the hibernated state")
	}

	deltas := make([]uint32, len(t.dormant))
	copy(deltas, t.dormant)
	u32pack.DeltaEncode(deltas)

	buf, err := u32pack.Compress(deltas)
	if err != nil {
		return fmt.Errorf("pack dormant block: %w", err)
	}

	t.packedLen = len(t.dormant)
	t.packed = buf
	t.dormant = nil

	return nil
}

// Unpack restores the dormant key block of a packed uint32 tree, leaving
// the tree dormant and ready to Boot. Unpacking a tree that is not
// packed is a no-op.
func Unpack(t *Tree[uint32]) error {
	if t.packed == nil {
		return nil
	}

	block := make([]uint32, t.packedLen)

	err := u32pack.Decompress(t.packed, block)
	if err != nil {
		return fmt.Errorf("unpack dormant block: %w", err)
	}

	u32pack.DeltaDecode(block)

	t.dormant = block
	t.packed = nil
	t.packedLen = 0

	return nil
}
