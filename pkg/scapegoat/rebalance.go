package scapegoat

import "math"

// alphaDeepHeight returns floor(log(n) / log(1/alpha)), the maximum
// height a subtree of n nodes may have while still counting as loosely
// alpha-height-balanced.
func (t *Tree[T]) alphaDeepHeight(n int) int {
	if n < 1 {
		return -1
	}

	return int(math.Floor(math.Log(float64(n)) / t.invAlphaLog))
}

// subtreeSize counts the nodes under idx by full traversal. The tree
// stores no per-node sizes, so the scapegoat search recomputes them; the
// O(size) cost is amortized against the rebuild interval.
func (t *Tree[T]) subtreeSize(idx uint32) int {
	if idx == nilNode {
		return 0
	}

	nd := &t.storage()[idx]

	return 1 + t.subtreeSize(nd.left) + t.subtreeSize(nd.right)
}

// findScapegoat walks the insertion path bottom-up until it reaches the
// first ancestor deeper than the alpha-deep height of its own subtree.
// The triggering condition in Insert guarantees such an ancestor exists;
// the whole tree is the final fallback.
//
// path holds the ancestor chain root-to-parent, deepest last, with the
// nil sentinel first. Returns the scapegoat, its parent (nilNode when
// the scapegoat is the root) and the scapegoat's exact subtree size.
func (t *Tree[T]) findScapegoat(path []uint32) (sg, parent uint32, size int) {
	top := len(path) - 1
	curr := path[top]
	parent = path[top-1]

	// The inserted node is index 0 on the path; its parent is index 1.
	currSize := t.subtreeSize(curr)
	currIndex := 1

	for parent != nilNode {
		if currIndex > t.alphaDeepHeight(currSize) {
			break
		}

		// Fold in the rest of parent's subtree: parent itself plus the
		// child on the other side of curr.
		storage := t.storage()
		if storage[parent].left == curr {
			currSize += 1 + t.subtreeSize(storage[parent].right)
		} else {
			currSize += 1 + t.subtreeSize(storage[parent].left)
		}

		curr = parent
		top--
		parent = path[top-1]
		currIndex++
	}

	return curr, parent, currSize
}

// flatten converts the subtree rooted at idx into a chain of right links
// ordered by in-order traversal, ending at tail. Left links go stale
// during flattening; buildTree rewrites every one of them. Recursion
// depth is the subtree height.
func (t *Tree[T]) flatten(idx, tail uint32) uint32 {
	if idx == nilNode {
		return tail
	}

	storage := t.storage()
	left := storage[idx].left
	storage[idx].right = t.flatten(storage[idx].right, tail)

	return t.flatten(left, idx)
}

// buildTree consumes n chain nodes starting at head and rewires them into
// a weight-balanced subtree: the first ceil((n-1)/2) nodes form the left
// subtree, the middle node becomes the root, the remaining floor((n-1)/2)
// the right subtree. Children sizes differ by at most one at every split.
// Returns the (n+1)th chain node, whose left link is set to the built
// subtree's root. Recursion depth is O(log n).
func (t *Tree[T]) buildTree(n int, head uint32) uint32 {
	if n == 0 {
		t.storage()[head].left = nilNode

		return head
	}

	first := t.buildTree(n/2, head)
	second := t.buildTree((n-1)/2, t.storage()[first].right)

	storage := t.storage()
	storage[first].right = storage[second].left
	storage[second].left = first

	return second
}

// rebuild flattens the subtree rooted at sg into an ordered chain and
// reconstructs it weight-balanced, then rewires the result into parent's
// former child slot. When sg was the whole tree the new root is installed
// and maxSize resets to size.
//
// The reserved slot 0 terminates the chain the same way the textbook
// formulation uses a stack dummy; buildTree parks the new subtree root in
// its left link, which is cleared again before returning.
func (t *Tree[T]) rebuild(sg, parent uint32, n int) {
	head := t.flatten(sg, nilNode)
	top := t.buildTree(n, head)
	doAssert(top == nilNode)

	storage := t.storage()
	newRoot := storage[nilNode].left
	storage[nilNode].left = nilNode

	switch {
	case parent == nilNode:
		t.root = newRoot
		t.maxSize = t.size
		t.stats.RootRebuilds++
	case storage[parent].left == sg:
		storage[parent].left = newRoot
	default:
		storage[parent].right = newRoot
	}

	t.stats.Rebuilds++
}
