package scapegoat

// verification carries the post-order facts about one subtree. balanced
// is the loose height bound of that subtree alone; only the root-level
// value enters the verdict. Deletions may leave an inner subtree deeper
// than its own bound without breaking the tree-wide guarantee.
type verification struct {
	balanced bool
	isBST    bool
	size     int
	height   int // -1 for the empty subtree
}

// Verify reports whether the tree satisfies all of its structural
// invariants: BST ordering under the tree's less function, loose
// alpha-height balance of the whole tree, and size >= alpha*maxSize.
//
// Verify is an external oracle for tests and debugging; no operation
// calls it internally. Single O(n) post-order pass; sizes and heights
// are carried up rather than recounted.
func (t *Tree[T]) Verify() bool {
	t.mustBeActive()

	res := t.verifySubtree(t.root)

	return float64(t.size) >= t.alpha*float64(t.maxSize) && res.balanced && res.isBST
}

func (t *Tree[T]) verifySubtree(idx uint32) verification {
	if idx == nilNode {
		return verification{balanced: true, isBST: true, size: 0, height: -1}
	}

	nd := t.storage()[idx]
	left := t.verifySubtree(nd.left)
	right := t.verifySubtree(nd.right)

	storage := t.storage()
	isBST := left.isBST && right.isBST &&
		(nd.left == nilNode || t.less(storage[nd.left].key, nd.key)) &&
		(nd.right == nilNode || t.less(nd.key, storage[nd.right].key))

	size := 1 + left.size + right.size
	height := 1 + max(left.height, right.height)
	balanced := height <= t.alphaDeepHeight(size)+1

	return verification{balanced: balanced, isBST: isBST, size: size, height: height}
}

// Height returns the tree height in edges, -1 when empty. O(n); meant
// for diagnostics and experiments, not the operation path.
func (t *Tree[T]) Height() int {
	t.mustBeActive()

	return t.subtreeHeight(t.root)
}

func (t *Tree[T]) subtreeHeight(idx uint32) int {
	if idx == nilNode {
		return -1
	}

	nd := t.storage()[idx]

	return 1 + max(t.subtreeHeight(nd.left), t.subtreeHeight(nd.right))
}
