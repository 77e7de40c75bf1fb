// Package scapegoat implements an ordered-set container backed by a
// scapegoat tree, the self-balancing binary search tree of Galperin and
// Rivest ("Scapegoat Trees", SODA 1993).
//
// A scapegoat tree stores no per-node metadata: no heights, colors or
// balance factors. Balance is restored lazily by rebuilding whole
// subtrees. An insertion that lands too deep walks back up its ancestor
// path, finds the shallowest weight-imbalanced ancestor (the scapegoat)
// and rebuilds that subtree into a weight-balanced shape; deletions
// rebuild the whole tree once enough of it has been removed. All
// operations are amortized O(log n), with the occasional O(n) rebuild
// paid for by the insertions and deletions that preceded it.
//
// The balance parameter alpha in (0.5, 1) tunes the trade-off: values
// near 0.5 keep the tree flat at the price of frequent rebuilds, values
// near 1 tolerate deeper trees and rebuild rarely.
//
// Nodes live in an Arena indexed by uint32 handles rather than pointers,
// which keeps them compact, makes teardown a bulk operation and lets
// idle trees hibernate into a dense sorted key block (see Hibernate and
// Pack). Trees are not safe for concurrent use.
package scapegoat
