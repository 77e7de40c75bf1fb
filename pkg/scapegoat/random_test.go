package scapegoat //nolint:testpackage // the oracle comparison walks unexported tree state

import (
	"math/rand"
	"slices"
	"sort"
	"testing"
)

// Randomized tests.

// oracle provides an interface similar to the tree, but stores data in a
// sorted array.
type oracle struct {
	data []int
}

func newOracle() *oracle {
	return &oracle{data: make([]int, 0)}
}

func (o *oracle) Len() int {
	return len(o.data)
}

// Interface needed for sorting.
func (o *oracle) Less(idx1, idx2 int) bool {
	return o.data[idx1] < o.data[idx2]
}

func (o *oracle) Swap(idx1, idx2 int) {
	o.data[idx2], o.data[idx1] = o.data[idx1], o.data[idx2]
}

func (o *oracle) Insert(key int) bool {
	if slices.Contains(o.data, key) {
		return false
	}

	dataLen := len(o.data) + 1
	newData := make([]int, dataLen)
	copy(newData, o.data)
	newData[dataLen-1] = key
	o.data = newData
	sort.Sort(o)

	return true
}

func (o *oracle) Contains(key int) bool {
	return slices.Contains(o.data, key)
}

func (o *oracle) RandomExistingKey(rng *rand.Rand) int {
	index := rng.Int31n(int32(len(o.data)))

	return o.data[index]
}

func (o *oracle) Delete(key int) bool {
	for idx, elem := range o.data {
		if elem != key {
			continue
		}

		newData := make([]int, len(o.data)-1)
		copy(newData, o.data[0:idx])
		copy(newData[idx:], o.data[idx+1:])
		o.data = newData

		return true
	}

	return false
}

func compareContentsFull(tb testing.TB, orc *oracle, tree *Tree[int]) {
	tb.Helper()

	got := tree.appendInOrder(tree.root, nil)

	if !slices.Equal(got, orc.data) {
		tb.Fatal("contents diverged", got, orc.data)
	}
}

func TestRandomized(t *testing.T) {
	t.Parallel()

	const (
		numKeys     = 1000
		numOps      = 10000
		verifyEvery = 256
	)

	orc := newOracle()
	tree := testNewIntTree(t, 0.65)
	rng := rand.New(rand.NewSource(0))

	for opIdx := range numOps {
		op := rng.Int31n(100)

		switch {
		case op < 45:
			key := int(rng.Int31n(numKeys))
			if orc.Insert(key) != tree.Insert(key) {
				t.Fatal("Insert disagreement", key)
			}

			compareContentsFull(t, orc, tree)
		case op < 80 && orc.Len() > 0:
			key := orc.RandomExistingKey(rng)
			orc.Delete(key)

			if !tree.Remove(key) {
				t.Fatal("RemoveExisting", key)
			}

			compareContentsFull(t, orc, tree)
		case op < 90:
			key := int(rng.Int31n(numKeys))
			if orc.Delete(key) != tree.Remove(key) {
				t.Fatal("Remove disagreement", key)
			}

			compareContentsFull(t, orc, tree)
		default:
			key := int(rng.Int31n(numKeys))
			if orc.Contains(key) != tree.Search(key) {
				t.Fatal("Search disagreement", key)
			}
		}

		if (opIdx+1)%verifyEvery == 0 && !tree.Verify() {
			t.Fatal("invariants broken after op", opIdx)
		}
	}

	compareContentsFull(t, orc, tree)
	testAssert(t, tree.Verify(), "final verify")
	testAssert(t, tree.Len() == orc.Len(), "final len")
}

// The balance trade-off differs across the alpha range: 0.55 rebuilds
// eagerly, 0.95 tolerates long chains. The invariants must hold at both
// extremes.
func TestRandomizedAcrossAlphas(t *testing.T) {
	t.Parallel()

	const (
		numKeys      = 300
		numOps       = 4000
		compareEvery = 128
	)

	for seed, alpha := range []float64{0.55, 0.7, 0.95} {
		orc := newOracle()
		tree := testNewIntTree(t, alpha)
		rng := rand.New(rand.NewSource(int64(seed)))

		for opIdx := range numOps {
			if rng.Int31n(100) < 60 || orc.Len() == 0 {
				key := int(rng.Int31n(numKeys))
				if orc.Insert(key) != tree.Insert(key) {
					t.Fatal("Insert disagreement", alpha, key)
				}
			} else {
				key := orc.RandomExistingKey(rng)
				orc.Delete(key)

				if !tree.Remove(key) {
					t.Fatal("RemoveExisting", alpha, key)
				}
			}

			if (opIdx+1)%compareEvery == 0 {
				compareContentsFull(t, orc, tree)

				if !tree.Verify() {
					t.Fatal("invariants broken", alpha, opIdx)
				}
			}
		}

		compareContentsFull(t, orc, tree)
		testAssert(t, tree.Verify(), "final verify")
	}
}
