package scapegoat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scapegoat/pkg/scapegoat"
)

func TestNewShardedSet(t *testing.T) {
	t.Parallel()

	set, err := scapegoat.NewShardedSet(0.65, 4)
	require.NoError(t, err)
	assert.Len(t, set.Shards(), 4)

	// A non-positive count falls back to a single shard.
	set, err = scapegoat.NewShardedSet(0.65, 0)
	require.NoError(t, err)
	assert.Len(t, set.Shards(), 1)

	_, err = scapegoat.NewShardedSet(1.5, 4)
	require.ErrorIs(t, err, scapegoat.ErrAlphaRange)
}

func TestShardedSet_Shard(t *testing.T) {
	t.Parallel()

	set, err := scapegoat.NewShardedSet(0.65, 4)
	require.NoError(t, err)

	s1 := set.Shard(42)
	s2 := set.Shard(42)
	_ = set.Shard(43) // Ensure it doesn't crash.

	assert.Same(t, s1, s2)

	// Check distribution.
	counts := make(map[*scapegoat.Tree[uint32]]int)

	for key := range uint32(100) {
		counts[set.Shard(key)]++
	}

	assert.Len(t, counts, 4) // Likely to hit all 4 with 100 keys.
}

func TestShardedSet_PointOps(t *testing.T) {
	t.Parallel()

	set, err := scapegoat.NewShardedSet(0.65, 4)
	require.NoError(t, err)

	for key := range uint32(1000) {
		assert.True(t, set.Insert(key))
	}

	assert.Equal(t, 1000, set.Len())
	assert.False(t, set.Insert(500), "duplicate")
	assert.True(t, set.VerifyAll())

	for _, shard := range set.Shards() {
		assert.Positive(t, shard.Len(), "hash must spread keys over every shard")
	}

	for key := uint32(0); key < 1000; key += 2 {
		assert.True(t, set.Remove(key))
	}

	assert.Equal(t, 500, set.Len())
	assert.True(t, set.VerifyAll())

	for key := range uint32(1000) {
		assert.Equal(t, key%2 == 1, set.Search(key), "key %d", key)
	}
}

func TestShardedSet_BulkLifecycle(t *testing.T) {
	t.Parallel()

	set, err := scapegoat.NewShardedSet(0.65, 8)
	require.NoError(t, err)

	for key := range uint32(500) {
		set.Insert(key * 3)
	}

	set.HibernateAll()
	assert.Equal(t, 500, set.Len())

	require.NoError(t, set.PackAll())
	assert.Equal(t, 500, set.Len())

	require.NoError(t, set.UnpackAll())
	set.BootAll()

	assert.Equal(t, 500, set.Len())
	assert.True(t, set.VerifyAll())

	for key := range uint32(500) {
		assert.True(t, set.Search(key*3), "key %d", key*3)
		assert.Equal(t, key%3 == 0, set.Search(key), "key %d", key)
	}
}
