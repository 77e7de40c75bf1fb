package scapegoat

import (
	"encoding/binary"
	"errors"
	"hash/fnv"
	"sync"
)

// ShardedSet partitions a set of uint32 keys across independent scapegoat
// trees by FNV-32a hash of the key bytes. Point operations touch exactly
// one shard and are not safe for concurrent use; the bulk hibernate,
// boot, pack and unpack calls fan out one goroutine per shard, each
// goroutine owning its shard exclusively for the duration of the call.
type ShardedSet struct {
	shards []*Tree[uint32]
}

// NewShardedSet creates a sharded set with shardCount shards, each
// backed by a private arena. A non-positive shardCount becomes 1.
func NewShardedSet(alpha float64, shardCount int) (*ShardedSet, error) {
	if shardCount <= 0 {
		shardCount = 1
	}

	shards := make([]*Tree[uint32], shardCount)

	for idx := range shardCount {
		tree, err := New[uint32](alpha)
		if err != nil {
			return nil, err
		}

		shards[idx] = tree
	}

	return &ShardedSet{shards: shards}, nil
}

// Shard returns the tree owning key.
func (s *ShardedSet) Shard(key uint32) *Tree[uint32] {
	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], key)

	hasher := fnv.New32a()
	hasher.Write(buf[:])

	idx := int(hasher.Sum32()) % len(s.shards)
	if idx < 0 {
		idx = -idx
	}

	return s.shards[idx]
}

// Shards returns all underlying trees.
func (s *ShardedSet) Shards() []*Tree[uint32] {
	return s.shards
}

// Insert adds key and reports whether it was absent.
func (s *ShardedSet) Insert(key uint32) bool {
	return s.Shard(key).Insert(key)
}

// Search reports whether key is present.
func (s *ShardedSet) Search(key uint32) bool {
	return s.Shard(key).Search(key)
}

// Remove deletes key and reports whether it was present.
func (s *ShardedSet) Remove(key uint32) bool {
	return s.Shard(key).Remove(key)
}

// Len returns the total number of keys across all shards.
func (s *ShardedSet) Len() int {
	total := 0
	for _, shard := range s.shards {
		total += shard.Len()
	}

	return total
}

// VerifyAll reports whether every shard satisfies its structural
// invariants.
func (s *ShardedSet) VerifyAll() bool {
	for _, shard := range s.shards {
		if !shard.Verify() {
			return false
		}
	}

	return true
}

// HibernateAll hibernates all shards in parallel.
func (s *ShardedSet) HibernateAll() {
	wg := sync.WaitGroup{}
	wg.Add(len(s.shards))

	for _, shard := range s.shards {
		go func(tree *Tree[uint32]) {
			defer wg.Done()

			tree.Hibernate()
		}(shard)
	}

	wg.Wait()
}

// BootAll boots all shards in parallel.
func (s *ShardedSet) BootAll() {
	wg := sync.WaitGroup{}
	wg.Add(len(s.shards))

	for _, shard := range s.shards {
		go func(tree *Tree[uint32]) {
			defer wg.Done()

			tree.Boot()
		}(shard)
	}

	wg.Wait()
}

// PackAll compresses the dormant key blocks of all shards in parallel.
// Every shard must be hibernated.
func (s *ShardedSet) PackAll() error {
	errs := make([]error, len(s.shards))

	wg := sync.WaitGroup{}
	wg.Add(len(s.shards))

	for idx, shard := range s.shards {
		go func(slot int, tree *Tree[uint32]) {
			defer wg.Done()

			errs[slot] = Pack(tree)
		}(idx, shard)
	}

	wg.Wait()

	return errors.Join(errs...)
}

// UnpackAll restores the dormant key blocks of all shards in parallel.
func (s *ShardedSet) UnpackAll() error {
	errs := make([]error, len(s.shards))

	wg := sync.WaitGroup{}
	wg.Add(len(s.shards))

	for idx, shard := range s.shards {
		go func(slot int, tree *Tree[uint32]) {
			defer wg.Done()

			errs[slot] = Unpack(tree)
		}(idx, shard)
	}

	wg.Wait()

	return errors.Join(errs...)
}
