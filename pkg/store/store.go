// Package store implements the concurrent, write-once value store the
// evaluator populates and collectors read from.
//
// Grounded on original_source's use of DashMap<(CollectorConfig,
// CommitHash), CollectorValue> throughout lib.rs and collectors/utils.rs.
// Go has no drop-in DashMap equivalent in the example pack, so this is a
// sharded-lock map in the style the teacher uses for its own shared caches
// in pkg/framework — sharding keeps the single-mutex contention the
// evaluator's parallel commit-group dispatch would otherwise hit under
// tight control without pulling in a new dependency for what is, at its
// core, a handful of RWMutex-guarded buckets.
package store

import (
	"encoding/json"
	"fmt"
	"hash/maphash"
	"sync"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

const shardCount = 32

// Key identifies one stored value: a (collector, commit) pair, exactly the
// execution graph's Task shape.
type Key struct {
	Collector collectorkey.CollectorKey
	Commit    historymodel.CommitHash
}

type shard struct {
	mu   sync.RWMutex
	data map[Key]json.RawMessage
}

// Store is a concurrent map from Key to an already-encoded JSON value. It
// enforces write-once-per-key: a second Set for the same key returns
// ErrAlreadySet rather than silently overwriting, matching spec.md §3's
// "write-once" store invariant.
type Store struct {
	seed   maphash.Seed
	shards [shardCount]*shard
}

// ErrAlreadySet is returned by Set when a value already exists for the key.
var ErrAlreadySet = fmt.Errorf("store: value already set for key")

// New returns an empty Store.
func New() *Store {
	s := &Store{seed: maphash.MakeSeed()}
	for i := range s.shards {
		s.shards[i] = &shard{data: make(map[Key]json.RawMessage)}
	}

	return s
}

func (s *Store) shardFor(k Key) *shard {
	var h maphash.Hash
	h.SetSeed(s.seed)
	h.WriteString(string(k.Collector.Kind))
	h.WriteString(k.Collector.Pattern)
	h.WriteString(string(k.Commit))

	return s.shards[h.Sum64()%shardCount]
}

// Get returns the value stored for k, if any.
func (s *Store) Get(k Key) (json.RawMessage, bool) {
	sh := s.shardFor(k)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	v, ok := sh.data[k]

	return v, ok
}

// Set stores value for k. Returns ErrAlreadySet if a value is already
// present — every task in the execution graph runs exactly once per
// evaluation, so a second write for the same key is a programmer error.
func (s *Store) Set(k Key, value json.RawMessage) error {
	sh := s.shardFor(k)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.data[k]; exists {
		return fmt.Errorf("%w: %v", ErrAlreadySet, k)
	}

	sh.data[k] = value

	return nil
}

// Len returns the total number of stored values, for diagnostics/tests.
func (s *Store) Len() int {
	total := 0

	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.data)
		sh.mu.RUnlock()
	}

	return total
}
