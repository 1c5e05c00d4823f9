package cache

import (
	"cmp"
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/IvanBrykalov/lru/internal/util"
)

// AutoShards selects a shard count from GOMAXPROCS (see SharedOptions.Shards).
const AutoShards = -1

// SharedOptions configures a Shared cache.
type SharedOptions[K cmp.Ordered, V comparable] struct {
	// Options applies to every shard. Capacity is the total across shards.
	Options[K, V]

	// Shards is the number of independently locked partitions.
	//   - 0          => 1 (a single global LRU order)
	//   - AutoShards => ≈ 2*GOMAXPROCS
	//   - otherwise rounded up to the next power of two (at most 256)
	// Shards are halved until each holds at least one entry.
	// With more than one shard, eviction order is LRU per shard only.
	Shards int

	// Loader fetches a value on miss. Used by GetOrLoad.
	Loader func(ctx context.Context, k K) (V, error)
}

// Shared wraps LRU shards so they can be used from many goroutines.
// Every Get/Put runs as one atomic unit under its shard's lock.
type Shared[K cmp.Ordered, V comparable] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	loader func(ctx context.Context, k K) (V, error)

	// coalesces concurrent GetOrLoad calls for the same key
	sf singleflight.Group
}

// shard is one lock plus the LRU it guards.
// Get mutates recency, so a plain Mutex is used rather than an RWMutex.
type shard[K cmp.Ordered, V comparable] struct {
	mu  sync.Mutex
	lru *LRU[K, V]
}

// NewShared constructs a Shared cache. Capacity is split evenly across
// shards (ceil), so the total may slightly exceed opt.Capacity.
func NewShared[K cmp.Ordered, V comparable](opt SharedOptions[K, V]) (*Shared[K, V], error) {
	if opt.Capacity < 1 {
		return nil, invalidCapacity(opt.Capacity)
	}

	n := util.ShardCount(opt.Shards, opt.Capacity)
	per := opt.Options
	per.Capacity = (opt.Capacity + n - 1) / n
	if per.Clock == nil {
		per.Clock = NewCounter() // one tick source across shards
	}
	sink := per.Metrics
	if sink == nil {
		sink = NoopMetrics{}
	}
	total := new(atomic.Int64) // Size reports the sum over shards

	s := &Shared[K, V]{
		shards: make([]*shard[K, V], n),
		hash:   util.Fnv64a[K],
		loader: opt.Loader,
	}
	for i := range s.shards {
		per.Metrics = &shardMetrics{Metrics: sink, total: total}
		lru, err := New[K, V](per)
		if err != nil {
			return nil, err
		}
		s.shards[i] = &shard[K, V]{lru: lru}
	}
	return s, nil
}

// Get returns the value for k and refreshes its recency on hit.
func (s *Shared[K, V]) Get(k K) (V, bool) {
	sh := s.getShard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.lru.Get(k)
}

// Put inserts or updates k→v (see LRU.Put).
func (s *Shared[K, V]) Put(k K, v V) error {
	sh := s.getShard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.lru.Put(k, v)
}

// Peek returns the value for k without changing recency.
func (s *Shared[K, V]) Peek(k K) (V, bool) {
	sh := s.getShard(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.lru.Peek(k)
}

// Len returns the total number of resident entries across all shards.
func (s *Shared[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += sh.lru.Len()
		sh.mu.Unlock()
	}
	return total
}

// Cap returns the total capacity across all shards.
func (s *Shared[K, V]) Cap() int {
	return len(s.shards) * s.shards[0].lru.Cap()
}

// Shards returns the number of partitions.
func (s *Shared[K, V]) Shards() int { return len(s.shards) }

// GetOrLoad returns the value for k; on miss it loads via the Loader,
// coalescing concurrent loads for the same key. A caller whose ctx is
// done stops waiting; the load itself keeps running for the others.
// If no Loader is configured, returns ErrNoLoader.
func (s *Shared[K, V]) GetOrLoad(ctx context.Context, k K) (V, error) {
	if v, ok := s.Get(k); ok {
		return v, nil
	}
	var zero V
	if s.loader == nil {
		return zero, ErrNoLoader
	}

	ch := s.sf.DoChan(flightKey(k), func() (any, error) {
		// double-check after joining the flight
		if v, ok := s.Get(k); ok {
			return v, nil
		}
		v, err := s.loader(ctx, k)
		if err != nil {
			return nil, err
		}
		if err := s.Put(k, v); err != nil {
			return nil, err
		}
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// shardMetrics forwards one shard's events and turns its Size reports
// into the cache-wide total. last is only touched under the shard lock.
type shardMetrics struct {
	Metrics
	total *atomic.Int64
	last  int
}

func (m *shardMetrics) Size(entries int) {
	delta := entries - m.last
	m.last = entries
	m.Metrics.Size(int(m.total.Add(int64(delta))))
}

// getShard picks a shard by hashing the key.
func (s *Shared[K, V]) getShard(k K) *shard[K, V] {
	if len(s.shards) == 1 {
		return s.shards[0]
	}
	return s.shards[util.ShardIndex(s.hash(k), len(s.shards))]
}

// flightKey renders k for singleflight, which keys calls by string.
func flightKey[K cmp.Ordered](k K) string { return fmt.Sprint(k) }

var _ Cache[string, int] = (*Shared[string, int])(nil)
