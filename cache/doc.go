// Package cache provides a bounded, generic, in-memory key/value cache that
// evicts the least recently used entry when a new key arrives at capacity.
//
// Design
//
//   - Storage: an LRU keeps a map[K]*entry for values and an ordered recency
//     index of (order key, key) pairs (package index). The index answers
//     "who is least recently used" with a delete-min; Get/Put/evict are
//     O(log n). The default index is a B-tree (package index/tree).
//
//   - Order keys: every read stamps the key with a tick from Options.Clock
//     (a logical counter by default), clamped to be strictly increasing.
//     A key that was written but not read since carries index.Never, which
//     sorts below every read key. Ties are broken by key order, so among
//     several never-read keys the smallest key is evicted first.
//
//   - Writes: Put of a new key at capacity evicts first, then inserts.
//     Put of an existing key with a different value overwrites it and resets
//     it to Never; with an equal value it is a no-op.
//
//   - Errors: a capacity below 1, or a key refused by Options.RejectKey,
//     yields an error wrapping ErrInvalidArgument with code INVALID_INPUT
//     (github.com/jmgilman/go/errors). A missing key is not an error.
//
//   - Observability: Options.Metrics receives Hit/Miss/Evict/Size events,
//     Options.OnEvict(k, v) is called per eviction and Options.Logger
//     (github.com/phuslu/log) receives debug events. All are optional.
//
//   - Concurrency: LRU is single-owner. Shared wraps one or more LRU shards,
//     each behind a mutex, and adds GetOrLoad with singleflight coalescing.
//
// Basic usage
//
//	c, err := cache.New[string, int](cache.Options[string, int]{Capacity: 3})
//	if err != nil {
//	    return err
//	}
//	_ = c.Put("apple", 1)
//	if v, ok := c.Get("apple"); ok {
//	    _ = v // use value
//	}
//
// Concurrent use
//
//	s, _ := cache.NewShared[string, string](cache.SharedOptions[string, string]{
//	    Options: cache.Options[string, string]{Capacity: 10_000},
//	    Shards:  cache.AutoShards,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := s.GetOrLoad(ctx, "key")
//
// Exporting metrics (Prometheus adapter)
//
//	m := prom.New(nil, "lru", "demo", nil) // implements Metrics
//	c := cache.MustNew[string, int](cache.Options[string, int]{
//	    Capacity: 10_000,
//	    Metrics:  m,
//	})
package cache
