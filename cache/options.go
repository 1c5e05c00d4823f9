package cache

import (
	"cmp"

	"github.com/phuslu/log"

	"github.com/IvanBrykalov/lru/index"
)

// Metrics receives cache events. The cache itself keeps no counters;
// an implementation decides what to aggregate.
// A NoopMetrics implementation is used by default.
type Metrics interface {
	Hit()
	Miss()
	Evict()
	Size(entries int)
}

// Options configures an LRU. Zero values are safe except Capacity;
// defaults are applied in New():
//   - nil Index   => B-tree index (tree.New with DefaultDegree)
//   - nil Clock   => logical counter (NewCounter)
//   - nil Metrics => NoopMetrics
type Options[K cmp.Ordered, V comparable] struct {
	// Capacity is the entry count limit. Must be >= 1.
	Capacity int

	// Index builds the recency index; nil => B-tree.
	Index index.Factory[K]

	// Clock supplies access ticks. Readings are clamped to be strictly
	// increasing, so a stalled or stepped-back clock is tolerated.
	Clock Clock

	// RejectKey reports keys the cache refuses to store, e.g. the empty
	// string when it stands for "no key". Put returns ErrInvalidArgument
	// for them and Get reports them absent. NaN keys are always refused.
	RejectKey func(k K) bool

	// OnEvict is called for every entry removed to make room.
	OnEvict func(k K, v V)

	// Metrics receives hit/miss/evict/size events; nil => NoopMetrics.
	Metrics Metrics

	// Logger, if set, receives debug events (evictions, rejected keys).
	Logger *log.Logger
}
