package cache

import (
	"cmp"
	"fmt"

	"github.com/IvanBrykalov/lru/index"
	"github.com/IvanBrykalov/lru/index/tree"
)

// LRU is a bounded key/value cache that evicts the least recently used
// entry when a new key arrives at capacity.
//
// Recency is tracked in an ordered index of (order key, key) pairs, so Get,
// Put and eviction are O(log n). Entries written but not read since sort
// below every read entry and are evicted first, smallest key first.
//
// LRU is not safe for concurrent use; wrap it in Shared or guard it with a
// single lock.
type LRU[K cmp.Ordered, V comparable] struct {
	cap    int
	values map[K]*entry[V]
	idx    index.Index[K]

	// last tick handed out; ticks are strictly increasing
	last   int64
	ticked bool

	opt Options[K, V]
}

// New constructs an empty LRU.
// It fails with ErrInvalidArgument if opt.Capacity < 1.
// Defaults:
//   - nil Index   -> B-tree index
//   - nil Clock   -> logical counter
//   - nil Metrics -> NoopMetrics
func New[K cmp.Ordered, V comparable](opt Options[K, V]) (*LRU[K, V], error) {
	if opt.Capacity < 1 {
		return nil, invalidCapacity(opt.Capacity)
	}
	if opt.Index == nil {
		opt.Index = tree.New[K](0)
	}
	if opt.Clock == nil {
		opt.Clock = NewCounter()
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	return &LRU[K, V]{
		cap:    opt.Capacity,
		values: make(map[K]*entry[V], opt.Capacity),
		idx:    opt.Index.New(opt.Capacity),
		opt:    opt,
	}, nil
}

// MustNew is like New but panics on invalid options.
func MustNew[K cmp.Ordered, V comparable](opt Options[K, V]) *LRU[K, V] {
	c, err := New[K, V](opt)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the value for k and a presence flag.
// On hit, k becomes the most recently used entry. Keys that Put would
// refuse (NaN, or those matched by Options.RejectKey) are never stored,
// so Get reports them absent rather than returning an error.
func (c *LRU[K, V]) Get(k K) (V, bool) {
	e, ok := c.lookup(k)
	if !ok {
		c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	c.touch(k, e, index.At(c.tick()))
	c.opt.Metrics.Hit()
	return e.val, true
}

// Put inserts or updates k→v.
//
//   - new key, room left: stored as never read
//   - new key, cache full: the LRU entry is evicted first
//   - existing key, different value: overwritten and reset to never read
//   - existing key, equal value: no-op
func (c *LRU[K, V]) Put(k K, v V) error {
	if c.rejected(k) {
		if l := c.opt.Logger; l != nil {
			l.Debug().Str("key", fmt.Sprint(k)).Msg("cache: put rejected")
		}
		return rejectedKey(k)
	}

	if e, ok := c.values[k]; ok {
		if e.val == v {
			return nil
		}
		e.val = v
		c.touch(k, e, index.Never)
		return nil
	}

	for len(c.values) >= c.cap {
		if !c.discard() {
			return indexDrained(len(c.values), c.cap)
		}
	}
	c.values[k] = &entry[V]{val: v, order: index.Never}
	c.idx.Insert(index.Entry[K]{Order: index.Never, Key: k})
	c.opt.Metrics.Size(len(c.values))
	return nil
}

// Peek returns the value for k without changing its recency.
func (c *LRU[K, V]) Peek(k K) (V, bool) {
	e, ok := c.lookup(k)
	if !ok {
		var zero V
		return zero, false
	}
	return e.val, true
}

// Keys returns resident keys in eviction order: the next victim first.
func (c *LRU[K, V]) Keys() []K {
	out := make([]K, 0, c.idx.Len())
	c.idx.Ascend(func(e index.Entry[K]) bool {
		out = append(out, e.Key)
		return true
	})
	return out
}

// Len returns the number of resident entries.
func (c *LRU[K, V]) Len() int { return len(c.values) }

// Cap returns the capacity the cache was built with.
func (c *LRU[K, V]) Cap() int { return c.cap }

// ---- internals ----

// rejected reports keys that cannot be stored: NaN never equals itself,
// so it could neither be found in the map nor told apart in the index.
func (c *LRU[K, V]) rejected(k K) bool {
	if k != k {
		return true
	}
	return c.opt.RejectKey != nil && c.opt.RejectKey(k)
}

func (c *LRU[K, V]) lookup(k K) (*entry[V], bool) {
	if c.rejected(k) {
		return nil, false
	}
	e, ok := c.values[k]
	return e, ok
}

// tick reads the clock, clamped so every tick exceeds the previous one.
func (c *LRU[K, V]) tick() int64 {
	t := c.opt.Clock.Now()
	if c.ticked && t <= c.last {
		t = c.last + 1
	}
	c.last, c.ticked = t, true
	return t
}

// touch moves k to a new order key. The stored order is always updated;
// the index is rewritten only if it held k under the previous order key.
func (c *LRU[K, V]) touch(k K, e *entry[V], order index.OrderKey) {
	prev := e.order
	e.order = order
	if c.idx.Delete(index.Entry[K]{Order: prev, Key: k}) {
		c.idx.Insert(index.Entry[K]{Order: order, Key: k})
	}
}

// discard evicts the least recently used entry.
// Returns false if the index is empty.
func (c *LRU[K, V]) discard() bool {
	victim, ok := c.idx.DeleteMin()
	if !ok {
		return false
	}
	e, ok := c.values[victim.Key]
	if !ok {
		// index held a key the map does not; dropping it restores the invariant
		return true
	}
	delete(c.values, victim.Key)

	c.opt.Metrics.Evict()
	if l := c.opt.Logger; l != nil {
		l.Debug().Str("key", fmt.Sprint(victim.Key)).Bool("read", victim.Order.Accessed).Msg("cache: evicted")
	}
	if cb := c.opt.OnEvict; cb != nil {
		cb(victim.Key, e.val)
	}
	return true
}

var _ Cache[string, int] = (*LRU[string, int])(nil)
