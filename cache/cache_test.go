package cache

import (
	"bytes"
	"cmp"
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/lru/index"
)

type fakeClock struct{ t int64 }

func (f *fakeClock) Now() int64  { return f.t }
func (f *fakeClock) set(t int64) { f.t = t }

type recMetrics struct {
	hits, misses, evicts, size int
}

func (m *recMetrics) Hit()             { m.hits++ }
func (m *recMetrics) Miss()            { m.misses++ }
func (m *recMetrics) Evict()           { m.evicts++ }
func (m *recMetrics) Size(entries int) { m.size = entries }

func newLRU[K cmp.Ordered, V comparable](t *testing.T, capacity int) *LRU[K, V] {
	t.Helper()
	c, err := New[K, V](Options[K, V]{Capacity: capacity})
	require.NoError(t, err)
	return c
}

// checkInvariants asserts that the value map and the recency index agree:
// same cardinality, bounded by capacity, and exactly one index entry per
// key carrying the key's stored order.
func checkInvariants[K cmp.Ordered, V comparable](t *testing.T, c *LRU[K, V]) {
	t.Helper()

	require.LessOrEqual(t, c.Len(), c.Cap())
	require.Equal(t, len(c.values), c.idx.Len(), "values vs index size")

	seen := make(map[K]index.OrderKey, c.idx.Len())
	c.idx.Ascend(func(e index.Entry[K]) bool {
		_, dup := seen[e.Key]
		require.False(t, dup, "duplicate index entry for %v", e.Key)
		seen[e.Key] = e.Order
		return true
	})
	for k, e := range c.values {
		order, ok := seen[k]
		require.True(t, ok, "key %v missing from index", k)
		require.Equal(t, e.order, order, "stale order for %v", k)
	}
}

func putAll[K cmp.Ordered, V comparable](t *testing.T, c *LRU[K, V], kvs ...any) {
	t.Helper()
	for i := 0; i < len(kvs); i += 2 {
		require.NoError(t, c.Put(kvs[i].(K), kvs[i+1].(V)))
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, -1, -100} {
		c, err := New[string, int](Options[string, int]{Capacity: n})
		require.Nil(t, c)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "capacity %d", n)
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

		var perr errors.PlatformError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, n, perr.Context()["capacity"])
	}

	assert.Panics(t, func() { MustNew[string, int](Options[string, int]{}) })
}

func TestNew_Empty(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 5)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 5, c.Cap())
	assert.Empty(t, c.Keys())
	checkInvariants(t, c)
}

func TestGet_MissLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 2)
	putAll[string, int](t, c, "a", 1)
	before := c.Keys()

	v, ok := c.Get("zzz")
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, before, c.Keys())
	checkInvariants(t, c)
}

// Scenario: reads lift apple and banana above the never-read cottage.
func TestScenario_EvictsNeverReadCottage(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 3)
	putAll[string, int](t, c, "apple", 1, "banana", 2)
	_, _ = c.Get("apple")
	_, _ = c.Get("banana")
	putAll[string, int](t, c, "cottage", 3, "dill", 4)

	_, ok := c.Peek("cottage")
	assert.False(t, ok, "cottage must be evicted")
	for k, want := range map[string]int{"apple": 1, "banana": 2, "dill": 4} {
		v, ok := c.Peek(k)
		assert.True(t, ok, k)
		assert.Equal(t, want, v, k)
	}
	assert.Equal(t, 3, c.Len())
	checkInvariants(t, c)
}

func TestScenario_EvictsOldestNeverRead(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 3)
	putAll[string, int](t, c, "a", 1, "b", 2, "c", 3)
	_, _ = c.Get("b")
	_, _ = c.Get("c")
	putAll[string, int](t, c, "d", 4)

	_, ok := c.Peek("a")
	assert.False(t, ok, "a must be evicted")
	assert.ElementsMatch(t, []string{"b", "c", "d"}, c.Keys())
	checkInvariants(t, c)
}

func TestScenario_UpdatePresentKeyNoEviction(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := MustNew[string, int](Options[string, int]{
		Capacity: 3,
		OnEvict:  func(k string, _ int) { evicted = append(evicted, k) },
	})
	putAll[string, int](t, c, "a", 1, "b", 2, "c", 3)
	_, _ = c.Get("c")
	_, _ = c.Get("a")
	putAll[string, int](t, c, "b", 20)

	assert.Empty(t, evicted)
	assert.Equal(t, 3, c.Len())
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 20, v)
	for _, k := range []string{"a", "c"} {
		_, ok := c.Peek(k)
		assert.True(t, ok, k)
	}
	checkInvariants(t, c)
}

func TestPut_RejectedKey(t *testing.T) {
	t.Parallel()

	c := MustNew[string, int](Options[string, int]{
		Capacity:  2,
		RejectKey: func(k string) bool { return k == "" },
	})

	err := c.Put("", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("")
	assert.False(t, ok, "rejected keys are never present")
	require.NoError(t, c.Put("ok", 1))
	checkInvariants(t, c)
}

// NaN never equals itself, so it could not be found again once stored.
func TestPut_NaNKeyRejected(t *testing.T) {
	t.Parallel()

	c := newLRU[float64, int](t, 2)
	for i := 0; i < 5; i++ {
		err := c.Put(math.NaN(), i)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
		assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	}
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.idx.Len())

	_, ok := c.Get(math.NaN())
	assert.False(t, ok)

	putAll[float64, int](t, c, 1.5, 1, 2.5, 2, 3.5, 3)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []float64{2.5, 3.5}, c.Keys())
	checkInvariants(t, c)
}

// With no reads in between, capacity+1 inserts (ascending keys) evict the first one.
func TestPut_EvictionUnderPressure(t *testing.T) {
	t.Parallel()

	const capacity = 16
	c := newLRU[int, int](t, capacity)
	for i := 0; i <= capacity; i++ {
		require.NoError(t, c.Put(i, i*10))
		checkInvariants(t, c)
	}

	_, ok := c.Peek(0)
	assert.False(t, ok, "first inserted key must be evicted")
	for i := 1; i <= capacity; i++ {
		v, ok := c.Peek(i)
		assert.True(t, ok, "key %d", i)
		assert.Equal(t, i*10, v)
	}
	assert.Equal(t, capacity, c.Len())
}

// Never-read entries share an order key and are evicted smallest key first,
// regardless of insertion order.
func TestPut_NeverReadTieBreakByKey(t *testing.T) {
	t.Parallel()

	var evicted []string
	c := MustNew[string, int](Options[string, int]{
		Capacity: 3,
		OnEvict:  func(k string, _ int) { evicted = append(evicted, k) },
	})
	putAll[string, int](t, c, "pear", 1, "fig", 2, "kiwi", 3)
	assert.Equal(t, []string{"fig", "kiwi", "pear"}, c.Keys())

	putAll[string, int](t, c, "zucchini", 4, "yam", 5)
	assert.Equal(t, []string{"fig", "kiwi"}, evicted)
	checkInvariants(t, c)
}

func TestPut_SameValueIsNoop(t *testing.T) {
	t.Parallel()

	a := newLRU[string, int](t, 3)
	b := newLRU[string, int](t, 3)
	for _, c := range []*LRU[string, int]{a, b} {
		putAll[string, int](t, c, "x", 1, "y", 2)
		_, _ = c.Get("x")
		putAll[string, int](t, c, "z", 3)
	}

	// a gets a redundant write; b does not.
	putAll[string, int](t, a, "x", 1)

	assert.Equal(t, b.Keys(), a.Keys())
	assert.Equal(t, b.values["x"].order, a.values["x"].order, "equal write must not reset recency")
	checkInvariants(t, a)
}

func TestPut_DifferentValueResetsRecency(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 2)
	putAll[string, int](t, c, "a", 1, "b", 2)
	_, _ = c.Get("a")
	_, _ = c.Get("b")
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	putAll[string, int](t, c, "b", 22)
	assert.Equal(t, index.Never, c.values["b"].order)
	assert.Equal(t, []string{"b", "a"}, c.Keys(), "rewritten key becomes next victim")

	putAll[string, int](t, c, "c", 3)
	_, ok := c.Peek("b")
	assert.False(t, ok)
	checkInvariants(t, c)
}

func TestGet_ReadStableAndRoundTrip(t *testing.T) {
	t.Parallel()

	c := newLRU[string, string](t, 4)
	putAll[string, string](t, c, "k", "v1", "k", "v2")

	first, ok1 := c.Get("k")
	order1 := c.values["k"].order
	second, ok2 := c.Get("k")
	order2 := c.values["k"].order

	assert.True(t, ok1 && ok2)
	assert.Equal(t, "v2", first, "last written value wins")
	assert.Equal(t, first, second)
	assert.Equal(t, -1, order1.Compare(order2), "each read stamps a newer order key")
	checkInvariants(t, c)
}

func TestGet_RefreshProtectsFromEviction(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 2)
	putAll[string, int](t, c, "a", 1, "b", 2)
	_, _ = c.Get("b")
	_, _ = c.Get("a") // a is now most recent
	putAll[string, int](t, c, "c", 3)

	_, ok := c.Peek("b")
	assert.False(t, ok, "b was read before a and must go")
	_, ok = c.Peek("a")
	assert.True(t, ok)
}

func TestPeek_DoesNotTouch(t *testing.T) {
	t.Parallel()

	c := newLRU[string, int](t, 2)
	putAll[string, int](t, c, "a", 1)
	v, ok := c.Peek("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, index.Never, c.values["a"].order)
}

// A clock that stalls or steps back still yields strictly increasing ticks.
func TestClock_ClampedMonotonic(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{}
	c := MustNew[string, int](Options[string, int]{Capacity: 3, Clock: clk})
	putAll[string, int](t, c, "a", 1, "b", 2, "c", 3)

	clk.set(100)
	_, _ = c.Get("a")
	_, _ = c.Get("b") // same reading
	clk.set(-5)
	_, _ = c.Get("c") // clock stepped back

	assert.Equal(t, index.At(100), c.values["a"].order)
	assert.Equal(t, index.At(101), c.values["b"].order)
	assert.Equal(t, index.At(102), c.values["c"].order)
	assert.Equal(t, []string{"a", "b", "c"}, c.Keys())
	checkInvariants(t, c)
}

// Negative and zero ticks are real accesses, still above never-read entries.
func TestClock_NonPositiveTicksRankAboveNever(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: -1000}
	c := MustNew[string, int](Options[string, int]{Capacity: 2, Clock: clk})
	putAll[string, int](t, c, "a", 1, "b", 2)
	_, _ = c.Get("a")
	putAll[string, int](t, c, "c", 3)

	_, ok := c.Peek("b")
	assert.False(t, ok, "never-read b must be evicted before a read at a negative tick")
}

func TestObservability_MetricsEvictLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	m := &recMetrics{}
	var evicted []string
	c := MustNew[string, int](Options[string, int]{
		Capacity: 2,
		Metrics:  m,
		OnEvict:  func(k string, v int) { evicted = append(evicted, k+"="+strconv.Itoa(v)) },
		Logger:   &log.Logger{Level: log.DebugLevel, Writer: &log.IOWriter{Writer: &buf}},
	})

	putAll[string, int](t, c, "a", 1, "b", 2)
	_, _ = c.Get("a")
	_, _ = c.Get("nope")
	putAll[string, int](t, c, "c", 3)

	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
	assert.Equal(t, 1, m.evicts)
	assert.Equal(t, 2, m.size)
	assert.Equal(t, []string{"b=2"}, evicted)
	assert.Contains(t, buf.String(), "cache: evicted")
	assert.Contains(t, buf.String(), `"key":"b"`)
}

// --- defensive refresh ---

// lossyIndex wraps a real index but can pretend entries are missing on Delete.
type lossyIndex[K cmp.Ordered] struct {
	index.Index[K]
	lose    bool
	drained bool
	inserts int
}

func (l *lossyIndex[K]) DeleteMin() (index.Entry[K], bool) {
	if l.drained {
		return index.Entry[K]{}, false
	}
	return l.Index.DeleteMin()
}

func (l *lossyIndex[K]) Insert(e index.Entry[K]) { l.inserts++; l.Index.Insert(e) }
func (l *lossyIndex[K]) Delete(e index.Entry[K]) bool {
	if l.lose {
		return false
	}
	return l.Index.Delete(e)
}

type lossyFactory[K cmp.Ordered] struct{ ix *lossyIndex[K] }

func (f lossyFactory[K]) New(int) index.Index[K] { return f.ix }

// If the index has no entry under the previous order key, touch updates the
// stored order and leaves the index alone instead of failing.
func TestTouch_MissingIndexEntryIsNoop(t *testing.T) {
	t.Parallel()

	base := MustNew[string, int](Options[string, int]{Capacity: 2})
	ix := &lossyIndex[string]{Index: base.idx}
	c := MustNew[string, int](Options[string, int]{Capacity: 2, Index: lossyFactory[string]{ix: ix}})

	putAll[string, int](t, c, "a", 1)
	require.Equal(t, 1, ix.inserts)

	ix.lose = true
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, c.values["a"].order.Accessed, "stored order still advances")
	assert.Equal(t, 1, ix.inserts, "no insert without a matching delete")
	assert.Equal(t, 1, ix.Len())
}

// A full cache whose index has nothing left to evict refuses the insert
// rather than growing past capacity.
func TestPut_DrainedIndexKeepsCapacity(t *testing.T) {
	t.Parallel()

	base := MustNew[string, int](Options[string, int]{Capacity: 2})
	ix := &lossyIndex[string]{Index: base.idx}
	c := MustNew[string, int](Options[string, int]{Capacity: 2, Index: lossyFactory[string]{ix: ix}})
	putAll[string, int](t, c, "a", 1, "b", 2)

	ix.drained = true
	err := c.Put("c", 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexDrained))
	assert.Equal(t, errors.CodeInternal, errors.GetCode(err))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Peek("c")
	assert.False(t, ok)

	ix.drained = false
	require.NoError(t, c.Put("c", 3))
	assert.Equal(t, 2, c.Len())
	checkInvariants(t, c)
}

func ExampleLRU() {
	c := MustNew[string, int](Options[string, int]{Capacity: 2})
	_ = c.Put("a", 1)
	_ = c.Put("b", 2)
	_, _ = c.Get("a")
	_ = c.Put("c", 3) // evicts b: written but never read

	fmt.Println(c.Keys())
	// Output: [c a]
}
