// Package index defines the recency index used by the cache to find the
// least recently used key.
//
// An index stores (OrderKey, key) pairs under a total order and supports
// insert, exact delete and delete-min. The cache owns the key->value map and
// keeps it consistent with the index; an index never sees values.
package index

import "cmp"

// OrderKey ranks an entry by recency. Larger means more recently used.
//
// The zero value is Never: the entry has not been read since it was last
// written. Never sorts below every accessed OrderKey, whatever its Tick, so
// clocks are free to return zero or negative readings.
type OrderKey struct {
	Accessed bool
	Tick     int64
}

// Never is the order key of an entry that was written but not read yet.
var Never = OrderKey{}

// At returns the order key of an access observed at tick t.
func At(t int64) OrderKey { return OrderKey{Accessed: true, Tick: t} }

// Compare orders two order keys: -1 if a is older than b, +1 if newer, 0 if equal.
func (a OrderKey) Compare(b OrderKey) int {
	if a.Accessed != b.Accessed {
		if !a.Accessed {
			return -1
		}
		return 1
	}
	if !a.Accessed {
		return 0
	}
	return cmp.Compare(a.Tick, b.Tick)
}

// Entry is one (order key, key) pair held by an Index.
type Entry[K cmp.Ordered] struct {
	Order OrderKey
	Key   K
}

// Compare is the total order of an Index: by Order first, then by Key.
// Entries sharing an OrderKey (typically several never-read entries) are
// therefore evicted in ascending key order.
func Compare[K cmp.Ordered](a, b Entry[K]) int {
	if c := a.Order.Compare(b.Order); c != 0 {
		return c
	}
	return cmp.Compare(a.Key, b.Key)
}

// Less reports whether a sorts before b.
func Less[K cmp.Ordered](a, b Entry[K]) bool { return Compare(a, b) < 0 }

// Index is an ordered set of entries.
// Implementations are not required to be safe for concurrent use; the cache
// calls them from a single owner.
type Index[K cmp.Ordered] interface {
	// Insert adds e. Inserting an entry that is already present is a no-op.
	Insert(e Entry[K])
	// Delete removes e and reports whether it was present.
	Delete(e Entry[K]) bool
	// DeleteMin removes and returns the smallest entry, or false if empty.
	DeleteMin() (Entry[K], bool)
	// Ascend calls fn for each entry in ascending order until fn returns false.
	Ascend(fn func(Entry[K]) bool)
	// Len returns the number of entries.
	Len() int
}

// Factory creates empty indexes. capacity is a sizing hint.
type Factory[K cmp.Ordered] interface {
	New(capacity int) Index[K]
}
