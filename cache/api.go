package cache

import "cmp"

// Cache is the key/value surface shared by LRU and Shared.
//
// LRU implements it for a single owner; Shared implements it with internal
// locking and is safe for concurrent use.
type Cache[K cmp.Ordered, V comparable] interface {
	// Get returns the value for k and whether it was present.
	// A hit refreshes k's recency; a miss changes nothing.
	Get(k K) (V, bool)

	// Put inserts or updates k→v, evicting the least recently used entry
	// if k is new and the cache is full.
	// Writing a value equal to the stored one is a no-op. Writing a
	// different value resets k to "never read", making it the next
	// eviction candidate until it is read again.
	// Returns an error only for keys rejected by Options.RejectKey.
	Put(k K, v V) error

	// Peek returns the value for k without touching its recency.
	Peek(k K) (V, bool)

	// Len returns the number of resident entries.
	Len() int

	// Cap returns the maximum number of resident entries.
	Cap() int
}
