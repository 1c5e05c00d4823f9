package cache

import "github.com/IvanBrykalov/lru/index"

// entry is the per-key record owned by an LRU.
// order mirrors the key's single entry in the recency index; the two are
// only ever changed together (see LRU.touch).
type entry[V comparable] struct {
	val   V
	order index.OrderKey
}
