// Package tree implements the recency index as an in-memory B-tree.
package tree

import (
	"cmp"

	"github.com/google/btree"

	"github.com/IvanBrykalov/lru/index"
)

// DefaultDegree is used when New is given a degree < 2.
const DefaultDegree = 16

// tree is an index.Index backed by a generic B-tree ordered by index.Compare.
// Insert, Delete and DeleteMin are O(log n).
type tree[K cmp.Ordered] struct {
	bt *btree.BTreeG[index.Entry[K]]
}

type treeFactory[K cmp.Ordered] struct {
	degree int
}

// New returns a Factory that builds B-tree indexes of the given degree.
// A degree < 2 selects DefaultDegree.
func New[K cmp.Ordered](degree int) index.Factory[K] {
	if degree < 2 {
		degree = DefaultDegree
	}
	return treeFactory[K]{degree: degree}
}

// New implements index.Factory. The capacity hint is unused: B-tree nodes
// are allocated on demand.
func (f treeFactory[K]) New(_ int) index.Index[K] {
	return &tree[K]{bt: btree.NewG[index.Entry[K]](f.degree, index.Less[K])}
}

// Insert adds e; an identical entry already present is replaced by itself.
func (t *tree[K]) Insert(e index.Entry[K]) { t.bt.ReplaceOrInsert(e) }

// Delete removes e if present.
func (t *tree[K]) Delete(e index.Entry[K]) bool {
	_, ok := t.bt.Delete(e)
	return ok
}

// DeleteMin pops the least recently used entry.
func (t *tree[K]) DeleteMin() (index.Entry[K], bool) { return t.bt.DeleteMin() }

// Ascend walks entries from least to most recently used.
func (t *tree[K]) Ascend(fn func(index.Entry[K]) bool) { t.bt.Ascend(fn) }

func (t *tree[K]) Len() int { return t.bt.Len() }

var _ index.Factory[string] = treeFactory[string]{}
