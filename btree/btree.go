// Package btree implements an in-memory ordered map on top of a 2-3-4 tree
// (a B-tree of order 4).
//
// Leaves hold the key-value pairs and all sit at the same depth. Internal
// nodes only route: each of their entries carries the smallest key of the
// subtree it owns. Removal never rebalances, so nodes may end up underfull
// after heavy deletion; lookups and iteration stay correct regardless.
//
// A Tree is not safe for concurrent use.
package btree

import (
	"cmp"

	"github.com/rs/zerolog"
)

// Tree is an ordered map from K to V.
type Tree[K, V any] struct {
	root    *node[K, V]
	height  int
	length  int
	compare func(a, b K) int
	log     zerolog.Logger
}

// Option configures a Tree at construction.
type Option func(*options)

type options struct {
	log zerolog.Logger
}

// WithLogger makes the tree report splits and root growth to log.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New returns an empty tree ordered by cmp.Compare.
func New[K cmp.Ordered, V any](opts ...Option) *Tree[K, V] {
	return NewFunc[K, V](cmp.Compare[K], opts...)
}

// NewFunc returns an empty tree ordered by compare, which must return a
// negative number, zero or a positive number when a is less than, equal to
// or greater than b.
func NewFunc[K, V any](compare func(a, b K) int, opts ...Option) *Tree[K, V] {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tree[K, V]{
		compare: compare,
		log:     o.log,
	}
	t.Clear()
	return t
}

// Clear drops every entry.
func (t *Tree[K, V]) Clear() {
	t.root = &node[K, V]{}
	t.height = 0
	t.length = 0
}

// Count returns the number of key-value pairs.
func (t *Tree[K, V]) Count() int {
	return t.length
}

// IsEmpty reports whether the tree holds no pairs.
func (t *Tree[K, V]) IsEmpty() bool {
	return t.length == 0
}

// Height returns the number of routing levels above the leaves. It is meant
// for diagnostics.
func (t *Tree[K, V]) Height() int {
	return t.height
}

// route returns the index of the last entry whose key is not greater than
// key, or 0 when key sorts before every entry.
func (t *Tree[K, V]) route(n *node[K, V], key K) int {
	for j := 0; j < n.count; j++ {
		if j+1 == n.count || t.compare(key, n.entries[j+1].entryKey()) < 0 {
			return j
		}
	}
	return 0
}
