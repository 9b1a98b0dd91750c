package btree

import "iter"

// All returns the pairs in ascending key order. Every call walks the tree
// afresh; mutating the tree while ranging over it is not supported.
func (t *Tree[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		t.walk(t.root, t.height, yield)
	}
}

// Keys returns the keys in ascending order.
func (t *Tree[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		t.walk(t.root, t.height, func(k K, _ V) bool {
			return yield(k)
		})
	}
}

// Entries returns an ordered copy of every pair.
func (t *Tree[K, V]) Entries() []KeyValue[K, V] {
	out := make([]KeyValue[K, V], 0, t.length)
	for k, v := range t.All() {
		out = append(out, KeyValue[K, V]{Key: k, Value: v})
	}
	return out
}

func (t *Tree[K, V]) walk(n *node[K, V], height int, yield func(K, V) bool) bool {
	for j := 0; j < n.count; j++ {
		if height == 0 {
			l := n.leafAt(j)
			if !yield(l.key, l.value) {
				return false
			}
			continue
		}
		if !t.walk(n.branchAt(j).child, height-1, yield) {
			return false
		}
	}
	return true
}
