package btree

// Clone returns a deep copy of the tree. The copy shares no node or entry
// with t, so either one can be mutated without affecting the other. Keys and
// values themselves are copied by assignment.
func (t *Tree[K, V]) Clone() *Tree[K, V] {
	return &Tree[K, V]{
		root:    cloneNode(t.root, t.height),
		height:  t.height,
		length:  t.length,
		compare: t.compare,
		log:     t.log,
	}
}

func cloneNode[K, V any](n *node[K, V], height int) *node[K, V] {
	c := &node[K, V]{count: n.count}
	for j := 0; j < n.count; j++ {
		if height == 0 {
			l := n.leafAt(j)
			c.entries[j] = &leaf[K, V]{key: l.key, value: l.value}
			continue
		}
		b := n.branchAt(j)
		c.entries[j] = &branch[K, V]{key: b.key, child: cloneNode(b.child, height-1)}
	}
	return c
}
