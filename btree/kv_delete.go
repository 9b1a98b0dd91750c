package btree

// Remove deletes key and reports whether it was present.
//
// Only the leaf entry is removed: nodes are never merged and the tree never
// shrinks, so a leaf may be left with fewer than two entries, or none.
func (t *Tree[K, V]) Remove(key K) bool {
	return t.deleteFromNode(t.root, key, t.height)
}

func (t *Tree[K, V]) deleteFromNode(n *node[K, V], key K, height int) bool {
	if height > 0 {
		return t.deleteFromNode(n.branchAt(t.route(n, key)).child, key, height-1)
	}

	for j := 0; j < n.count; j++ {
		if t.compare(key, n.entries[j].entryKey()) == 0 {
			n.removeAt(j)
			t.length--
			return true
		}
	}
	return false
}
