package btree

// Update overwrites the value stored under key. Unlike Push it never
// inserts, and reports whether key was present.
func (t *Tree[K, V]) Update(key K, value V) bool {
	return t.updateInNode(t.root, key, value, t.height)
}

func (t *Tree[K, V]) updateInNode(n *node[K, V], key K, value V, height int) bool {
	if height > 0 {
		return t.updateInNode(n.branchAt(t.route(n, key)).child, key, value, height-1)
	}

	for j := 0; j < n.count; j++ {
		l := n.leafAt(j)
		if t.compare(key, l.key) == 0 {
			l.value = value
			return true
		}
	}
	return false
}
