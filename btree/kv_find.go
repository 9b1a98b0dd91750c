package btree

// Search looks key up according to mode and returns the matching pair.
//
// An exact match always wins. Otherwise Lesser returns the pair with the
// greatest key below key, Greater the pair with the smallest key above it,
// and Equal reports nothing.
func (t *Tree[K, V]) Search(key K, mode Mode) (K, V, bool) {
	if l := t.search(t.root, key, mode, t.height); l != nil {
		return l.key, l.value, true
	}

	var (
		zeroK K
		zeroV V
	)
	return zeroK, zeroV, false
}

// Get returns the value stored under key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	_, v, ok := t.Search(key, Equal)
	return v, ok
}

// Has reports whether key is present.
func (t *Tree[K, V]) Has(key K) bool {
	_, ok := t.Get(key)
	return ok
}

func (t *Tree[K, V]) search(n *node[K, V], key K, mode Mode, height int) *leaf[K, V] {
	if height == 0 {
		return t.searchLeaf(n, key, mode)
	}

	j := t.route(n, key)
	if found := t.search(n.branchAt(j).child, key, mode, height-1); found != nil || mode == Equal {
		return found
	}

	// The routed subtree had no neighbour on the requested side. Removals
	// can empty whole leaves, so keep walking siblings until one answers.
	switch mode {
	case Greater:
		for i := j + 1; i < n.count; i++ {
			if found := t.search(n.branchAt(i).child, key, mode, height-1); found != nil {
				return found
			}
		}
	case Lesser:
		for i := j - 1; i >= 0; i-- {
			if found := t.search(n.branchAt(i).child, key, mode, height-1); found != nil {
				return found
			}
		}
	}
	return nil
}

func (t *Tree[K, V]) searchLeaf(n *node[K, V], key K, mode Mode) *leaf[K, V] {
	var nearest *leaf[K, V]
	for j := 0; j < n.count; j++ {
		l := n.leafAt(j)
		c := t.compare(key, l.key)
		switch {
		case c == 0:
			return l
		case mode == Lesser && c > 0:
			nearest = l
		case mode == Greater && c < 0:
			return l
		}
	}
	return nearest
}
