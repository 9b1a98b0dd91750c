package btree

import "reflect"

// Push stores value under key, overwriting any previous value.
func (t *Tree[K, V]) Push(key K, value V) error {
	if isNil(key) {
		return ErrNilKey
	}

	res := t.insert(t.root, key, value, t.height)
	if res.kind == updated {
		return nil
	}

	t.length++
	if res.kind == inserted {
		return nil
	}

	// The root split: grow the tree by one level.
	oldRoot := t.root
	root := &node[K, V]{}
	root.insertAt(0, &branch[K, V]{key: oldRoot.entries[0].entryKey(), child: oldRoot})
	root.insertAt(1, &branch[K, V]{key: res.sibling.entries[0].entryKey(), child: res.sibling})

	t.root = root
	t.height++

	t.log.Debug().
		Int("height", t.height).
		Int("length", t.length).
		Msg("root split")

	return nil
}

func (t *Tree[K, V]) insert(n *node[K, V], key K, value V, height int) insertResult[K, V] {
	var (
		j int
		e entry[K, V]
	)

	if height == 0 {
		for j = 0; j < n.count; j++ {
			l := n.leafAt(j)
			c := t.compare(key, l.key)
			if c == 0 {
				l.value = value
				return insertResult[K, V]{kind: updated}
			}
			if c < 0 {
				break
			}
		}
		e = &leaf[K, V]{key: key, value: value}
	} else {
		j = t.route(n, key)
		res := t.insert(n.branchAt(j).child, key, value, height-1)
		if res.kind != splitted {
			return res
		}

		j++
		e = &branch[K, V]{key: res.sibling.entries[0].entryKey(), child: res.sibling}
	}

	n.insertAt(j, e)
	if n.count < order {
		return insertResult[K, V]{kind: inserted}
	}

	t.log.Trace().Int("height", height).Msg("node split")
	return insertResult[K, V]{kind: splitted, sibling: n.split()}
}

func isNil(key any) bool {
	if key == nil {
		return true
	}

	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
