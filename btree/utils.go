package btree

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// Verify checks the structural invariants of the tree and returns the first
// violation found.
func (t *Tree[K, V]) Verify() error {
	if t.root == nil {
		return errors.New("btree: nil root")
	}

	v := verifier[K, V]{t: t}
	if err := v.node(t.root, t.height, nil, nil, true); err != nil {
		return err
	}
	if v.leaves != t.length {
		return errors.Errorf("btree: length is %d but %d leaf entries are reachable", t.length, v.leaves)
	}
	return nil
}

type verifier[K, V any] struct {
	t      *Tree[K, V]
	leaves int
	last   *K
}

// node checks n against the half-open key range [lo, hi); a nil bound is
// unbounded.
func (v *verifier[K, V]) node(n *node[K, V], height int, lo, hi *K, isRoot bool) error {
	if n.count >= order {
		return errors.Errorf("btree: node at height %d holds %d entries", height, n.count)
	}
	if height > 0 && n.count < order/2 && !(isRoot && n.count == 0) {
		return errors.Errorf("btree: internal node at height %d holds %d entries", height, n.count)
	}
	for j := n.count; j < order; j++ {
		if n.entries[j] != nil {
			return errors.Errorf("btree: stale entry in slot %d at height %d", j, height)
		}
	}

	for j := 0; j < n.count; j++ {
		key := n.entries[j].entryKey()

		// Entry 0 of an internal node keeps the key it had when its node
		// was created and is never consulted by route, so it carries no
		// ordering constraint.
		if height == 0 || j > 0 {
			if lo != nil && v.t.compare(key, *lo) < 0 {
				return errors.Errorf("btree: key %v below routing bound %v at height %d", key, *lo, height)
			}
			if hi != nil && v.t.compare(key, *hi) >= 0 {
				return errors.Errorf("btree: key %v not below routing bound %v at height %d", key, *hi, height)
			}
		}
		if (height == 0 && j > 0) || j > 1 {
			if v.t.compare(n.entries[j-1].entryKey(), key) >= 0 {
				return errors.Errorf("btree: keys out of order at height %d slot %d", height, j)
			}
		}

		if height == 0 {
			if _, ok := n.entries[j].(*leaf[K, V]); !ok {
				return errors.Errorf("btree: branch entry found at the leaf level")
			}
			if v.last != nil && v.t.compare(*v.last, key) >= 0 {
				return errors.Errorf("btree: leaf key %v does not follow %v", key, *v.last)
			}
			v.last = &key
			v.leaves++
			continue
		}

		b, ok := n.entries[j].(*branch[K, V])
		if !ok {
			return errors.Errorf("btree: leaf entry found at height %d", height)
		}
		if b.child == nil {
			return errors.Errorf("btree: branch %v at height %d has no child", key, height)
		}

		childLo := lo
		if j > 0 {
			childLo = &b.key
		}
		childHi := hi
		if j+1 < n.count {
			next := n.entries[j+1].entryKey()
			childHi = &next
		}
		if err := v.node(b.child, height-1, childLo, childHi, false); err != nil {
			return errors.Wrapf(err, "under %v", key)
		}
	}
	return nil
}

// Dump writes one line per entry, indented by depth.
func (t *Tree[K, V]) Dump(w io.Writer) error {
	return dumpNode(w, t.root, t.height, 0)
}

func dumpNode[K, V any](w io.Writer, n *node[K, V], height, depth int) error {
	indent := strings.Repeat("  ", depth)
	if n.count == 0 {
		_, err := fmt.Fprintf(w, "%s(empty)\n", indent)
		return err
	}

	for j := 0; j < n.count; j++ {
		if height == 0 {
			l := n.leafAt(j)
			if _, err := fmt.Fprintf(w, "%s%v: %v\n", indent, l.key, l.value); err != nil {
				return err
			}
			continue
		}

		b := n.branchAt(j)
		if _, err := fmt.Fprintf(w, "%s[%v]\n", indent, b.key); err != nil {
			return err
		}
		if err := dumpNode(w, b.child, height-1, depth+1); err != nil {
			return err
		}
	}
	return nil
}
