package btree

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// order is the maximum number of entries a node holds while an insert is in
// flight. Reaching it triggers a split into two nodes of order/2 entries.
const order = 4

// ErrNilKey is returned by Push when the key is a nil interface, pointer,
// map, slice, func or channel.
var ErrNilKey = errors.New("btree: key cannot be nil")

// Mode selects how Search treats a key that is not present.
type Mode int

const (
	// Equal only matches the exact key.
	Equal Mode = iota
	// Lesser falls back to the greatest key strictly below the searched one.
	Lesser
	// Greater falls back to the smallest key strictly above the searched one.
	Greater
)

func (m Mode) String() string {
	switch m {
	case Equal:
		return "equal"
	case Lesser:
		return "lesser"
	case Greater:
		return "greater"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "equal", "lesser" and "greater" to their Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "equal", "eq", "=":
		return Equal, nil
	case "lesser", "lt", "<":
		return Lesser, nil
	case "greater", "gt", ">":
		return Greater, nil
	}
	return Equal, errors.Newf("btree: unknown search mode %q", s)
}

// KeyValue represents a key-value pair stored in the B-tree
type KeyValue[K, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// entry is either a *leaf (height 0) or a *branch (height > 0).
type entry[K, V any] interface {
	entryKey() K
}

type leaf[K, V any] struct {
	key   K
	value V
}

func (l *leaf[K, V]) entryKey() K { return l.key }

// branch routes keys in [key, next sibling key) to child.
type branch[K, V any] struct {
	key   K
	child *node[K, V]
}

func (b *branch[K, V]) entryKey() K { return b.key }

type node[K, V any] struct {
	count   int
	entries [order]entry[K, V]
}

func (n *node[K, V]) leafAt(i int) *leaf[K, V] {
	return n.entries[i].(*leaf[K, V])
}

func (n *node[K, V]) branchAt(i int) *branch[K, V] {
	return n.entries[i].(*branch[K, V])
}

// insertAt shifts entries at index and above one slot right.
func (n *node[K, V]) insertAt(index int, e entry[K, V]) {
	copy(n.entries[index+1:n.count+1], n.entries[index:n.count])
	n.entries[index] = e
	n.count++
}

// removeAt shifts entries above index one slot left.
func (n *node[K, V]) removeAt(index int) {
	copy(n.entries[index:n.count-1], n.entries[index+1:n.count])
	n.count--
	n.entries[n.count] = nil
}

// split moves the upper half of a full node into a new sibling.
func (n *node[K, V]) split() *node[K, V] {
	sibling := &node[K, V]{count: order / 2}
	copy(sibling.entries[:], n.entries[order/2:order])
	for i := order / 2; i < order; i++ {
		n.entries[i] = nil
	}
	n.count = order / 2
	return sibling
}

// insertKind tags the outcome of a recursive insert.
type insertKind int

const (
	inserted insertKind = iota
	updated
	splitted
)

type insertResult[K, V any] struct {
	kind    insertKind
	sibling *node[K, V]
}
