package database

import (
	"io"
	"iter"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/alekitto/btree/btree"
	"github.com/alekitto/btree/metrics"
)

// Collection is a wrapper around a single B-tree instance plus its name.
// Unlike the tree, it is safe for concurrent use.
type Collection struct {
	name     string
	tree     *btree.Tree[string, string]
	readOnly bool
	lock     sync.RWMutex
	metrics  *metrics.Collector
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) ReadOnly() bool {
	return c.readOnly
}

// observe records op and, for mutations, the new tree shape. Callers hold
// the lock.
func (c *Collection) observe(op string, mutated bool) {
	c.metrics.ObserveOp(c.name, op)
	if mutated {
		c.metrics.ObserveTree(c.name, c.tree.Count(), c.tree.Height())
	}
}

func (c *Collection) writable() error {
	if c.readOnly {
		return errors.Wrapf(ErrReadOnly, "%q", c.name)
	}
	return nil
}

// InsertKV stores value under key, overwriting any previous value.
func (c *Collection) InsertKV(key, value string) error {
	if err := c.writable(); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if err := c.tree.Push(key, value); err != nil {
		return errors.Wrapf(err, "failed to insert key %q into collection %q", key, c.name)
	}
	c.observe("push", true)
	return nil
}

// UpdateKV overwrites an existing key and reports whether it was found.
func (c *Collection) UpdateKV(key, value string) (bool, error) {
	if err := c.writable(); err != nil {
		return false, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	updated := c.tree.Update(key, value)
	c.observe("update", false)
	return updated, nil
}

func (c *Collection) FindKey(key string) (string, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	c.observe("get", false)
	return c.tree.Get(key)
}

func (c *Collection) Search(key string, mode btree.Mode) (string, string, bool) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	c.observe("search", false)
	return c.tree.Search(key, mode)
}

// DeleteKey removes key and reports whether it was present.
func (c *Collection) DeleteKey(key string) (bool, error) {
	if err := c.writable(); err != nil {
		return false, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	deleted := c.tree.Remove(key)
	c.observe("remove", deleted)
	return deleted, nil
}

func (c *Collection) Clear() error {
	if err := c.writable(); err != nil {
		return err
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	c.tree.Clear()
	c.observe("clear", true)
	return nil
}

// All ranges over the collection in key order. The read lock is held for the
// whole iteration, so the loop body must not write to the same collection.
func (c *Collection) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		c.lock.RLock()
		defer c.lock.RUnlock()

		for k, v := range c.tree.All() {
			if !yield(k, v) {
				return
			}
		}
	}
}

func (c *Collection) Entries() []btree.KeyValue[string, string] {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tree.Entries()
}

func (c *Collection) Count() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tree.Count()
}

func (c *Collection) Height() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tree.Height()
}

func (c *Collection) Verify() error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tree.Verify()
}

func (c *Collection) Dump(w io.Writer) error {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tree.Dump(w)
}

func (c *Collection) clone() *btree.Tree[string, string] {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.tree.Clone()
}
