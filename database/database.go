package database

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/alekitto/btree/btree"
	"github.com/alekitto/btree/metrics"
)

var (
	ErrCollectionExists   = errors.New("collection already exists")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrReadOnly           = errors.New("collection is read-only")
)

const DefaultMaxSnapshots = 16

type Options struct {
	// MaxSnapshots bounds how many snapshots are retained; the least
	// recently used one is evicted first.
	MaxSnapshots int
	Logger       zerolog.Logger
	Metrics      *metrics.Collector
}

// snapshot is a frozen deep copy of a collection's tree.
type snapshot struct {
	collection string
	tree       *btree.Tree[string, string]
	created    time.Time
}

// Database is an in-memory set of named collections, each backed by its own
// B-tree, plus a bounded pool of point-in-time snapshots.
type Database struct {
	id          string
	collections map[string]*Collection
	snapshots   *lru.Cache[string, *snapshot]
	lock        sync.RWMutex
	log         zerolog.Logger
	metrics     *metrics.Collector
	closing     atomic.Bool
}

func NewDatabase(opts Options) (*Database, error) {
	if opts.MaxSnapshots == 0 {
		opts.MaxSnapshots = DefaultMaxSnapshots
	}

	id, err := newID("db")
	if err != nil {
		return nil, err
	}

	db := &Database{
		id:          id,
		collections: make(map[string]*Collection),
		log:         opts.Logger.With().Str("db", id).Logger(),
		metrics:     opts.Metrics,
	}

	db.snapshots, err = lru.NewWithEvict[string, *snapshot](opts.MaxSnapshots, func(id string, s *snapshot) {
		if db.closing.Load() {
			return
		}
		db.log.Info().
			Str("snapshot", id).
			Str("collection", s.collection).
			Msg("snapshot evicted")
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create snapshot cache")
	}

	db.log.Debug().Int("max_snapshots", opts.MaxSnapshots).Msg("database created")
	return db, nil
}

// newID mints identifiers of the form <prefix>_<first uuid segment>.
func newID(prefix string) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate uuid")
	}
	return fmt.Sprintf("%s_%s", prefix, strings.Split(u.String(), "-")[0]), nil
}

func (db *Database) ID() string {
	return db.id
}

// CreateCollection adds an empty collection.
func (db *Database) CreateCollection(name string) (*Collection, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, exists := db.collections[name]; exists {
		return nil, errors.Wrapf(ErrCollectionExists, "%q", name)
	}

	coll := db.newCollection(name, btree.New[string, string](btree.WithLogger(db.log.With().Str("collection", name).Logger())), false)
	db.collections[name] = coll

	db.log.Info().Str("collection", name).Msg("collection created")
	db.metrics.ObserveTree(name, 0, 0)
	return coll, nil
}

// newCollection wraps tree. Read-only snapshot views are not instrumented:
// their names are snapshot ids, which come and go with the LRU.
func (db *Database) newCollection(name string, tree *btree.Tree[string, string], readOnly bool) *Collection {
	coll := &Collection{
		name:     name,
		tree:     tree,
		readOnly: readOnly,
	}
	if !readOnly {
		coll.metrics = db.metrics
	}
	return coll
}

func (db *Database) GetCollection(name string) (*Collection, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	coll, ok := db.collections[name]
	if !ok {
		return nil, errors.Wrapf(ErrCollectionNotFound, "%q", name)
	}
	return coll, nil
}

func (db *Database) DropCollection(name string) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	if _, ok := db.collections[name]; !ok {
		return errors.Wrapf(ErrCollectionNotFound, "%q", name)
	}
	delete(db.collections, name)

	db.log.Info().Str("collection", name).Msg("collection dropped")
	db.metrics.Forget(name)
	return nil
}

// ListCollections returns the collection names in ascending order.
func (db *Database) ListCollections() []string {
	db.lock.RLock()
	defer db.lock.RUnlock()

	names := make([]string, 0, len(db.collections))
	for name := range db.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot deep-copies a collection and returns the snapshot id.
func (db *Database) Snapshot(name string) (string, error) {
	coll, err := db.GetCollection(name)
	if err != nil {
		return "", err
	}

	id, err := newID("snap")
	if err != nil {
		return "", err
	}

	s := &snapshot{
		collection: name,
		tree:       coll.clone(),
		created:    time.Now(),
	}
	db.snapshots.Add(id, s)

	db.log.Info().
		Str("snapshot", id).
		Str("collection", name).
		Int("count", s.tree.Count()).
		Msg("snapshot taken")
	db.metrics.SetSnapshots(db.snapshots.Len())
	return id, nil
}

// GetSnapshot returns a read-only view over a snapshot.
func (db *Database) GetSnapshot(id string) (*Collection, error) {
	s, ok := db.snapshots.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrSnapshotNotFound, "%q", id)
	}
	return db.newCollection(id, s.tree, true), nil
}

// Restore replaces the named collection, creating it if needed, with a copy
// of the snapshot. The snapshot itself stays untouched and can be restored
// again.
func (db *Database) Restore(id, name string) (*Collection, error) {
	s, ok := db.snapshots.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrSnapshotNotFound, "%q", id)
	}

	db.lock.Lock()
	defer db.lock.Unlock()

	coll := db.newCollection(name, s.tree.Clone(), false)
	db.collections[name] = coll

	db.log.Info().
		Str("snapshot", id).
		Str("collection", name).
		Time("taken", s.created).
		Msg("snapshot restored")
	db.metrics.ObserveTree(name, coll.tree.Count(), coll.tree.Height())
	return coll, nil
}

// ListSnapshots returns the retained snapshot ids, oldest first.
func (db *Database) ListSnapshots() []string {
	return db.snapshots.Keys()
}

// Close drops every collection and snapshot.
func (db *Database) Close() error {
	db.lock.Lock()
	defer db.lock.Unlock()

	for name := range db.collections {
		db.metrics.Forget(name)
	}
	db.collections = make(map[string]*Collection)

	db.closing.Store(true)
	retained := db.snapshots.Len()
	db.snapshots.Purge()
	db.closing.Store(false)
	db.metrics.SetSnapshots(0)

	db.log.Debug().Int("snapshots", retained).Msg("database closed")
	return nil
}
