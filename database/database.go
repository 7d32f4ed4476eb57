// Package database ties the index, the vector space and their storage
// together into one handle opened from a directory.
package database

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/docker/libkv/store"
	"github.com/sirupsen/logrus"

	"MTreeDB/kvstore"
	"MTreeDB/mtree"
	"MTreeDB/space"
)

const (
	indexFileName = "index.mtree"
	kvDirName     = "kv"
	pagePrefix    = "index/"
	spacePrefix   = "space/"
)

// Backend selects where index pages are kept.
type Backend string

const (
	// BackendFile keeps the pages in dir/index.mtree.
	BackendFile Backend = "file"
	// BackendKV keeps the pages in the Badger store next to the vectors.
	BackendKV Backend = "kv"
)

type Options struct {
	Backend Backend
	Dim     int
	Metric  string
	// Split is "mlbdist" (default) or "mmrad"; Distribution is "balanced"
	// (default) or "hyperplane".
	Split        string
	Distribution string
	Index        mtree.Config
	Logger       *logrus.Logger
}

type DB struct {
	dir   string
	tree  *mtree.Tree
	space *space.Space
	kv    *kvstore.Store
	log   *logrus.Entry
}

// Result is one vector found by a query.
type Result struct {
	ID       mtree.ObjectID
	Distance float64
	Vector   []float64
}

// Open opens the database in dir, creating it if needed. An empty dir gives a
// purely in-memory database. The dimension and metric of an existing
// database override opts.
func Open(dir string, opts Options) (*DB, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	opts.Index.Logger = opts.Logger
	if opts.Index.PageSize == 0 {
		opts.Index.PageSize = mtree.DefaultPageSize
	}
	if opts.Backend == "" {
		opts.Backend = BackendFile
	}

	db := &DB{dir: dir, log: opts.Logger.WithField("component", "database")}

	var pager mtree.Pager
	if dir == "" {
		if opts.Dim <= 0 {
			return nil, errors.Newf("dimension must be positive, got %d", opts.Dim)
		}
		metric, err := space.ParseMetric(opts.Metric)
		if err != nil {
			return nil, err
		}
		db.space = space.New(metric, opts.Dim)
		pager = mtree.NewInMemoryPager(opts.Index.PageSize)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create %s", dir)
		}
		kv, err := kvstore.Open(filepath.Join(dir, kvDirName), opts.Logger)
		if err != nil {
			return nil, err
		}
		db.kv = kv

		if err := loadSpaceMeta(kv, &opts); err != nil {
			kv.Close()
			return nil, err
		}
		metric, err := space.ParseMetric(opts.Metric)
		if err != nil {
			kv.Close()
			return nil, err
		}
		if db.space, err = space.Open(kv, spacePrefix, metric, opts.Dim); err != nil {
			kv.Close()
			return nil, err
		}

		switch opts.Backend {
		case BackendFile:
			pager, err = mtree.NewOnDiskPager(filepath.Join(dir, indexFileName), opts.Index.PageSize)
		case BackendKV:
			pager, err = mtree.NewKVPager(kv, pagePrefix, opts.Index.PageSize)
		default:
			err = errors.Newf("unknown backend %q", opts.Backend)
		}
		if err != nil {
			kv.Close()
			return nil, err
		}
	}

	split, err := splitStrategy(opts.Split, opts.Distribution)
	if err != nil {
		db.closeStorage(pager)
		return nil, err
	}
	settings := mtree.Settings{
		Distance:      db.space,
		SplitStrategy: split,
	}
	if db.tree, err = mtree.OpenTree(pager, settings, opts.Index); err != nil {
		db.closeStorage(pager)
		return nil, err
	}

	db.log.WithFields(logrus.Fields{
		"dir":     dir,
		"backend": opts.Backend,
		"dim":     db.space.Dim(),
		"metric":  db.space.Metric().Name(),
		"vectors": db.space.Len(),
	}).Info("opened database")
	return db, nil
}

// loadSpaceMeta reads the dimension and metric of an existing database, or
// records those of opts for a new one.
func loadSpaceMeta(kv store.Store, opts *Options) error {
	pair, err := kv.Get(spacePrefix + "meta/dim")
	if err == store.ErrKeyNotFound {
		if opts.Dim <= 0 {
			return errors.Newf("dimension must be positive, got %d", opts.Dim)
		}
		metric, err := space.ParseMetric(opts.Metric)
		if err != nil {
			return err
		}
		if err := kv.Put(spacePrefix+"meta/dim", []byte(strconv.Itoa(opts.Dim)), nil); err != nil {
			return err
		}
		return kv.Put(spacePrefix+"meta/metric", []byte(metric.Name()), nil)
	} else if err != nil {
		return err
	}

	dim, err := strconv.Atoi(string(pair.Value))
	if err != nil {
		return errors.Wrap(err, "bad stored dimension")
	}
	opts.Dim = dim
	pair, err = kv.Get(spacePrefix + "meta/metric")
	if err != nil {
		return errors.Wrap(err, "failed to read stored metric")
	}
	opts.Metric = string(pair.Value)
	return nil
}

func splitStrategy(split, distribution string) (mtree.SplitStrategy, error) {
	var dist mtree.Distribution
	switch distribution {
	case "", "balanced":
		dist = mtree.BalancedDistribution{}
	case "hyperplane":
		dist = mtree.HyperplaneDistribution{}
	default:
		return nil, errors.Newf("unknown distribution %q", distribution)
	}
	switch split {
	case "", "mlbdist":
		return mtree.MLBDistSplit{Distribution: dist}, nil
	case "mmrad":
		return mtree.MMRadSplit{Distribution: dist}, nil
	}
	return nil, errors.Newf("unknown split strategy %q", split)
}

func (db *DB) closeStorage(p mtree.Pager) {
	if p != nil {
		p.Close()
	}
	if db.kv != nil {
		db.kv.Close()
	}
}

func (db *DB) Tree() *mtree.Tree   { return db.tree }
func (db *DB) Space() *space.Space { return db.space }
func (db *DB) Dir() string         { return db.dir }

// Insert stores v and indexes it.
func (db *DB) Insert(v []float64) (mtree.ObjectID, error) {
	id, err := db.space.Add(v)
	if err != nil {
		return 0, err
	}
	if err := db.tree.InsertObject(id); err != nil {
		return 0, errors.Wrapf(err, "failed to index vector %d", id)
	}
	return id, nil
}

// Range returns the vectors within radius of q.
func (db *DB) Range(q []float64, radius float64) ([]Result, error) {
	if err := db.space.SetQuery(q); err != nil {
		return nil, err
	}
	neighbors, err := db.tree.RangeQuery(space.QueryID, radius)
	if err != nil {
		return nil, err
	}
	return db.results(neighbors), nil
}

// KNN returns the k vectors nearest to q.
func (db *DB) KNN(q []float64, k int) ([]Result, error) {
	if err := db.space.SetQuery(q); err != nil {
		return nil, err
	}
	neighbors, err := db.tree.KNNQuery(space.QueryID, k)
	if err != nil {
		return nil, err
	}
	return db.results(neighbors), nil
}

func (db *DB) results(neighbors []mtree.Neighbor) []Result {
	results := make([]Result, len(neighbors))
	for i, n := range neighbors {
		v, _ := db.space.Vector(n.ID)
		results[i] = Result{ID: n.ID, Distance: n.Distance, Vector: v}
	}
	return results
}

// Close flushes the index and closes all storage.
func (db *DB) Close() error {
	err := db.tree.Sync()
	if cerr := db.tree.Close(); err == nil {
		err = cerr
	}
	if db.kv != nil {
		db.kv.Close()
	}
	return err
}
