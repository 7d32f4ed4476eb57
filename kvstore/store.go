// Package kvstore is a Badger database behind libkv's store.Store interface.
// The index keeps its pages and the vector space keeps its vectors in it.
package kvstore

import (
	"bytes"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger"
	"github.com/docker/libkv/store"
	"github.com/sirupsen/logrus"
)

const (
	// ValueLogFileSize keeps the value log small; index pages are tiny.
	ValueLogFileSize = 64 << 20
	// maxBatchSize bounds the number of deletes in one transaction.
	maxBatchSize = 65536
)

type Store struct {
	db  *badger.DB
	log *logrus.Entry
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the Badger database in dir.
func Open(dir string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithField("component", "kvstore")

	opts := badger.DefaultOptions(dir)
	opts.ValueLogFileSize = ValueLogFileSize
	opts.Logger = entry
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger database in %s", dir)
	}
	entry.WithField("dir", dir).Info("opened key-value store")
	return &Store{db: db, log: entry}, nil
}

func (s *Store) DB() *badger.DB {
	return s.db
}

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		s.log.WithError(err).Warn("failed to close badger database")
	}
}

func (s *Store) Get(key string) (*store.KVPair, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, store.ErrKeyNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "get %q", key)
	}
	return &store.KVPair{Key: key, Value: val}, nil
}

func (s *Store) Exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "exists %q", key)
	}
	return true, nil
}

func (s *Store) Put(key string, value []byte, _ *store.WriteOptions) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	return errors.Wrapf(err, "put %q", key)
}

func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return errors.Wrapf(err, "delete %q", key)
}

// List returns every pair whose key starts with prefix, in key order.
func (s *Store) List(prefix string) ([]*store.KVPair, error) {
	var pairs []*store.KVPair
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			pairs = append(pairs, &store.KVPair{Key: string(item.KeyCopy(nil)), Value: val})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list %q", prefix)
	}
	if len(pairs) == 0 {
		return nil, store.ErrKeyNotFound
	}
	return pairs, nil
}

// DeleteTree deletes every key starting with prefix, in batches.
func (s *Store) DeleteTree(prefix string) error {
	p := []byte(prefix)
	for more := true; more; {
		more = false
		err := s.db.Update(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.IteratorOptions{})
			defer it.Close()
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				// Txn.Delete keeps the slice, the iterator reuses it
				err := txn.Delete(it.Item().KeyCopy(nil))
				if err == badger.ErrTxnTooBig {
					more = true
					return nil
				} else if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "delete tree %q", prefix)
		}
	}
	return nil
}

// checkPrevious compares the current value of key against previous inside txn.
func checkPrevious(txn *badger.Txn, key []byte, previous *store.KVPair) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		if previous != nil {
			return store.ErrKeyNotFound
		}
		return nil
	} else if err != nil {
		return err
	}
	if previous == nil {
		return store.ErrKeyExists
	}
	return item.Value(func(old []byte) error {
		if !bytes.Equal(previous.Value, old) {
			return store.ErrKeyModified
		}
		return nil
	})
}

func (s *Store) AtomicPut(key string, value []byte, previous *store.KVPair, _ *store.WriteOptions) (bool, *store.KVPair, error) {
	k := []byte(key)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := checkPrevious(txn, k, previous); err != nil {
			return err
		}
		return txn.Set(k, value)
	})
	if err != nil {
		return false, nil, err
	}
	return true, &store.KVPair{Key: key, Value: value}, nil
}

func (s *Store) AtomicDelete(key string, previous *store.KVPair) (bool, error) {
	if previous == nil {
		return false, store.ErrPreviousNotSpecified
	}
	k := []byte(key)
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := checkPrevious(txn, k, previous); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	return err == nil, err
}

func (*Store) Watch(string, <-chan struct{}) (<-chan *store.KVPair, error) {
	return nil, store.ErrCallNotSupported
}

func (*Store) WatchTree(string, <-chan struct{}) (<-chan []*store.KVPair, error) {
	return nil, store.ErrCallNotSupported
}

func (*Store) NewLock(string, *store.LockOptions) (store.Locker, error) {
	return nil, store.ErrCallNotSupported
}

// Prefix joins path elements into a key prefix ending with "/".
func Prefix(parts ...string) string {
	return strings.Join(parts, "/") + "/"
}
