package store

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Badger has a single flat keyspace, so leaf paths are stored under a
// "tree\x00" key prefix.
var badgerTreePrefix = []byte(treeBucket + "\x00")

type badgerStorage struct {
	bdb *badger.DB
}

func newBadgerStorage(bdb *badger.DB) storage {
	return &badgerStorage{bdb: bdb}
}

func (s *badgerStorage) BeginTx(writable bool) (storageTx, error) {
	if s.bdb.IsClosed() {
		return nil, ErrClosed
	}
	return &badgerStorageTx{txn: s.bdb.NewTransaction(writable)}, nil
}

func (s *badgerStorage) Close() error {
	return s.bdb.Close()
}

type badgerStorageTx struct {
	txn  *badger.Txn
	done bool
}

func badgerKey(path []byte) []byte {
	full := make([]byte, 0, len(badgerTreePrefix)+len(path))
	full = append(full, badgerTreePrefix...)
	return append(full, path...)
}

func (tx *badgerStorageTx) Get(key []byte) []byte {
	item, err := tx.txn.Get(badgerKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	ensure(err)
	return must(item.ValueCopy(nil))
}

func (tx *badgerStorageTx) iterate(prefix []byte, values bool, f func(item *badger.Item) error) error {
	full := badgerKey(prefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = full
	opts.PrefetchValues = values
	it := tx.txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(full); it.ValidForPrefix(full); it.Next() {
		if err := f(it.Item()); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerStorageTx) Scan(prefix []byte, f func(key, value []byte) error) error {
	return tx.iterate(prefix, true, func(item *badger.Item) error {
		key := item.Key()[len(badgerTreePrefix):]
		return item.Value(func(v []byte) error {
			return f(key, v)
		})
	})
}

func (tx *badgerStorageTx) Put(key, value []byte) error {
	return tx.txn.Set(badgerKey(key), bytes.Clone(value))
}

func (tx *badgerStorageTx) Delete(key []byte) error {
	return tx.txn.Delete(badgerKey(key))
}

// DeletePrefix collects keys with a key-only iterator first, since a
// read-write txn allows no writes while its iterator is open.
func (tx *badgerStorageTx) DeletePrefix(prefix []byte) error {
	var keys [][]byte
	err := tx.iterate(prefix, false, func(item *badger.Item) error {
		keys = append(keys, item.KeyCopy(nil))
		return nil
	})
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := tx.txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (tx *badgerStorageTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	return tx.txn.Commit()
}

func (tx *badgerStorageTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.txn.Discard()
	return nil
}
