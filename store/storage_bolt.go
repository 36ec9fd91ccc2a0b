package store

import (
	"bytes"

	"go.etcd.io/bbolt"
)

var boltTreeBucket = []byte(treeBucket)

// boltStorage keeps the tree in a single bucket, created by the first write.
type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) storage {
	return &boltStorage{bdb: bdb}
}

func (s *boltStorage) BeginTx(writable bool) (storageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &boltStorageTx{btx: btx}, nil
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

type boltStorageTx struct {
	btx *bbolt.Tx
}

func (tx *boltStorageTx) bucket() *bbolt.Bucket {
	return tx.btx.Bucket(boltTreeBucket)
}

func (tx *boltStorageTx) Get(key []byte) []byte {
	if b := tx.bucket(); b != nil {
		return b.Get(key)
	}
	return nil
}

func (tx *boltStorageTx) Scan(prefix []byte, f func(key, value []byte) error) error {
	b := tx.bucket()
	if b == nil {
		return nil
	}
	c := b.Cursor()
	for k, v := boltSeek(c, prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := f(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (tx *boltStorageTx) Put(key, value []byte) error {
	b, err := tx.btx.CreateBucketIfNotExists(boltTreeBucket)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

func (tx *boltStorageTx) Delete(key []byte) error {
	if b := tx.bucket(); b != nil {
		return b.Delete(key)
	}
	return nil
}

// DeletePrefix drops the whole bucket for an empty prefix. Otherwise it
// deletes under the cursor, seeking again after every deletion since a
// Bolt cursor may skip the entry that follows a deleted one.
func (tx *boltStorageTx) DeletePrefix(prefix []byte) error {
	b := tx.bucket()
	if b == nil {
		return nil
	}
	if len(prefix) == 0 {
		return tx.btx.DeleteBucket(boltTreeBucket)
	}
	c := b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
		if err := c.Delete(); err != nil {
			return err
		}
	}
	return nil
}

func (tx *boltStorageTx) Commit() error { return tx.btx.Commit() }

func (tx *boltStorageTx) Rollback() error {
	err := tx.btx.Rollback()
	if err == bbolt.ErrTxClosed {
		return nil
	}
	return err
}

func boltSeek(c *bbolt.Cursor, prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.First()
	}
	return c.Seek(prefix)
}
