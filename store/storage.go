package store

import "errors"

// treeBucket names the keyspace that holds the tree in backends that have
// more than one (the Bolt bucket, the Badger key prefix).
const treeBucket = "tree"

var errReadOnlyTx = errors.New("store: read-only transaction")

// storage is a sorted keyspace of leaf paths kept by a backend (Bolt,
// Badger, in-memory). Keys are slash-separated leaf paths, values are
// encoded leaves.
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

// storageTx reads and writes leaves within one transaction.
type storageTx interface {
	// Get returns the leaf stored under key, or nil.
	Get(key []byte) []byte

	// Scan calls f for every key that starts with prefix, in key order, and
	// stops at the first error. An empty prefix visits the whole tree. The
	// slices passed to f are only valid during the call, and f must not
	// modify the transaction.
	Scan(prefix []byte, f func(key, value []byte) error) error

	Put(key, value []byte) error
	Delete(key []byte) error

	// DeletePrefix removes every key that starts with prefix. An empty
	// prefix clears the tree.
	DeletePrefix(prefix []byte) error

	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error
}
