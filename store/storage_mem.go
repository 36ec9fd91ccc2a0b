package store

import (
	"bytes"
	"slices"
	"strings"
	"sync"
)

// memStorage keeps leaves in a slice sorted by path. Entries are never
// changed in place: a read tx shares the committed slice, and a write tx
// copies it on its first change and swaps it in on commit.
type memStorage struct {
	mu     sync.Mutex
	cond   *sync.Cond
	leaves []memLeaf
	closed bool
	writer bool
}

type memLeaf struct {
	path  string
	value []byte
}

// newMemStorage returns a transient in-memory storage intended for tests
// and tools.
func newMemStorage() storage {
	s := &memStorage{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
	}
	if s.closed {
		return nil, ErrClosed
	}
	if writable {
		s.writer = true
	}
	return &memTx{base: s, writable: writable, leaves: s.leaves}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.leaves = nil
	s.cond.Broadcast()
	return nil
}

type memTx struct {
	base     *memStorage
	writable bool
	leaves   []memLeaf
	owned    bool
	done     bool
}

func (tx *memTx) search(path string) (int, bool) {
	return slices.BinarySearchFunc(tx.leaves, path, func(l memLeaf, path string) int {
		return strings.Compare(l.path, path)
	})
}

// prefixRange returns the half-open index range of leaves under prefix.
func (tx *memTx) prefixRange(prefix string) (lo, hi int) {
	lo, _ = tx.search(prefix)
	hi = lo
	for hi < len(tx.leaves) && strings.HasPrefix(tx.leaves[hi].path, prefix) {
		hi++
	}
	return lo, hi
}

func (tx *memTx) mutate() error {
	if tx.done {
		return ErrClosed
	}
	if !tx.writable {
		return errReadOnlyTx
	}
	if !tx.owned {
		tx.leaves = slices.Clone(tx.leaves)
		tx.owned = true
	}
	return nil
}

func (tx *memTx) Get(key []byte) []byte {
	if i, ok := tx.search(string(key)); ok {
		return tx.leaves[i].value
	}
	return nil
}

func (tx *memTx) Scan(prefix []byte, f func(key, value []byte) error) error {
	lo, hi := tx.prefixRange(string(prefix))
	for _, l := range tx.leaves[lo:hi] {
		if err := f([]byte(l.path), l.value); err != nil {
			return err
		}
	}
	return nil
}

func (tx *memTx) Put(key, value []byte) error {
	if err := tx.mutate(); err != nil {
		return err
	}
	l := memLeaf{string(key), bytes.Clone(value)}
	if i, ok := tx.search(l.path); ok {
		tx.leaves[i] = l
	} else {
		tx.leaves = slices.Insert(tx.leaves, i, l)
	}
	return nil
}

func (tx *memTx) Delete(key []byte) error {
	if err := tx.mutate(); err != nil {
		return err
	}
	if i, ok := tx.search(string(key)); ok {
		tx.leaves = slices.Delete(tx.leaves, i, i+1)
	}
	return nil
}

func (tx *memTx) DeletePrefix(prefix []byte) error {
	if err := tx.mutate(); err != nil {
		return err
	}
	lo, hi := tx.prefixRange(string(prefix))
	tx.leaves = slices.Delete(tx.leaves, lo, hi)
	return nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	if !tx.writable {
		return errReadOnlyTx
	}
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	defer tx.finishLocked()
	if tx.base.closed {
		return ErrClosed
	}
	if tx.owned {
		tx.base.leaves = tx.leaves
	}
	return nil
}

func (tx *memTx) Rollback() error {
	tx.base.mu.Lock()
	defer tx.base.mu.Unlock()
	tx.finishLocked()
	return nil
}

func (tx *memTx) finishLocked() {
	if tx.done {
		return
	}
	tx.done = true
	if tx.writable {
		tx.base.writer = false
		tx.base.cond.Broadcast()
	}
}
