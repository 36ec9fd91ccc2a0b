package store

import (
	"testing"
)

func scanKeys(t testing.TB, tx storageTx, prefix string) []string {
	t.Helper()
	var keys []string
	ensure(tx.Scan([]byte(prefix), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	return keys
}

func TestStorage_ScanAndDeletePrefix(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db *DB) {
		ensure(db.update(func(tx storageTx) error {
			for _, k := range []string{"users/u1/name", "users/u1/address/city", "users/u10/name", "users/u2/name", "usersx"} {
				ensure(tx.Put([]byte(k), []byte(k)))
			}
			return nil
		}))

		ensure(db.view(func(tx storageTx) error {
			deepEqual(t, scanKeys(t, tx, "users/u1/"), []string{"users/u1/address/city", "users/u1/name"})
			deepEqual(t, len(scanKeys(t, tx, "")), 5)
			deepEqual(t, string(tx.Get([]byte("users/u2/name"))), "users/u2/name")
			deepEqual(t, tx.Get([]byte("users/u3/name")) == nil, true)
			return nil
		}))

		ensure(db.update(func(tx storageTx) error {
			return tx.DeletePrefix([]byte("users/u1/"))
		}))
		ensure(db.view(func(tx storageTx) error {
			deepEqual(t, scanKeys(t, tx, ""), []string{"users/u10/name", "users/u2/name", "usersx"})
			return nil
		}))

		ensure(db.update(func(tx storageTx) error {
			return tx.DeletePrefix(nil)
		}))
		ensure(db.view(func(tx storageTx) error {
			isempty(t, scanKeys(t, tx, ""))
			return nil
		}))
	})
}

func TestStorage_RollbackDiscardsWrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db *DB) {
		ensure(db.Ref("a").Set(ctx, "kept"))

		tx := must(db.st.BeginTx(true))
		ensure(tx.Put([]byte("b"), []byte("x")))
		ensure(tx.DeletePrefix(nil))
		ensure(tx.Rollback())
		ensure(tx.Rollback())

		deepEqual(t, get(t, db, ""), any(map[string]any{"a": "kept"}))
	})
}

func TestStorage_ReadOnlyTx(t *testing.T) {
	forEachBackend(t, func(t *testing.T, db *DB) {
		tx := must(db.st.BeginTx(false))
		defer tx.Rollback()
		if err := tx.Put([]byte("a"), []byte("x")); err == nil {
			t.Errorf("** Put succeeded in a read-only transaction")
		}
	})
}
