package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.etcd.io/bbolt"
)

// DB is an observable tree stored in a key-value backend.
type DB struct {
	st      storage
	logger  *slog.Logger
	verbose bool

	// mu serializes writes together with listener bookkeeping, so listeners
	// observe changes in commit order.
	mu        sync.Mutex
	listeners map[ListenerID]*listener
	lastID    ListenerID
	disp      *dispatcher
	closed    atomic.Bool

	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
}

type listener struct {
	id       ListenerID
	path     string
	onChange func(Snapshot)
	onError  func(error)
}

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
}

// OpenBolt opens (creating if needed) a tree stored in a Bolt file.
func OpenBolt(path string, opt Options) (*DB, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return newDB(newBoltStorage(bdb), opt), nil
}

// OpenBadger opens a tree stored in a Badger directory. An empty dir keeps
// the whole database in memory.
func OpenBadger(dir string, opt Options) (*DB, error) {
	bopt := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopt = bopt.WithInMemory(true)
	}
	if opt.IsTesting {
		bopt = bopt.WithSyncWrites(false)
	}

	bdb, err := badger.Open(bopt)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return newDB(newBadgerStorage(bdb), opt), nil
}

// NewMem returns a transient in-memory tree.
func NewMem(opt Options) *DB {
	return newDB(newMemStorage(), opt)
}

func newDB(st storage, opt Options) *DB {
	db := &DB{
		st:        st,
		logger:    opt.Logger,
		verbose:   opt.Verbose,
		listeners: make(map[ListenerID]*listener),
	}
	if db.logger == nil {
		db.logger = slog.Default()
	}
	db.disp = newDispatcher(db.isActive)
	return db
}

// Close stops listener delivery and closes the backend.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	db.disp.close()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.listeners = make(map[ListenerID]*listener)
	return db.st.Close()
}

// Root returns the root location.
func (db *DB) Root() Ref {
	return dbRef{db, ""}
}

// Ref returns the location at the given slash-separated path.
func (db *DB) Ref(path string) Ref {
	return dbRef{db, cleanPath(path)}
}

// Flush blocks until every listener notification queued so far has been
// delivered. Must not be called from a listener callback.
func (db *DB) Flush() {
	db.disp.flush()
}

func (db *DB) isActive(l *listener) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.listeners[l.id] == l
}

func (db *DB) view(f func(tx storageTx) error) error {
	if db.closed.Load() {
		return ErrClosed
	}
	tx, err := db.st.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	db.ReadCount.Add(1)
	return safelyCall(func() error {
		return f(tx)
	})
}

func (db *DB) update(f func(tx storageTx) error) error {
	if db.closed.Load() {
		return ErrClosed
	}
	tx, err := db.st.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	err = safelyCall(func() error {
		return f(tx)
	})
	if err != nil {
		return err
	}
	db.WriteCount.Add(1)
	return tx.Commit()
}

func (db *DB) read(path string) (any, error) {
	var val any
	err := db.view(func(tx storageTx) error {
		var err error
		val, err = readTree(tx, path)
		return err
	})
	return val, err
}

func (db *DB) on(path string, event Event, onChange func(Snapshot), onError func(error)) ListenerID {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.lastID++
	l := &listener{
		id:       db.lastID,
		path:     path,
		onChange: onChange,
		onError:  onError,
	}
	if event != EventValue {
		// not registered: report the error once and never fire again
		db.disp.enqueue(delivery{listener: l, detached: true, err: opErrf("on", path, fmt.Errorf("%w %q", ErrUnsupportedEvent, event))})
		return l.id
	}
	if db.closed.Load() {
		return l.id
	}
	db.listeners[l.id] = l
	if db.verbose {
		db.logger.Debug("store: ON", "path", path, "listener", l.id)
	}

	val, err := db.read(path)
	db.disp.enqueue(delivery{listener: l, snap: &snapshot{dbRef{db, path}, val}, err: opErrf("on", path, err)})
	return l.id
}

func (db *DB) off(id ListenerID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if l := db.listeners[id]; l != nil {
		delete(db.listeners, id)
		if db.verbose {
			db.logger.Debug("store: OFF", "path", l.path, "listener", id)
		}
	}
}

func (db *DB) once(ctx context.Context, path string, event Event) (Snapshot, error) {
	if event != EventValue {
		return nil, opErrf("once", path, fmt.Errorf("%w %q", ErrUnsupportedEvent, event))
	}
	if err := ctx.Err(); err != nil {
		return nil, opErrf("once", path, err)
	}
	val, err := db.read(path)
	if err != nil {
		return nil, opErrf("once", path, err)
	}
	return &snapshot{dbRef{db, path}, val}, nil
}

// write applies a batch of subtree replacements in one transaction and then
// notifies every listener whose location overlaps a written path.
func (db *DB) write(ctx context.Context, op, path string, leaves []leaf) error {
	if err := ctx.Err(); err != nil {
		return opErrf(op, path, err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	err := db.update(func(tx storageTx) error {
		for _, l := range leaves {
			if err := writeTree(tx, l.path, l.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return opErrf(op, path, err)
	}
	if db.verbose {
		db.logger.Debug("store: "+op, "path", path, "entries", len(leaves))
	}

	db.notifyLocked(leaves)
	return nil
}

func (db *DB) notifyLocked(written []leaf) {
	var affected []*listener
	for _, l := range db.listeners {
		for _, w := range written {
			if overlaps(l.path, w.path) {
				affected = append(affected, l)
				break
			}
		}
	}
	sort.Slice(affected, func(i, j int) bool {
		return affected[i].id < affected[j].id
	})

	for _, l := range affected {
		val, err := db.read(l.path)
		db.disp.enqueue(delivery{listener: l, snap: &snapshot{dbRef{db, l.path}, val}, err: opErrf("on", l.path, err)})
	}
}
