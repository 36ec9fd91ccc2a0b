package mirror

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/andreyvit/mirror/store"
)

// Options configure a single Model instance.
type Options struct {
	// Mine says the caller owns the record and may read and write its
	// private partition.
	Mine bool

	Logger  *slog.Logger
	Verbose bool
}

// Model mirrors one record of a collection. Public fields live at the
// model's own location, private fields (for owners) under
// private/{collection}/{id}, and unique fields are indexed under
// unique/{collection}.
type Model struct {
	emitter

	typ          *ModelType
	mine         bool
	logger       *slog.Logger
	verbose      bool
	id           string
	collectionID string
	loc          Locations

	// mu guards data, status and the subscription state.
	mu         sync.Mutex
	data       map[string]any
	status     Status
	watching   bool
	publicSub  store.ListenerID
	privateSub store.ListenerID
	privateOn  bool

	// watchMu serializes Watch and Unwatch.
	watchMu sync.Mutex

	// opMu serializes Update and Destroy.
	opMu sync.Mutex
}

var _ Observable = (*Model)(nil)

// New binds a model to ref, which must be nested as root/collection/id.
// data seeds the local fields; it is copied and normalized like Set does.
func New(ref store.Ref, typ *ModelType, data map[string]any, opt Options) (*Model, error) {
	if typ == nil {
		panic("mirror: nil model type")
	}
	loc, id, collectionID, err := bind(ref, typ)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if err := store.ValidateKey(k); err != nil {
			return nil, fieldErrf(k, err, "invalid field name")
		}
		if fields[k], err = normalizeField(k, v); err != nil {
			return nil, err
		}
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		typ:          typ,
		mine:         opt.Mine,
		logger:       logger,
		verbose:      opt.Verbose,
		id:           id,
		collectionID: collectionID,
		loc:          loc,
		data:         fields,
	}, nil
}

func (m *Model) Type() *ModelType     { return m.typ }
func (m *Model) ID() string           { return m.id }
func (m *Model) CollectionID() string { return m.collectionID }
func (m *Model) Locations() Locations { return m.loc }
func (m *Model) Mine() bool           { return m.mine }

func (m *Model) String() string {
	return m.collectionID + "/" + m.id
}

// usesPrivate reports whether the private partition is read and written.
func (m *Model) usesPrivate() bool {
	return m.mine && m.typ.HasPrivateFields()
}

// Get returns a copy of a field's value, or nil.
func (m *Model) Get(field string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneValue(m.data[field])
}

// Set changes a field locally. Setting nil deletes the field from the store
// on the next Update. The value is kept in the form the store will hold
// ([]byte becomes a string, small ints become int64, structs become maps),
// so unique keys derived now match the ones derived from stored data.
func (m *Model) Set(field string, value any) error {
	if err := store.ValidateKey(field); err != nil {
		return fieldErrf(field, err, "invalid field name")
	}
	v, err := normalizeField(field, value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[field] = v
	return nil
}

func normalizeField(field string, value any) (any, error) {
	v, err := store.Normalize(value)
	if err != nil {
		return nil, fieldErrf(field, err, "unsupported value")
	}
	return v, nil
}

// Data returns a deep copy of the local fields.
func (m *Model) Data() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneData(m.data)
}

func (m *Model) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Model) Loaded() bool {
	return m.Status().Loaded()
}

func (m *Model) NotFound() bool {
	return m.Status().NotFound()
}

func (m *Model) Watching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watching
}

func (m *Model) logf(format string, args ...any) {
	if m.verbose {
		m.logger.Debug(fmt.Sprintf("mirror: "+format, args...))
	}
}
