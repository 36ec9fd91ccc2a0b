package mirror

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"sync"
	"testing"

	"github.com/andreyvit/mirror/store"
)

var ctx = context.Background()

var errInjected = errors.New("injected failure")

// remote records the store calls made through refs it wraps, fails the
// ones listed with failOn and holds the ones listed with pause.
type remote struct {
	mu     sync.Mutex
	calls  []string
	fail   map[string]bool
	paused map[string]*pausedCall
}

type pausedCall struct {
	entered chan struct{}
	release chan struct{}
}

func (r *remote) wrap(ref store.Ref) store.Ref {
	if ref == nil {
		return nil
	}
	return recordingRef{ref, r}
}

func (r *remote) record(op string, ref store.Ref) error {
	call := op + " " + ref.Path()
	r.mu.Lock()
	r.calls = append(r.calls, call)
	failed := r.fail[call]
	p := r.paused[call]
	delete(r.paused, call)
	r.mu.Unlock()

	if p != nil {
		close(p.entered)
		<-p.release
	}
	if failed {
		return errInjected
	}
	return nil
}

// pause makes the next matching call block until release is closed;
// entered is closed once the call is reached.
func (r *remote) pause(call string) (entered <-chan struct{}, release chan<- struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused == nil {
		r.paused = make(map[string]*pausedCall)
	}
	p := &pausedCall{make(chan struct{}), make(chan struct{})}
	r.paused[call] = p
	return p.entered, p.release
}

func (r *remote) failOn(calls ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail == nil {
		r.fail = make(map[string]bool)
	}
	for _, c := range calls {
		r.fail[c] = true
	}
}

func (r *remote) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *remote) log() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

type recordingRef struct {
	store.Ref
	r *remote
}

func (f recordingRef) Parent() store.Ref {
	return f.r.wrap(f.Ref.Parent())
}

func (f recordingRef) Child(path string) store.Ref {
	return f.r.wrap(f.Ref.Child(path))
}

func (f recordingRef) On(event store.Event, onChange func(store.Snapshot), onError func(error)) store.ListenerID {
	if err := f.r.record("on", f); err != nil {
		onError(err)
		return 0
	}
	return f.Ref.On(event, onChange, onError)
}

func (f recordingRef) Off(event store.Event, id store.ListenerID) {
	f.r.record("off", f)
	f.Ref.Off(event, id)
}

func (f recordingRef) Once(ctx context.Context, event store.Event) (store.Snapshot, error) {
	if err := f.r.record("once", f); err != nil {
		return nil, err
	}
	return f.Ref.Once(ctx, event)
}

func (f recordingRef) Update(ctx context.Context, partial map[string]any) error {
	if err := f.r.record("update", f); err != nil {
		return err
	}
	return f.Ref.Update(ctx, partial)
}

func (f recordingRef) Set(ctx context.Context, value any) error {
	if err := f.r.record("set", f); err != nil {
		return err
	}
	return f.Ref.Set(ctx, value)
}

func (f recordingRef) Remove(ctx context.Context) error {
	if err := f.r.record("remove", f); err != nil {
		return err
	}
	return f.Ref.Remove(ctx)
}

func setup(t testing.TB) (*store.DB, *remote) {
	t.Helper()
	db := store.NewMem(store.Options{IsTesting: true})
	t.Cleanup(func() { db.Close() })
	return db, &remote{}
}

func newModel(t testing.TB, db *store.DB, r *remote, path string, typ *ModelType, data map[string]any, opt Options) *Model {
	t.Helper()
	return must(New(r.wrap(db.Ref(path)), typ, data, opt))
}

func get(t testing.TB, db *store.DB, path string) any {
	t.Helper()
	snap, err := db.Ref(path).Once(ctx, store.EventValue)
	if err != nil {
		t.Fatalf("Once(%s) failed: %v", path, err)
	}
	return snap.Val()
}

func put(t testing.TB, db *store.DB, path string, value any) {
	t.Helper()
	if err := db.Ref(path).Set(ctx, value); err != nil {
		t.Fatalf("Set(%s) failed: %v", path, err)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

var usersType = DefineType("user")

func TestNew_Locations(t *testing.T) {
	db, r := setup(t)

	m := newModel(t, db, r, "users/u1", usersType, nil, Options{})
	deepEqual(t, m.ID(), "u1")
	deepEqual(t, m.CollectionID(), "users")
	deepEqual(t, m.Locations().Public.Path(), "users/u1")
	deepEqual(t, m.Locations().Private.Path(), "private/users/u1")
	deepEqual(t, m.Locations().Unique.Path(), "unique/users")

	m = newModel(t, db, r, "apps/a1/users/u1", usersType, nil, Options{})
	deepEqual(t, m.CollectionID(), "users")
	deepEqual(t, m.Locations().Private.Path(), "apps/a1/private/users/u1")
	deepEqual(t, m.Locations().Unique.Path(), "apps/a1/unique/users")

	perRecord := DefineType("session").Unique("token").Scope(UniquePerRecord)
	m = newModel(t, db, r, "sessions/s1", perRecord, nil, Options{})
	deepEqual(t, m.Locations().Unique.Path(), "unique/sessions/s1")

	isempty(t, r.log())
}

func TestNew_InvalidLocation(t *testing.T) {
	db, _ := setup(t)
	for _, ref := range []store.Ref{db.Root(), db.Ref("users"), nil} {
		_, err := New(ref, usersType, nil, Options{})
		if !errors.Is(err, ErrInvalidLocation) {
			t.Errorf("** New(%v) = %v, wanted ErrInvalidLocation", ref, err)
		}
	}
}

func TestNew_InvalidField(t *testing.T) {
	db, _ := setup(t)
	_, err := New(db.Ref("users/u1"), usersType, map[string]any{"a/b": 1}, Options{})
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("** got %v, wanted *FieldError", err)
	}
	deepEqual(t, fe.Field, "a/b")
	if !errors.Is(err, store.ErrInvalidPath) {
		t.Errorf("** got %v, wanted it to wrap ErrInvalidPath", err)
	}

	_, err = New(db.Ref("users/u1"), usersType, map[string]any{"tags": map[string]any{"a/b": 1}}, Options{})
	if !errors.As(err, &fe) {
		t.Fatalf("** got %v, wanted *FieldError", err)
	}
	deepEqual(t, fe.Field, "tags")
}

func TestModel_Fields(t *testing.T) {
	db, r := setup(t)
	seed := map[string]any{"name": "Jo", "tags": map[string]any{"a": true}}
	m := newModel(t, db, r, "users/u1", usersType, seed, Options{})

	seed["name"] = "changed"
	deepEqual(t, m.Get("name"), any("Jo"))

	ensure(m.Set("age", 30))
	data := m.Data()
	data["tags"].(map[string]any)["b"] = true
	deepEqual(t, m.Data(), map[string]any{"name": "Jo", "age": int64(30), "tags": map[string]any{"a": true}})

	// values are kept the way the store keeps them
	ensure(m.Set("code", []byte("abc")))
	deepEqual(t, m.Get("code"), any("abc"))
	ensure(m.Set("ratio", float32(0.5)))
	deepEqual(t, m.Get("ratio"), any(float64(0.5)))
	ensure(m.Set("tags", map[string]any{}))
	deepEqual(t, m.Get("tags"), nil)

	var fe *FieldError
	if err := m.Set("", 1); !errors.As(err, &fe) {
		t.Errorf("** Set(\"\") = %v, wanted *FieldError", err)
	}
	if err := m.Set("a/b", 1); !errors.As(err, &fe) {
		t.Errorf("** Set(\"a/b\") = %v, wanted *FieldError", err)
	}
	if err := m.Set("tags", map[string]any{"a/b": 1}); !errors.As(err, &fe) || !errors.Is(err, store.ErrInvalidPath) {
		t.Errorf("** Set with a nested invalid key = %v, wanted *FieldError wrapping ErrInvalidPath", err)
	}
	deepEqual(t, m.Get("tags"), nil)
	isempty(t, r.log())
}

func TestModelType_Definition(t *testing.T) {
	typ := DefineType("account").Private("ssn", "ssn").Unique("email").Unique("nick", "email")
	deepEqual(t, typ.Name(), "account")
	deepEqual(t, typ.PrivateFields(), []string{"ssn"})
	deepEqual(t, typ.UniqueFields(), []string{"email", "nick"})
	deepEqual(t, typ.IsPrivate("ssn"), true)
	deepEqual(t, typ.IsPrivate("email"), false)
	deepEqual(t, typ.IsUnique("nick"), true)
	deepEqual(t, typ.UniqueScope(), UniquePerCollection)

	defer func() {
		if recover() == nil {
			t.Errorf("** wanted a panic for an invalid field name")
		}
	}()
	DefineType("bad").Private("a/b")
}
