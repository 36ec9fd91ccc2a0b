package store

import (
	"context"
	"sort"
)

type dbRef struct {
	db   *DB
	path string
}

func (r dbRef) Key() string  { return lastSegment(r.path) }
func (r dbRef) Path() string { return r.path }

func (r dbRef) String() string { return "/" + r.path }

func (r dbRef) Parent() Ref {
	if r.path == "" {
		return nil
	}
	return dbRef{r.db, parentPath(r.path)}
}

func (r dbRef) Child(path string) Ref {
	return dbRef{r.db, joinPath(r.path, path)}
}

func (r dbRef) On(event Event, onChange func(Snapshot), onError func(error)) ListenerID {
	return r.db.on(r.path, event, onChange, onError)
}

func (r dbRef) Off(event Event, id ListenerID) {
	r.db.off(id)
}

func (r dbRef) Once(ctx context.Context, event Event) (Snapshot, error) {
	return r.db.once(ctx, r.path, event)
}

func (r dbRef) Update(ctx context.Context, partial map[string]any) error {
	if err := validatePath(r.path); err != nil {
		return opErrf("update", r.path, err)
	}
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	leaves := make([]leaf, 0, len(keys))
	for _, k := range keys {
		child := joinPath(r.path, k)
		if child == r.path {
			return opErrf("update", r.path, ValidateKey(""))
		}
		if err := validatePath(child); err != nil {
			return opErrf("update", r.path, err)
		}
		v, err := Normalize(partial[k])
		if err != nil {
			return opErrf("update", child, err)
		}
		leaves = append(leaves, leaf{child, v})
	}
	return r.db.write(ctx, "update", r.path, leaves)
}

func (r dbRef) Set(ctx context.Context, value any) error {
	if err := validatePath(r.path); err != nil {
		return opErrf("set", r.path, err)
	}
	v, err := Normalize(value)
	if err != nil {
		return opErrf("set", r.path, err)
	}
	return r.db.write(ctx, "set", r.path, []leaf{{r.path, v}})
}

func (r dbRef) Remove(ctx context.Context) error {
	return r.db.write(ctx, "remove", r.path, []leaf{{r.path, nil}})
}
