package mirror

import (
	"context"
	"fmt"
	"slices"

	"github.com/andreyvit/mirror/store"
)

// UniqueScope selects where unique index pointers live.
type UniqueScope int

const (
	// UniquePerCollection keeps pointers under unique/{collectionId}, so a
	// value is unique across the whole collection.
	UniquePerCollection UniqueScope = iota
	// UniquePerRecord keeps pointers under unique/{collectionId}/{id}.
	UniquePerRecord
)

func (s UniqueScope) String() string {
	switch s {
	case UniquePerCollection:
		return "collection"
	case UniquePerRecord:
		return "record"
	default:
		return fmt.Sprintf("invalid scope %d", int(s))
	}
}

// ModelType describes the fields of a kind of record. Define it once with
// DefineType and the builder methods, then share it between models.
type ModelType struct {
	name       string
	private    []string
	privateSet map[string]bool
	unique     []string
	uniqueKey  UniqueKeyFunc
	scope      UniqueScope
}

func DefineType(name string) *ModelType {
	return &ModelType{
		name:       name,
		privateSet: make(map[string]bool),
		uniqueKey:  IdentityUniqueKey,
	}
}

// Private marks fields as stored in the owner-only private partition.
func (typ *ModelType) Private(fields ...string) *ModelType {
	for _, f := range fields {
		mustBeFieldName(typ, f)
		if !typ.privateSet[f] {
			typ.privateSet[f] = true
			typ.private = append(typ.private, f)
		}
	}
	return typ
}

// Unique marks fields as requiring a secondary unique index.
func (typ *ModelType) Unique(fields ...string) *ModelType {
	for _, f := range fields {
		mustBeFieldName(typ, f)
		if !slices.Contains(typ.unique, f) {
			typ.unique = append(typ.unique, f)
		}
	}
	return typ
}

// UniqueKey replaces the strategy used to derive index keys from field values.
func (typ *ModelType) UniqueKey(fn UniqueKeyFunc) *ModelType {
	if fn == nil {
		fn = IdentityUniqueKey
	}
	typ.uniqueKey = fn
	return typ
}

func (typ *ModelType) Scope(scope UniqueScope) *ModelType {
	typ.scope = scope
	return typ
}

func (typ *ModelType) Name() string             { return typ.name }
func (typ *ModelType) PrivateFields() []string  { return slices.Clone(typ.private) }
func (typ *ModelType) UniqueFields() []string   { return slices.Clone(typ.unique) }
func (typ *ModelType) UniqueScope() UniqueScope { return typ.scope }

func (typ *ModelType) HasPrivateFields() bool { return len(typ.private) > 0 }
func (typ *ModelType) HasUniqueFields() bool  { return len(typ.unique) > 0 }

func (typ *ModelType) IsPrivate(field string) bool {
	return typ.privateSet[field]
}

func (typ *ModelType) IsUnique(field string) bool {
	return slices.Contains(typ.unique, field)
}

// Create makes a model under a fresh time-ordered key of the given
// collection. Nothing is written until Update is called.
func (typ *ModelType) Create(collection store.Ref, data map[string]any, opt Options) (*Model, error) {
	return New(collection.Child(store.NewKey()), typ, data, opt)
}

// Lookup resolves the unique index pointer for value of field within a
// collection and returns the id of the model that owns it.
func (typ *ModelType) Lookup(ctx context.Context, collection store.Ref, field string, value any) (id string, found bool, err error) {
	if !typ.IsUnique(field) {
		return "", false, fieldErrf(field, nil, "not a unique field of %s", typ.name)
	}
	if typ.scope != UniquePerCollection {
		return "", false, fmt.Errorf("mirror: %s: lookup needs %v unique scope, have %v", typ.name, UniquePerCollection, typ.scope)
	}
	root := collection.Parent()
	if root == nil {
		return "", false, ErrInvalidLocation
	}
	value, err = normalizeField(field, value)
	if err != nil {
		return "", false, err
	}
	key, ok := typ.deriveUniqueKey(field, value)
	if !ok {
		return "", false, nil
	}
	if err := checkUniqueKey(field, key); err != nil {
		return "", false, err
	}

	ref := uniqueRoot(root, collection.Key(), "", UniquePerCollection).Child(field).Child(key)
	snap, err := ref.Once(ctx, store.EventValue)
	if err != nil {
		return "", false, readErrf("lookup", ref, err)
	}
	switch v := snap.Val().(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		return fmt.Sprint(v), true, nil
	}
}

func mustBeFieldName(typ *ModelType, field string) {
	if err := store.ValidateKey(field); err != nil {
		panic(fmt.Errorf("mirror: %s: invalid field name: %w", typ.name, err))
	}
}
