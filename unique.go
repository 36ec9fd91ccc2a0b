package mirror

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/andreyvit/mirror/store"
)

// UniqueKeyFunc derives the index key of a unique field's value. ok is false
// when the value has no key (it is nil, or the key would be empty); no index
// pointer is kept for it.
type UniqueKeyFunc func(field string, value any) (key string, ok bool)

// IdentityUniqueKey uses the value's text form as is.
func IdentityUniqueKey(field string, value any) (string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		s = v
	case int64:
		s = strconv.FormatInt(v, 10)
	case int:
		s = strconv.Itoa(v)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}
	return s, s != ""
}

// LowercaseUniqueKey makes keys case-insensitive and ignores surrounding
// whitespace, the usual choice for emails and user names.
func LowercaseUniqueKey(field string, value any) (string, bool) {
	s, ok := IdentityUniqueKey(field, value)
	if !ok {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return s, s != ""
}

// HashedUniqueKey wraps another strategy and replaces its keys with a 64-bit
// xxhash in hex, so values of any length and content make valid keys.
func HashedUniqueKey(inner UniqueKeyFunc) UniqueKeyFunc {
	if inner == nil {
		inner = IdentityUniqueKey
	}
	return func(field string, value any) (string, bool) {
		s, ok := inner(field, value)
		if !ok || s == "" {
			return "", false
		}
		return fmt.Sprintf("%016x", xxhash.Sum64String(s)), true
	}
}

func (typ *ModelType) deriveUniqueKey(field string, value any) (string, bool) {
	key, ok := typ.uniqueKey(field, value)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// UniqueKey returns the index key the model's type derives for value of field.
func (m *Model) UniqueKey(field string, value any) (string, bool) {
	return m.typ.deriveUniqueKey(field, value)
}

func (m *Model) uniqueRef(field, key string) store.Ref {
	return m.loc.Unique.Child(field).Child(key)
}

// checkUniqueKey rejects derived keys that would address more than one path
// segment.
func checkUniqueKey(field, key string) error {
	if err := store.ValidateKey(key); err != nil {
		return fieldErrf(field, err, "invalid unique key %q", key)
	}
	return nil
}

// updateUnique moves index pointers of every unique field whose key differs
// between baseline and current. A new pointer is written before the old one
// is removed; a failed write leaves the old pointer in place.
func (m *Model) updateUnique(ctx context.Context, baseline, current map[string]any) error {
	var tasks taskList
	for _, field := range m.typ.unique {
		oldKey, hasOld := m.UniqueKey(field, baseline[field])
		newKey, hasNew := m.UniqueKey(field, current[field])
		if hasOld == hasNew && oldKey == newKey {
			continue
		}
		if hasOld {
			if err := checkUniqueKey(field, oldKey); err != nil {
				return err
			}
		}
		if hasNew {
			if err := checkUniqueKey(field, newKey); err != nil {
				return err
			}
		}

		oldRef, newRef := m.uniqueRef(field, oldKey), m.uniqueRef(field, newKey)
		switch {
		case hasOld && hasNew:
			tasks.push("move "+field, func(ctx context.Context) error {
				if err := newRef.Set(ctx, m.id); err != nil {
					return writeErrf("set", newRef, err)
				}
				if err := oldRef.Remove(ctx); err != nil {
					return writeErrf("remove", oldRef, err)
				}
				return nil
			})
		case hasNew:
			tasks.push("add "+field, func(ctx context.Context) error {
				if err := newRef.Set(ctx, m.id); err != nil {
					return writeErrf("set", newRef, err)
				}
				return nil
			})
		case hasOld:
			tasks.push("remove "+field, func(ctx context.Context) error {
				if err := oldRef.Remove(ctx); err != nil {
					return writeErrf("remove", oldRef, err)
				}
				return nil
			})
		}
		m.logf("UNIQUE %v %s: %q -> %q", m, field, oldKey, newKey)
	}
	return tasks.run(ctx)
}
