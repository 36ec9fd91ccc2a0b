package mirror

import (
	"context"

	"github.com/andreyvit/mirror/store"
)

// Destroy removes the record's index pointers, its private partition and its
// public partition, in that order, and stops watching. Non-owners cannot
// destroy records that have private fields. A failure leaves whatever was
// not yet removed in place.
func (m *Model) Destroy(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.typ.HasPrivateFields() && !m.mine {
		return ErrOwnershipViolation
	}

	m.logf("DESTROY %v", m)
	if m.typ.HasUniqueFields() {
		baseline, err := m.watchOnce(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.data = baseline
		m.mu.Unlock()
	}
	return m.doDestroy(ctx)
}

func (m *Model) doDestroy(ctx context.Context) error {
	data := m.Data()

	remove := func(ref store.Ref) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			if err := ref.Remove(ctx); err != nil {
				return writeErrf("remove", ref, err)
			}
			return nil
		}
	}

	var tasks taskList
	for _, field := range m.typ.unique {
		key, ok := m.UniqueKey(field, data[field])
		if !ok {
			continue
		}
		if err := checkUniqueKey(field, key); err != nil {
			return err
		}
		tasks.push("remove unique "+field, remove(m.uniqueRef(field, key)))
	}
	if m.usesPrivate() {
		tasks.push("remove private", remove(m.loc.Private))
	}
	tasks.push("remove public", remove(m.loc.Public))

	m.Unwatch()
	return tasks.run(ctx)
}
