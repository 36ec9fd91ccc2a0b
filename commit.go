package mirror

import (
	"context"

	"github.com/andreyvit/mirror/store"
)

// Update writes the local fields to the store. With unique fields it first
// fetches the stored values and moves index pointers; a failure there skips
// the write. Partitions are merged, never replaced.
//
// Every derived unique key is validated before any pointer is touched, so an
// invalid key in one field also holds back the index changes of the others.
// Concurrent Update and Destroy calls on one Model run one at a time.
func (m *Model) Update(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.logf("UPDATE %v", m)
	current := m.Data()
	if m.typ.HasUniqueFields() {
		baseline, err := m.watchOnce(ctx)
		if err != nil {
			return err
		}
		if err := m.updateUnique(ctx, baseline, current); err != nil {
			return err
		}
	}
	return m.updatePublicAndPrivate(ctx, current)
}

// updatePublicAndPrivate merges private fields into the private location
// and everything else into the public one, in that order.
func (m *Model) updatePublicAndPrivate(ctx context.Context, data map[string]any) error {
	publicData := make(map[string]any, len(data))
	privateData := make(map[string]any)
	usesPrivate := m.usesPrivate()
	for k, v := range data {
		if usesPrivate && m.typ.IsPrivate(k) {
			privateData[k] = v
		} else {
			publicData[k] = v
		}
	}

	write := func(ref store.Ref, partial map[string]any) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			if err := ref.Update(ctx, partial); err != nil {
				return writeErrf("update", ref, err)
			}
			return nil
		}
	}

	var tasks taskList
	if usesPrivate {
		tasks.push("write private", write(m.loc.Private, privateData))
	}
	tasks.push("write public", write(m.loc.Public, publicData))
	return tasks.run(ctx)
}
