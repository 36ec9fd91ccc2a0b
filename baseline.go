package mirror

import (
	"context"

	"github.com/andreyvit/mirror/store"
)

// watchOnce reads both partitions a single time into a fresh accumulator,
// private first. The live model is left untouched.
func (m *Model) watchOnce(ctx context.Context) (map[string]any, error) {
	acc := newAccumulator()
	if !m.usesPrivate() {
		acc.status.Private = StatusNotFound
	}

	read := func(ref store.Ref) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			snap, err := ref.Once(ctx, store.EventValue)
			if err != nil {
				return readErrf("fetch", ref, err)
			}
			processSnapshot(acc, m.partitionOf(snap), snap.Val())
			return nil
		}
	}

	var tasks taskList
	if m.usesPrivate() {
		tasks.push("read private", read(m.loc.Private))
	}
	tasks.push("read public", read(m.loc.Public))
	if err := tasks.run(ctx); err != nil {
		return nil, err
	}
	return acc.data, nil
}
