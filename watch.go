package mirror

import (
	"log/slog"

	"github.com/andreyvit/mirror/store"
)

// Watch subscribes the model to live changes of its partitions. It resets
// the status; for non-owners of records with private fields the private
// partition is immediately NotFound. Calling Watch while watching does nothing.
func (m *Model) Watch() {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return
	}
	m.status = Status{}
	if !m.usesPrivate() {
		m.status.Private = StatusNotFound
	}
	m.watching = true
	m.mu.Unlock()

	m.logf("WATCH %v", m)

	if m.usesPrivate() {
		id := m.loc.Private.On(store.EventValue, m.onUpdate, m.onError(m.loc.Private))
		m.mu.Lock()
		m.privateSub, m.privateOn = id, true
		m.mu.Unlock()
	}
	id := m.loc.Public.On(store.EventValue, m.onUpdate, m.onError(m.loc.Public))
	m.mu.Lock()
	m.publicSub = id
	m.mu.Unlock()
}

// Unwatch stops live updates. Local data is kept. In-flight Update or
// Destroy calls are not affected.
func (m *Model) Unwatch() {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	m.mu.Lock()
	if !m.watching {
		m.mu.Unlock()
		return
	}
	m.watching = false
	publicSub, privateSub, privateOn := m.publicSub, m.privateSub, m.privateOn
	m.publicSub, m.privateSub, m.privateOn = 0, 0, false
	m.mu.Unlock()

	m.logf("UNWATCH %v", m)

	if privateOn {
		m.loc.Private.Off(store.EventValue, privateSub)
	}
	m.loc.Public.Off(store.EventValue, publicSub)
}

func (m *Model) partitionOf(snap store.Snapshot) partition {
	if ref := snap.Ref(); ref != nil && ref.Path() == m.loc.Private.Path() {
		return partPrivate
	}
	return partPublic
}

func (m *Model) onUpdate(snap store.Snapshot) {
	m.mu.Lock()
	if !m.watching {
		m.mu.Unlock()
		return
	}
	acc := accumulator{m.data, m.status}
	processSnapshot(&acc, m.partitionOf(snap), snap.Val())
	m.data, m.status = acc.data, acc.status
	m.mu.Unlock()

	m.emit(Event{Kind: EventUpdate})
}

func (m *Model) onError(ref store.Ref) func(error) {
	return func(err error) {
		err = readErrf("watch", ref, err)
		m.logger.Warn("mirror: live update failed", "model", m.String(), slog.Any("err", err))
		m.emit(Event{Kind: EventError, Err: err})
	}
}
