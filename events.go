package mirror

import (
	"fmt"
	"sort"
	"sync"
)

type (
	// Event is delivered to subscribers of a model.
	Event struct {
		Kind EventKind
		// Err is set for EventError.
		Err error
	}

	EventKind int

	SubscriptionID uint64
)

const (
	// EventUpdate fires after a live snapshot has been merged into the model.
	EventUpdate EventKind = 1
	// EventError fires when a live subscription reports a failure.
	EventError EventKind = 2
)

func (k EventKind) String() string {
	switch k {
	case EventUpdate:
		return "update"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("invalid event %d", int(k))
	}
}

// Observable is implemented by things that emit Events.
type Observable interface {
	Subscribe(handler func(Event)) SubscriptionID
	Unsubscribe(id SubscriptionID)
}

// emitter calls handlers synchronously, in subscription order, on the
// goroutine that emits.
type emitter struct {
	mu       sync.Mutex
	lastID   SubscriptionID
	handlers map[SubscriptionID]func(Event)
}

func (e *emitter) Subscribe(handler func(Event)) SubscriptionID {
	if handler == nil {
		panic("mirror: nil event handler")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[SubscriptionID]func(Event))
	}
	e.lastID++
	e.handlers[e.lastID] = handler
	return e.lastID
}

func (e *emitter) Unsubscribe(id SubscriptionID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, id)
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	ids := make([]SubscriptionID, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(Event), len(ids))
	for i, id := range ids {
		handlers[i] = e.handlers[id]
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}
