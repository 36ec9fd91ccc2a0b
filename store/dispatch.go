package store

import "sync"

type delivery struct {
	listener *listener
	snap     Snapshot
	err      error
	detached bool          // deliver even though the listener was never registered
	done     chan struct{} // flush marker when listener is nil
}

// dispatcher invokes listener callbacks one at a time on its own goroutine,
// in the order deliveries were queued.
type dispatcher struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []delivery
	closed bool
	active func(l *listener) bool
}

func newDispatcher(active func(l *listener) bool) *dispatcher {
	d := &dispatcher{active: active}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *dispatcher) enqueue(dl delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		if dl.done != nil {
			close(dl.done)
		}
		return
	}
	d.queue = append(d.queue, dl)
	d.cond.Signal()
}

// flush blocks until everything queued before the call has been delivered.
// Must not be called from a listener callback.
func (d *dispatcher) flush() {
	done := make(chan struct{})
	d.enqueue(delivery{done: done})
	<-done
}

func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, dl := range d.queue {
		if dl.done != nil {
			close(dl.done)
		}
	}
	d.queue = nil
	d.cond.Broadcast()
}

func (d *dispatcher) run() {
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.cond.Wait()
		}
		if d.closed {
			d.mu.Unlock()
			return
		}
		dl := d.queue[0]
		d.queue[0] = delivery{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.deliver(dl)
	}
}

func (d *dispatcher) deliver(dl delivery) {
	if dl.listener == nil {
		close(dl.done)
		return
	}
	if !dl.detached && !d.active(dl.listener) {
		return
	}
	if dl.err != nil {
		if dl.listener.onError != nil {
			dl.listener.onError(dl.err)
		}
		return
	}
	if dl.listener.onChange != nil {
		dl.listener.onChange(dl.snap)
	}
}
