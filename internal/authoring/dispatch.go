package authoring

import "sync"

// dispatcher hands events to the listener from a single goroutine in the
// order they were queued. Queueing happens under the session lock, so that
// order is the order in which the session changed.
type dispatcher struct {
	listener func(Event)

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Event
	busy    bool
	stopped bool
	done    chan struct{}
}

func newDispatcher(listener func(Event)) *dispatcher {
	if listener == nil {
		return nil
	}
	d := &dispatcher{listener: listener, done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

func (d *dispatcher) push(ev Event) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.queue = append(d.queue, ev)
	d.cond.Broadcast()
}

func (d *dispatcher) run() {
	defer close(d.done)
	d.mu.Lock()
	for {
		for len(d.queue) == 0 && !d.stopped {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.busy = true
		d.mu.Unlock()

		for _, ev := range batch {
			d.listener(ev)
		}

		d.mu.Lock()
		d.busy = false
		d.cond.Broadcast()
	}
}

// drain blocks until every queued event has been handed to the listener.
func (d *dispatcher) drain() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.queue) > 0 || d.busy {
		d.cond.Wait()
	}
}

// stop delivers what is already queued and ends the goroutine. Later pushes
// are dropped.
func (d *dispatcher) stop() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.stopped = true
	d.cond.Broadcast()
	d.mu.Unlock()
	<-d.done
}
