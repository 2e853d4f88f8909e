package bleprov

import "sync"

// dispatcher delivers events in order from its own goroutine, so platform
// requests never call back into the caller synchronously.
type dispatcher struct {
	mu     sync.Mutex
	fn     func(Event)
	queue  []Event
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) bind(fn func(Event)) {
	d.mu.Lock()
	d.fn = fn
	d.mu.Unlock()
}

func (d *dispatcher) post(ev Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) loop() {
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
		}
		for {
			d.mu.Lock()
			if len(d.queue) == 0 || d.closed {
				d.mu.Unlock()
				break
			}
			ev := d.queue[0]
			d.queue = d.queue[1:]
			fn := d.fn
			d.mu.Unlock()

			if fn != nil {
				fn(ev)
			}
		}
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.queue = nil
	close(d.done)
}
