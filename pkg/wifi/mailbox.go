package wifi

import "sync"

// Mailbox is a single-slot channel of Credentials where the newest value wins.
// It is safe for concurrent use by any number of producers and one consumer.
type Mailbox struct {
	mu sync.Mutex
	ch chan Credentials
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{ch: make(chan Credentials, 1)}
}

// Put stores c, replacing a value that has not been received yet.
// It never blocks and reports whether an older value was dropped.
func (m *Mailbox) Put(c Credentials) (replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
		replaced = true
	default:
	}
	// Producers are serialized by mu and the slot was just drained,
	// so this send cannot block.
	m.ch <- c
	return replaced
}

// C returns the receive side of the mailbox.
func (m *Mailbox) C() <-chan Credentials {
	return m.ch
}

// Drain discards a pending value, if any.
func (m *Mailbox) Drain() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
	default:
	}
}
