// Package mailbox provides a keyed coalescing buffer for maintenance
// jobs. It is NOT a queue: it holds at most one pending job per key,
// and a new Put for the same key overwrites the old job. Keys are
// served in first-pending order.
package mailbox

import "sync"

type Mailbox[K comparable, T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   map[K]T
	order  []K
	closed bool
}

// New creates an empty mailbox.
func New[K comparable, T any]() *Mailbox[K, T] {
	m := &Mailbox[K, T]{jobs: make(map[K]T)}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Put stores a job under its key, replacing any pending job for the
// same key. It never blocks. Puts after Close are dropped.
func (m *Mailbox[K, T]) Put(k K, j T) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if _, pending := m.jobs[k]; !pending {
		m.order = append(m.order, k)
	}
	m.jobs[k] = j
	m.mu.Unlock()
	m.cond.Signal()
}

// Take blocks until a job is available and returns it, or returns
// false once the mailbox is closed and drained.
func (m *Mailbox[K, T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.order) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.order) == 0 {
		var zero T
		return zero, false
	}

	k := m.order[0]
	m.order = m.order[1:]
	j := m.jobs[k]
	delete(m.jobs, k)
	return j, true
}

// Pending reports how many jobs are waiting.
func (m *Mailbox[K, T]) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Close wakes blocked Take calls. Pending jobs can still be drained.
func (m *Mailbox[K, T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cond.Broadcast()
}
