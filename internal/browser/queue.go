package browser

import "sync"

// changeQueue is a thread-safe FIFO of pending changes.
//
// Producers (UI handlers, store subscriptions) enqueue from any goroutine;
// the View's Run loop drains. A buffered signal channel of size one lets
// Run wait with select alongside ctx.Done, and coalesces bursts of
// enqueues into a single wake-up.
type changeQueue struct {
	mu      sync.Mutex
	changes []Change
	closed  bool
	signal  chan struct{}
}

func newChangeQueue() *changeQueue {
	return &changeQueue{
		changes: make([]Change, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a change. Returns false if the queue is closed.
func (q *changeQueue) Enqueue(c Change) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.changes = append(q.changes, c)

	// Non-blocking: a pending signal already covers this change.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// DrainAll removes and returns every pending change in arrival order.
func (q *changeQueue) DrainAll() []Change {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.changes) == 0 {
		return nil
	}
	out := q.changes
	q.changes = make([]Change, 0, cap(out))
	return out
}

// Wait returns a channel that signals when changes may be available.
// The channel is closed when the queue is closed.
func (q *changeQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of pending changes.
func (q *changeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.changes)
}

// Close stops accepting changes and wakes any waiter.
func (q *changeQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
