package ledger

import (
	"context"
	"sync"
)

// Result is delivered on the channel returned by Enqueue.
type Result struct {
	Receipt Receipt
	Err     error
}

type pending struct {
	ctx   context.Context
	req   Request
	reply chan Result
}

// txQueue is a thread-safe FIFO of pending submissions.
//
// The queue uses a channel for signaling so the Run loop can wait on it
// alongside context cancellation.
type txQueue struct {
	mu     sync.Mutex
	items  []pending
	closed bool
	signal chan struct{} // buffered, size 1
}

func newTxQueue() *txQueue {
	return &txQueue{
		items:  make([]pending, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds p to the back of the queue. Returns false once closed.
func (q *txQueue) Enqueue(p pending) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, p)

	// Non-blocking: the size-1 buffer coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front item without blocking.
func (q *txQueue) TryDequeue() (pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return pending{}, false
	}
	p := q.items[0]
	// Clear the slot so the backing array does not retain the reply channel.
	q.items[0] = pending{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return p, true
}

// Wait returns a channel that signals when items may be available. It is
// closed when the queue closes.
func (q *txQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the queue is closed and empty.
func (q *txQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Len returns the current queue length.
func (q *txQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops further enqueues and wakes waiters.
func (q *txQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
