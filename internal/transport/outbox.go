package transport

import (
	"sync"

	"github.com/roach88/mirror/internal/action"
)

// outbox is an unbounded FIFO of messages awaiting delivery.
//
// Enqueue never blocks so that dispatch can return before delivery. The
// signal channel (buffered, size 1) wakes the Run loop and is closed by
// Close.
type outbox struct {
	mu     sync.Mutex
	msgs   []action.Message
	closed bool
	signal chan struct{}
}

func newOutbox() *outbox {
	return &outbox{
		msgs:   make([]action.Message, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends msg. Returns false if the outbox is closed.
func (q *outbox) Enqueue(msg action.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.msgs = append(q.msgs, msg)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front message without blocking.
func (q *outbox) TryDequeue() (action.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.msgs) == 0 {
		return nil, false
	}
	msg := q.msgs[0]
	q.msgs[0] = nil
	if len(q.msgs) == 1 {
		q.msgs = q.msgs[:0]
	} else {
		q.msgs = q.msgs[1:]
	}
	return msg, true
}

// Wait signals that messages may be available, or that the outbox closed.
func (q *outbox) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the outbox is closed and empty.
func (q *outbox) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.msgs) == 0
}

func (q *outbox) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.msgs)
}

// Close stops further enqueues and wakes the Run loop.
func (q *outbox) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
