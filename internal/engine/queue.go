package engine

import (
	"sync"

	"github.com/roach88/boxoffice/internal/ir"
)

// submission is a queued command and the channel its submitter waits on.
type submission struct {
	cmd   ir.Command
	reply chan outcome
}

// outcome is what the Run loop sends back for a submission.
type outcome struct {
	transition ir.Transition
	rejection  error // *ledger.Rejection when the command was rejected
	err        error // infrastructure failure; transition is not recorded
}

// commandQueue is an unbounded, thread-safe FIFO of submissions.
//
// A buffered signal channel of size 1 lets the Run loop wait with select
// alongside ctx.Done(). Close closes the channel, waking the loop.
type commandQueue struct {
	mu     sync.Mutex
	items  []*submission
	closed bool
	signal chan struct{}
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		items:  make([]*submission, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends s. Returns false once the queue is closed.
func (q *commandQueue) Enqueue(s *submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, s)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front submission without blocking.
func (q *commandQueue) TryDequeue() (*submission, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	s := q.items[0]
	q.items[0] = nil
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return s, true
}

// Wait returns a channel that fires when submissions may be available or
// the queue has been closed.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued submissions.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *commandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting submissions and returns the ones still queued.
func (q *commandQueue) Close() []*submission {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.signal)

	rest := q.items
	q.items = nil
	return rest
}
