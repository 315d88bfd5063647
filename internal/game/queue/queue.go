// Package queue provides the thread-safe, unbounded FIFO buffer that sits
// between the transport poller and the command dispatcher.
package queue

import (
	"context"
	"sync"

	"github.com/telegramsouls/server/internal/game/message"
)

// Queue is an unbounded FIFO buffer of inbound messages.
//
// Enqueue is safe to call from any number of producer goroutines and never
// blocks. Dequeue assumes a single consumer; FIFO ordering across all
// producers is preserved for that consumer.
type Queue struct {
	mu    sync.Mutex
	items []message.Message

	// ready carries a wake-up signal to a consumer blocked in Dequeue.
	// Capacity 1: a single pending signal is enough because the consumer
	// re-checks the buffer before sleeping.
	ready chan struct{}
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{
		ready: make(chan struct{}, 1),
	}
}

// Enqueue appends msg to the tail of the queue and wakes the consumer if it
// is blocked. It never blocks and never fails.
func (q *Queue) Enqueue(msg message.Message) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.signal()
}

// TryDequeue removes and returns the head message without blocking.
//
// Postcondition: Returns (message, true) if one was available, or
// (zero, false) if the queue was empty.
func (q *Queue) TryDequeue() (message.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	msg, ok := q.popLocked()
	return msg, ok
}

// Dequeue removes and returns the head message, blocking until one is
// available or ctx is cancelled. It never spins: an empty queue parks the
// caller until Enqueue signals it.
//
// Postcondition: Returns (message, true) on success, or (zero, false) once
// ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (message.Message, bool) {
	for {
		q.mu.Lock()
		msg, ok := q.popLocked()
		more := len(q.items) > 0
		q.mu.Unlock()

		if ok {
			if more {
				// Keep the wake-up signal alive for the remaining items in
				// case Enqueue's signal was already consumed by this call.
				q.signal()
			}
			return msg, true
		}

		select {
		case <-ctx.Done():
			return message.Message{}, false
		case <-q.ready:
		}
	}
}

// Len returns the number of buffered messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// popLocked removes the head item. Caller must hold q.mu.
func (q *Queue) popLocked() (message.Message, bool) {
	if len(q.items) == 0 {
		return message.Message{}, false
	}
	msg := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		// Release the backing array once drained.
		q.items = nil
	}
	return msg, true
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
