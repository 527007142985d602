// Package pipeline runs the two-stage download/upload flow: a download
// worker pool feeding an upload worker pool through an unbounded queue,
// with per-worker encoding gates on the upload side.
package pipeline

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO with task-completion accounting. Put
// increments the unfinished count, TaskDone decrements it, and Join
// blocks until it reaches zero. A consumer that takes an item must call
// TaskDone exactly once for it, on every exit path.
type Queue[T any] struct {
	mu         sync.Mutex
	cond       *sync.Cond
	items      []T
	unfinished int
	closed     bool
}

func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *Queue[T]) Put(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.unfinished++
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Get pops the oldest item, waiting up to timeout when the queue is
// empty. ok is false on timeout.
func (q *Queue[T]) Get(timeout time.Duration) (item T, ok bool) {
	deadline := time.Now().Add(timeout)
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			var zero T
			return zero, false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			var zero T
			return zero, false
		}
		timer := time.AfterFunc(remaining, func() {
			q.cond.Broadcast()
		})
		q.cond.Wait()
		timer.Stop()
	}

	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// TaskDone marks one previously gotten item as fully processed.
func (q *Queue[T]) TaskDone() {
	q.mu.Lock()
	if q.unfinished > 0 {
		q.unfinished--
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Join blocks until every item ever Put has been marked done.
func (q *Queue[T]) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.unfinished > 0 {
		q.cond.Wait()
	}
}

// Close makes an empty Get return immediately instead of waiting out
// its timeout. Items already queued still drain normally.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Abandon drops the queued backlog and zeroes the unfinished count so a
// blocked Join returns. For cancellation, when the workers that would
// have drained the backlog are exiting.
func (q *Queue[T]) Abandon() {
	q.mu.Lock()
	q.items = nil
	q.unfinished = 0
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
