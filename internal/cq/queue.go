package cq

import "sync"

// Tag correlates a completion with the call slot that issued the operation.
// Tags are indexes into the engine's context arena.
type Tag uint64

// Completion reports one finished asynchronous operation.
type Completion struct {
	Tag Tag
	// OK is false when the operation did not complete normally: the
	// listener went away during an accept, or the peer finished sending
	// during a stream read.
	OK bool
}

// Queue is a shutdown-aware FIFO of completions with one consumer.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []Completion
	shutdown bool
}

// New returns an empty queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a completion. It reports false if the queue has been shut
// down, in which case the completion is dropped.
func (q *Queue) Push(tag Tag, ok bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return false
	}
	q.buf = append(q.buf, Completion{Tag: tag, OK: ok})
	q.cond.Signal()
	return true
}

// Next blocks until a completion is available and returns it. The second
// result is false only after Shutdown has been called and every buffered
// completion has been consumed.
func (q *Queue) Next() (Completion, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.buf) == 0 && !q.shutdown {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return Completion{}, false
	}
	c := q.buf[0]
	q.buf = q.buf[1:]
	return c, true
}

// Shutdown stops the queue from accepting new completions and unblocks the
// consumer once the buffer drains. Idempotent.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.shutdown {
		return
	}
	q.shutdown = true
	q.cond.Broadcast()
}

// Drain consumes and discards completions until end-of-stream. It returns
// the number discarded. Call only after Shutdown.
func (q *Queue) Drain() int {
	n := 0
	for {
		if _, ok := q.Next(); !ok {
			return n
		}
		n++
	}
}
